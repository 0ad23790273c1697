package middleware

import (
	"compress/gzip"
	"compress/zlib"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxDecompressedBody caps how much a compressed request may expand to.
const MaxDecompressedBody = 4 << 20

// DecompressRequest transparently handles gzip and deflate encoded requests.
// Unknown encodings are rejected with 415.
func DecompressRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		encoding := strings.ToLower(strings.TrimSpace(c.GetHeader("Content-Encoding")))
		if encoding == "" || encoding == "identity" {
			c.Next()
			return
		}

		originalBody := c.Request.Body
		var (
			reader io.ReadCloser
			err    error
		)
		switch encoding {
		case "gzip", "x-gzip":
			reader, err = gzip.NewReader(originalBody)
		case "deflate":
			reader, err = zlib.NewReader(originalBody)
		default:
			c.AbortWithStatus(http.StatusUnsupportedMediaType)
			return
		}
		if err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		defer reader.Close()
		defer originalBody.Close()

		c.Request.Body = http.MaxBytesReader(c.Writer, reader, MaxDecompressedBody)
		c.Request.Header.Del("Content-Encoding")
		c.Request.ContentLength = -1
		c.Next()
	}
}
