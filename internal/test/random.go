package test

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

const asciiLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// RandomASCIIString returns a pseudo-random ASCII string within the provided bounds.
// When maxLen equals minLen the resulting string always has that exact length.
func RandomASCIIString(minLen, maxLen int) string {
	if minLen <= 0 {
		minLen = 1
	}
	if maxLen < minLen {
		maxLen = minLen
	}
	length := minLen
	if maxLen > minLen {
		length += randomIntn(maxLen - minLen + 1)
	}
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = asciiLetters[randomIntn(len(asciiLetters))]
	}
	return string(buf)
}

// RandomEmail returns a lowercase customer identity under example.com.
func RandomEmail() string {
	return strings.ToLower(RandomASCIIString(6, 12)) + "@example.com"
}

// RandomAmount returns a whole đồng amount in [min, max] rounded down to
// the nearest thousand, the granularity prices are quoted in.
func RandomAmount(min, max int64) int64 {
	if max <= min {
		return min
	}
	v := min + int64(randomIntn(int(max-min+1)))
	if rounded := v - v%1000; rounded >= min {
		return rounded
	}
	return v
}

func randomIntn(n int) int {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Intn(n)
}
