package bankfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
)

const defaultRetryAfter = 5 * time.Second

// TooManyRequestsError represents rate limiting signal from the bank feed.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Client pulls incoming transfers booked after a point in time.
type Client interface {
	Fetch(ctx context.Context, since time.Time) ([]model.BankTransaction, error)
}

// HTTPClient implements Client via the bank statement HTTP API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// transaction mirrors one JSON entry of the statement feed.
type transaction struct {
	ID          string    `json:"id"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	BookedAt    time.Time `json:"booked_at"`
}

// NewHTTPClient creates bank feed client with default timeout.
func NewHTTPClient(baseURL string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse bank feed url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("bank feed url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Fetch lists transfers booked at or after since. A 204 answer means nothing new.
func (c *HTTPClient) Fetch(ctx context.Context, since time.Time) ([]model.BankTransaction, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/api/transactions")
	if !since.IsZero() {
		q := endpoint.Query()
		q.Set("since", since.UTC().Format(time.RFC3339))
		endpoint.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		var data []transaction
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, err
		}
		result := make([]model.BankTransaction, 0, len(data))
		for _, tx := range data {
			result = append(result, model.BankTransaction{
				ExternalID:  tx.ID,
				Amount:      tx.Amount,
				Description: tx.Description,
				Status:      model.BankTransactionStatus(tx.Status),
				BookedAt:    tx.BookedAt,
			})
		}
		return result, nil
	case http.StatusNoContent:
		return nil, nil
	case http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, TooManyRequestsError{RetryAfter: retryAfter}
	default:
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("bank feed request failed", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return nil, fmt.Errorf("bank feed error: %s", resp.Status)
	}
}

// NoopClient is used when no feed is configured; transfers arrive through the admin import only.
type NoopClient struct{}

func (NoopClient) Fetch(context.Context, time.Time) ([]model.BankTransaction, error) {
	return nil, nil
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return defaultRetryAfter
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return defaultRetryAfter
}
