package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseSize is the maximum allowed response size from the exchange API (50MB)
const maxResponseSize = 50 * 1024 * 1024

var (
	// ErrRequestFailed indicates an HTTP-level failure against the exchange API
	ErrRequestFailed = errors.New("exchange: request failed")

	// ErrInvalidResponse indicates a response that could not be parsed
	ErrInvalidResponse = errors.New("exchange: invalid response")

	// ErrRemoteRejected indicates the remote reported a failure in its envelope
	ErrRemoteRejected = errors.New("exchange: remote rejected request")
)

// TokenSource supplies bearer tokens for authenticated exchange calls
type TokenSource interface {
	Token(ctx context.Context, forceRefresh bool) (string, error)
}

// Config holds settings shared by the exchange clients
type Config struct {
	// BaseURL of the reference and operational endpoints
	BaseURL string
	// NotificationBaseURL of the notification endpoints
	NotificationBaseURL string
	// PageSize requested per call
	PageSize int
	// Language requested from the API
	Language string
	// PageDelay between paged GETs on reference pulls
	PageDelay time.Duration
	// DayFetchDelayMin and DayFetchDelayMax bound the randomized wait before
	// each per-day operational fetch
	DayFetchDelayMin time.Duration
	DayFetchDelayMax time.Duration
	// Timeout per HTTP request
	Timeout time.Duration
	// PageHook, when set, is invoked once per successfully fetched page with
	// the endpoint path. Used for metrics.
	PageHook func(path string)
}

func (c Config) notifyPage(path string) {
	if c.PageHook != nil {
		c.PageHook(path)
	}
}

// getJSON issues a bearer-authenticated GET and decodes the JSON body into out
func getJSON(ctx context.Context, client *http.Client, url, bearer string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("exchange: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("exchange: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d", ErrRequestFailed, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// sleepCtx waits for d or until the context is cancelled
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
