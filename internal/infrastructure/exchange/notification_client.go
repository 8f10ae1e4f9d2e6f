package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// notificationDateLayout is the culture-invariant date format of the
// notification request body
const notificationDateLayout = "2006-01-02"

// notificationRequest is the POST body of the notification endpoints
type notificationRequest struct {
	FromDate   string `json:"fromDate"`
	ToDate     string `json:"toDate"`
	PageNumber int    `json:"pageNumber"`
	PageSize   int    `json:"pageSize"`
}

// NotificationClient pulls one notification entity type. Notification
// endpoints differ from the rest of the exchange API: they are POST-based,
// range server-side over [fromDate, toDate], page by index rather than
// navigation links, and require no bearer token.
type NotificationClient[T any] struct {
	cfg        Config
	path       string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewNotificationClient creates a notification fetcher for one endpoint path
func NewNotificationClient[T any](cfg Config, path string, logger *zap.Logger) *NotificationClient[T] {
	return &NotificationClient[T]{
		cfg:        cfg,
		path:       path,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("exchange.notification"),
	}
}

// RetrieveForRange fetches every notification in the inclusive [from, to]
// range, advancing pageNumber while the envelope reports another page.
// A from after to yields an empty result with zero remote calls.
func (c *NotificationClient[T]) RetrieveForRange(ctx context.Context, from, to time.Time) ([]T, error) {
	from = truncateToDay(from)
	to = truncateToDay(to)
	if from.After(to) {
		return nil, nil
	}

	endpoint := strings.TrimSuffix(c.cfg.NotificationBaseURL, "/") + c.path

	var items []T
	for pageNumber := 1; ; pageNumber++ {
		envelope, err := c.fetchPage(ctx, endpoint, from, to, pageNumber)
		if err != nil {
			return nil, err
		}
		items = append(items, envelope.Data...)
		c.cfg.notifyPage(c.path)
		if !envelope.HasNextPage {
			break
		}
	}

	return items, nil
}

// fetchPage POSTs one page request and decodes the notification envelope
func (c *NotificationClient[T]) fetchPage(ctx context.Context, endpoint string, from, to time.Time, pageNumber int) (*NotificationEnvelope[T], error) {
	payload, err := json.Marshal(notificationRequest{
		FromDate:   from.Format(notificationDateLayout),
		ToDate:     to.Format(notificationDateLayout),
		PageNumber: pageNumber,
		PageSize:   c.cfg.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange: failed to encode notification request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("exchange: failed to create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("exchange: failed to read notification response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrRequestFailed, resp.StatusCode)
	}

	var envelope NotificationEnvelope[T]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("%w: %s", ErrRemoteRejected, strings.Join(envelope.Messages, "; "))
	}

	return &envelope, nil
}
