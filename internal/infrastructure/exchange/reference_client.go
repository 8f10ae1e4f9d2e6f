package exchange

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ReferenceClient pulls the full collection of one reference entity type,
// transparently following pagination. Reference pulls are best effort: an
// HTTP failure mid-pull returns whatever pages were already accumulated,
// because stale master data is preferable to none and the next cycle retries.
type ReferenceClient[T any] struct {
	cfg        Config
	path       string
	tokens     TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

// NewReferenceClient creates a reference fetcher for one endpoint path
func NewReferenceClient[T any](cfg Config, path string, tokens TokenSource, logger *zap.Logger) *ReferenceClient[T] {
	return &ReferenceClient[T]{
		cfg:        cfg,
		path:       path,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("exchange.reference"),
	}
}

// RetrieveAll fetches every record of the entity type, page by page.
// Authentication failures are returned as errors; transport failures stop the
// pull and return the accumulated items with no error.
func (c *ReferenceClient[T]) RetrieveAll(ctx context.Context, forceTokenRefresh bool) ([]T, error) {
	bearer, err := c.tokens.Token(ctx, forceTokenRefresh)
	if err != nil {
		return nil, fmt.Errorf("reference fetch %s: %w", c.path, err)
	}

	nextURL := c.firstPageURL()
	var items []T

	for nextURL != "" {
		var page PagedEnvelope[T]
		if err := getJSON(ctx, c.httpClient, nextURL, bearer, &page); err != nil {
			if ctx.Err() != nil {
				return items, ctx.Err()
			}
			c.logger.Warn("Reference pull aborted, returning partial collection",
				zap.String("path", c.path),
				zap.String("url", nextURL),
				zap.Int("accumulated", len(items)),
				zap.Error(err),
			)
			return items, nil
		}

		items = append(items, page.Unwrap()...)
		c.cfg.notifyPage(c.path)

		nextURL = page.NextPageURL()
		if nextURL != "" {
			if err := sleepCtx(ctx, c.cfg.PageDelay); err != nil {
				return items, err
			}
		}
	}

	return items, nil
}

// firstPageURL builds the page-1 request URL for the configured endpoint
func (c *ReferenceClient[T]) firstPageURL() string {
	q := url.Values{}
	q.Set("pageNumber", "1")
	q.Set("pageSize", strconv.Itoa(c.cfg.PageSize))
	q.Set("Language", c.cfg.Language)
	return strings.TrimSuffix(c.cfg.BaseURL, "/") + c.path + "?" + q.Encode()
}
