package exchange

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// OperationalClient pulls one time-windowed operational entity type, one
// Jalali calendar day per remote call. Unlike reference pulls, a transport
// failure inside a single day is a hard error for that day; range pulls
// isolate failures at day granularity instead.
type OperationalClient[T any] struct {
	cfg        Config
	path       string
	tokens     TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOperationalClient creates an operational fetcher for one endpoint path
func NewOperationalClient[T any](cfg Config, path string, tokens TokenSource, logger *zap.Logger) *OperationalClient[T] {
	return &OperationalClient[T]{
		cfg:        cfg,
		path:       path,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("exchange.operational"),
	}
}

// RetrieveForRange fetches every day in the inclusive [from, to] range and
// concatenates the results. A from after to yields an empty result with zero
// remote calls. A failure on one day is logged and skipped; later days are
// still fetched.
func (c *OperationalClient[T]) RetrieveForRange(ctx context.Context, from, to time.Time) ([]T, error) {
	from = truncateToDay(from)
	to = truncateToDay(to)
	if from.After(to) {
		return nil, nil
	}

	var items []T
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		dayItems, err := c.RetrieveForDay(ctx, day)
		if err != nil {
			if ctx.Err() != nil {
				return items, ctx.Err()
			}
			c.logger.Warn("Day fetch failed, skipping day",
				zap.String("path", c.path),
				zap.String("persian_date", JalaliDate(day)),
				zap.Error(err),
			)
			continue
		}
		items = append(items, dayItems...)
	}

	return items, nil
}

// RetrieveForDay fetches all records of one calendar day, following
// pagination with no inter-page delay. Every call waits a randomized interval
// first to stay under the upstream rate limit, and requires a valid bearer
// token; authentication failures are fatal for the call.
func (c *OperationalClient[T]) RetrieveForDay(ctx context.Context, day time.Time) ([]T, error) {
	if err := sleepCtx(ctx, c.preFetchDelay()); err != nil {
		return nil, err
	}

	bearer, err := c.tokens.Token(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("operational fetch %s: %w", c.path, err)
	}

	nextURL := c.dayPageURL(day)
	var items []T

	for nextURL != "" {
		var page PagedEnvelope[T]
		if err := getJSON(ctx, c.httpClient, nextURL, bearer, &page); err != nil {
			return nil, fmt.Errorf("operational fetch %s day %s: %w", c.path, JalaliDate(day), err)
		}
		items = append(items, page.Unwrap()...)
		c.cfg.notifyPage(c.path)
		nextURL = page.NextPageURL()
	}

	return items, nil
}

// preFetchDelay picks a randomized wait within the configured bounds
func (c *OperationalClient[T]) preFetchDelay() time.Duration {
	minDelay, maxDelay := c.cfg.DayFetchDelayMin, c.cfg.DayFetchDelayMax
	if maxDelay <= minDelay {
		return minDelay
	}
	return minDelay + rand.N(maxDelay-minDelay)
}

// dayPageURL builds the page-1 request URL for one calendar day
func (c *OperationalClient[T]) dayPageURL(day time.Time) string {
	q := url.Values{}
	q.Set("persianDate", JalaliDate(day))
	q.Set("pageNumber", "1")
	q.Set("pageSize", strconv.Itoa(c.cfg.PageSize))
	q.Set("Language", c.cfg.Language)
	return strings.TrimSuffix(c.cfg.BaseURL, "/") + c.path + "?" + q.Encode()
}

// truncateToDay drops the time-of-day component in the instant's location
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
