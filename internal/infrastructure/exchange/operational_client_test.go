package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// dayHandler serves one page per persianDate, failing the dates in failDates
func dayHandler(t *testing.T, failDates map[string]bool) (http.HandlerFunc, func() []string) {
	t.Helper()

	var mu sync.Mutex
	var requested []string

	handler := func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("persianDate")
		mu.Lock()
		requested = append(requested, date)
		mu.Unlock()

		if failDates[date] {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		envelope := map[string]any{
			"items": []map[string]any{
				{"item": testItem{ID: 1, Name: "offer-" + date}},
			},
			"totalItemCount": 1,
			"pageSize":       1000,
			"pageNumber":     1,
			"pageCount":      1,
			"links":          []map[string]any{},
		}
		require.NoError(t, json.NewEncoder(w).Encode(envelope))
	}

	seen := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), requested...)
	}
	return handler, seen
}

func newOperationalTestClient(srv *httptest.Server, tokens TokenSource) *OperationalClient[testItem] {
	cfg := Config{
		BaseURL:  srv.URL,
		PageSize: 1000,
		Language: "fa",
		Timeout:  5 * time.Second,
		// no pre-fetch pacing in tests
		DayFetchDelayMin: 0,
		DayFetchDelayMax: 0,
	}
	return NewOperationalClient[testItem](cfg, "/Offers", tokens, zap.NewNop())
}

func TestOperationalClientRetrieveForRange(t *testing.T) {
	t.Run("from after to returns empty with zero remote calls", func(t *testing.T) {
		handler, seen := dayHandler(t, nil)
		srv := httptest.NewServer(handler)
		defer srv.Close()

		tokens := &staticTokens{token: "tok"}
		client := newOperationalTestClient(srv, tokens)

		to := time.Now()
		from := to.AddDate(0, 0, 2)
		items, err := client.RetrieveForRange(context.Background(), from, to)

		require.NoError(t, err)
		assert.Nil(t, items)
		assert.Empty(t, seen())
		assert.Equal(t, int64(0), tokens.calls.Load())
	})

	t.Run("fetches one call per calendar day inclusive", func(t *testing.T) {
		handler, seen := dayHandler(t, nil)
		srv := httptest.NewServer(handler)
		defer srv.Close()

		client := newOperationalTestClient(srv, &staticTokens{token: "tok"})

		to := time.Now()
		from := to.AddDate(0, 0, -2)
		items, err := client.RetrieveForRange(context.Background(), from, to)

		require.NoError(t, err)
		assert.Len(t, items, 3)

		dates := seen()
		require.Len(t, dates, 3)
		assert.Equal(t, JalaliDate(from), dates[0])
		assert.Equal(t, JalaliDate(to), dates[2])
	})

	t.Run("failing middle day is skipped, surrounding days survive", func(t *testing.T) {
		to := time.Now()
		from := to.AddDate(0, 0, -2)
		middle := to.AddDate(0, 0, -1)

		handler, seen := dayHandler(t, map[string]bool{JalaliDate(middle): true})
		srv := httptest.NewServer(handler)
		defer srv.Close()

		client := newOperationalTestClient(srv, &staticTokens{token: "tok"})
		items, err := client.RetrieveForRange(context.Background(), from, to)

		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "offer-"+JalaliDate(from), items[0].Name)
		assert.Equal(t, "offer-"+JalaliDate(to), items[1].Name)
		assert.Len(t, seen(), 3)
	})

	t.Run("single day range fetches exactly that day", func(t *testing.T) {
		handler, seen := dayHandler(t, nil)
		srv := httptest.NewServer(handler)
		defer srv.Close()

		client := newOperationalTestClient(srv, &staticTokens{token: "tok"})
		day := time.Now()
		items, err := client.RetrieveForRange(context.Background(), day, day)

		require.NoError(t, err)
		assert.Len(t, items, 1)
		assert.Equal(t, []string{JalaliDate(day)}, seen())
	})
}

func TestOperationalClientRetrieveForDay(t *testing.T) {
	t.Run("token failure is fatal for the day", func(t *testing.T) {
		handler, seen := dayHandler(t, nil)
		srv := httptest.NewServer(handler)
		defer srv.Close()

		authErr := fmt.Errorf("authentication failed")
		client := newOperationalTestClient(srv, &staticTokens{err: authErr})

		_, err := client.RetrieveForDay(context.Background(), time.Now())
		require.Error(t, err)
		assert.ErrorIs(t, err, authErr)
		assert.Empty(t, seen())
	})

	t.Run("http failure is fatal for the day", func(t *testing.T) {
		day := time.Now()
		handler, _ := dayHandler(t, map[string]bool{JalaliDate(day): true})
		srv := httptest.NewServer(handler)
		defer srv.Close()

		client := newOperationalTestClient(srv, &staticTokens{token: "tok"})
		_, err := client.RetrieveForDay(context.Background(), day)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRequestFailed)
	})

	t.Run("pre-fetch delay respects cancellation", func(t *testing.T) {
		handler, seen := dayHandler(t, nil)
		srv := httptest.NewServer(handler)
		defer srv.Close()

		client := newOperationalTestClient(srv, &staticTokens{token: "tok"})
		client.cfg.DayFetchDelayMin = time.Hour
		client.cfg.DayFetchDelayMax = time.Hour

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := client.RetrieveForDay(ctx, time.Now())
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Empty(t, seen())
	})
}

func TestPreFetchDelay(t *testing.T) {
	client := &OperationalClient[testItem]{cfg: Config{
		DayFetchDelayMin: 3 * time.Minute,
		DayFetchDelayMax: 5 * time.Minute,
	}}

	for range 100 {
		d := client.preFetchDelay()
		assert.GreaterOrEqual(t, d, 3*time.Minute)
		assert.Less(t, d, 5*time.Minute)
	}
}

func TestJalaliDate(t *testing.T) {
	// 2024-03-20 is the Nowruz boundary: 1403-01-01
	day := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "14030101", JalaliDate(day))
}
