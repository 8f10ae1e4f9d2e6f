package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testItem stands in for any mirrored entity in the client tests
type testItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// staticTokens is a TokenSource returning a fixed token
type staticTokens struct {
	token     string
	err       error
	calls     atomic.Int64
	lastForce atomic.Bool
}

func (s *staticTokens) Token(ctx context.Context, forceRefresh bool) (string, error) {
	s.calls.Add(1)
	s.lastForce.Store(forceRefresh)
	return s.token, s.err
}

// pagedHandler serves pageCount pages of items, optionally failing one page
func pagedHandler(t *testing.T, pageCount int, failPage int) (http.HandlerFunc, *atomic.Int64) {
	t.Helper()
	var gets atomic.Int64

	handler := func(w http.ResponseWriter, r *http.Request) {
		gets.Add(1)

		page := 1
		if p := r.URL.Query().Get("pageNumber"); p != "" {
			fmt.Sscanf(p, "%d", &page)
		}
		if page == failPage {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		envelope := map[string]any{
			"items": []map[string]any{
				{"item": testItem{ID: int64(page), Name: fmt.Sprintf("item-%d", page)}},
			},
			"totalItemCount": pageCount,
			"pageSize":       1,
			"pageNumber":     page,
			"pageCount":      pageCount,
			"links":          []map[string]any{},
		}
		if page < pageCount {
			next := fmt.Sprintf("http://%s%s?pageNumber=%d&pageSize=1&Language=fa", r.Host, r.URL.Path, page+1)
			envelope["links"] = []map[string]any{
				{"href": next, "rel": "nextPage", "method": "GET"},
			}
		}
		require.NoError(t, json.NewEncoder(w).Encode(envelope))
	}

	return handler, &gets
}

func newReferenceTestClient(srv *httptest.Server, tokens TokenSource) *ReferenceClient[testItem] {
	cfg := Config{
		BaseURL:   srv.URL,
		PageSize:  1000,
		Language:  "fa",
		PageDelay: time.Millisecond,
		Timeout:   5 * time.Second,
	}
	return NewReferenceClient[testItem](cfg, "/Brokers", tokens, zap.NewNop())
}

func TestReferenceClientRetrieveAll(t *testing.T) {
	t.Run("follows nextPage links across three pages", func(t *testing.T) {
		handler, gets := pagedHandler(t, 3, 0)
		srv := httptest.NewServer(handler)
		defer srv.Close()

		client := newReferenceTestClient(srv, &staticTokens{token: "tok"})
		items, err := client.RetrieveAll(context.Background(), false)

		require.NoError(t, err)
		assert.Equal(t, int64(3), gets.Load())
		require.Len(t, items, 3)
		assert.Equal(t, []testItem{
			{ID: 1, Name: "item-1"},
			{ID: 2, Name: "item-2"},
			{ID: 3, Name: "item-3"},
		}, items)
	})

	t.Run("single page issues exactly one GET", func(t *testing.T) {
		handler, gets := pagedHandler(t, 1, 0)
		srv := httptest.NewServer(handler)
		defer srv.Close()

		client := newReferenceTestClient(srv, &staticTokens{token: "tok"})
		items, err := client.RetrieveAll(context.Background(), false)

		require.NoError(t, err)
		assert.Equal(t, int64(1), gets.Load())
		assert.Len(t, items, 1)
	})

	t.Run("failure on page two returns page one only without error", func(t *testing.T) {
		handler, gets := pagedHandler(t, 3, 2)
		srv := httptest.NewServer(handler)
		defer srv.Close()

		client := newReferenceTestClient(srv, &staticTokens{token: "tok"})
		items, err := client.RetrieveAll(context.Background(), false)

		require.NoError(t, err)
		// page 3 must not have been requested
		assert.Equal(t, int64(2), gets.Load())
		require.Len(t, items, 1)
		assert.Equal(t, int64(1), items[0].ID)
	})

	t.Run("token failure aborts the fetch", func(t *testing.T) {
		handler, gets := pagedHandler(t, 3, 0)
		srv := httptest.NewServer(handler)
		defer srv.Close()

		authErr := errors.New("authentication failed")
		client := newReferenceTestClient(srv, &staticTokens{err: authErr})
		items, err := client.RetrieveAll(context.Background(), false)

		require.Error(t, err)
		assert.ErrorIs(t, err, authErr)
		assert.Nil(t, items)
		assert.Equal(t, int64(0), gets.Load())
	})

	t.Run("force refresh is passed through to the token source", func(t *testing.T) {
		handler, _ := pagedHandler(t, 1, 0)
		srv := httptest.NewServer(handler)
		defer srv.Close()

		tokens := &staticTokens{token: "tok"}
		client := newReferenceTestClient(srv, tokens)
		_, err := client.RetrieveAll(context.Background(), true)

		require.NoError(t, err)
		assert.True(t, tokens.lastForce.Load())
	})

	t.Run("cancellation stops between pages", func(t *testing.T) {
		handler, gets := pagedHandler(t, 3, 0)
		srv := httptest.NewServer(handler)
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		client := newReferenceTestClient(srv, &staticTokens{token: "tok"})
		client.cfg.PageDelay = 200 * time.Millisecond

		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		_, err := client.RetrieveAll(ctx, false)
		require.ErrorIs(t, err, context.Canceled)
		assert.Less(t, gets.Load(), int64(3))
	})
}
