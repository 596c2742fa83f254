package idempotency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeDeduper struct {
	seen map[string]bool
	err  error
}

func (d *fakeDeduper) Seen(_ context.Context, key string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	if d.seen == nil {
		d.seen = map[string]bool{}
	}
	was := d.seen[key]
	d.seen[key] = true
	return was, nil
}

func handler(d Deduper) (http.Handler, *int) {
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})
	return Middleware(slog.New(slog.NewTextHandler(io.Discard, nil)), d)(next), &calls
}

func TestMiddleware(t *testing.T) {
	t.Run("no key passes through", func(t *testing.T) {
		h, calls := handler(&fakeDeduper{})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/orders", nil))
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, 1, *calls)
	})

	t.Run("replayed key rejected", func(t *testing.T) {
		h, calls := handler(&fakeDeduper{})
		for i, want := range []int{http.StatusCreated, http.StatusConflict} {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/orders", nil)
			req.Header.Set("Idempotency-Key", "abc-123")
			h.ServeHTTP(rec, req)
			assert.Equal(t, want, rec.Code, "request %d", i)
		}
		assert.Equal(t, 1, *calls)
	})

	t.Run("same key different path allowed", func(t *testing.T) {
		h, calls := handler(&fakeDeduper{})
		for _, path := range []string{"/v1/orders", "/v1/customers"} {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, path, nil)
			req.Header.Set("Idempotency-Key", "abc-123")
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusCreated, rec.Code)
		}
		assert.Equal(t, 2, *calls)
	})

	t.Run("deduper failure fails open", func(t *testing.T) {
		h, calls := handler(&fakeDeduper{err: errors.New("redis down")})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/orders", nil)
		req.Header.Set("Idempotency-Key", "abc-123")
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, 1, *calls)
	})
}
