package idempotency

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper reports whether a request key has been seen before, recording it as
// seen as a side effect of the first check.
type Deduper interface {
	Seen(ctx context.Context, key string) (bool, error)
}

// Store is a redis-backed Deduper using SETNX with a TTL.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, "idem:"+key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Middleware rejects replays of requests carrying an Idempotency-Key header
// with 409. Requests without the header pass through unchecked. A deduper
// failure fails open: dropping duplicate protection is preferable to
// rejecting every write while redis is down.
func Middleware(log *slog.Logger, deduper Deduper) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			seen, err := deduper.Seen(r.Context(), fmt.Sprintf("%s:%s:%s", r.Method, r.URL.Path, key))
			if err != nil {
				log.Error("idempotency check failed", "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if seen {
				http.Error(w, `{"error":"duplicate request"}`, http.StatusConflict)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
