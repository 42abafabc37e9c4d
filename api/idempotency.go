package api

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
)

// IdempotencyHeader names the client-chosen key that makes a POST safe to
// retry. Replayed responses carry ReplayedHeader.
const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"
)

type storedResponse struct {
	status      int
	contentType string
	body        []byte
}

// inFlight marks a key whose first request has not finished yet.
type inFlight struct{}

// Idempotency remembers the response to a keyed request for ttl. A retry
// with the same key, actor, method and path gets the stored response
// instead of running the handler again; a retry that arrives while the
// first is still running gets 409.
type Idempotency struct {
	cache *cache.Cache
}

func NewIdempotency(ttl time.Duration) *Idempotency {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Idempotency{cache: cache.New(ttl, 2*ttl)}
}

func (i *Idempotency) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(IdempotencyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		actorID := ""
		if actor, ok := ActorFrom(r.Context()); ok {
			actorID = actor.String()
		}
		cacheKey := actorID + "|" + r.Method + "|" + r.URL.Path + "|" + key

		if err := i.cache.Add(cacheKey, inFlight{}, cache.DefaultExpiration); err != nil {
			i.replay(w, cacheKey)
			return
		}
		// A panic never reaches the Set below; release the key so a retry
		// runs instead of seeing in_progress until the entry expires.
		defer func() {
			if p := recover(); p != nil {
				i.cache.Delete(cacheKey)
				panic(p)
			}
		}()

		var buf bytes.Buffer
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Tee(&buf)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		// Server failures are not remembered so the client can retry.
		if status >= 500 {
			i.cache.Delete(cacheKey)
			return
		}
		i.cache.Set(cacheKey, storedResponse{
			status:      status,
			contentType: ww.Header().Get("Content-Type"),
			body:        buf.Bytes(),
		}, cache.DefaultExpiration)
	})
}

func (i *Idempotency) replay(w http.ResponseWriter, cacheKey string) {
	v, found := i.cache.Get(cacheKey)
	resp, done := v.(storedResponse)
	if !found || !done {
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: "A request with this Idempotency-Key is still in progress",
			Kind:  "in_progress",
		})
		return
	}

	if resp.contentType != "" {
		w.Header().Set("Content-Type", resp.contentType)
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(resp.status)
	w.Write(resp.body)
}
