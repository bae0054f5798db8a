package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/tableorder-backend/api/responses"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/tableorder-backend/pkg/redis"
)

const (
	IdempotencyHeader     = "Idempotency-Key"
	IdempotentReplayed    = "Idempotent-Replayed"
	defaultIdempotencyTTL = 24 * time.Hour
	// A reservation outlives any sane handler run; it is replaced by the
	// final record or removed on failure.
	idempotencyLease     = time.Minute
	maxIdempotencyKeyLen = 128
)

type idempotencyState string

const (
	statePending  idempotencyState = "pending"
	stateComplete idempotencyState = "complete"
)

type idempotencyRecord struct {
	State       idempotencyState `json:"state"`
	RequestHash string           `json:"request_hash"`
	Status      int              `json:"status,omitempty"`
	ContentType string           `json:"content_type,omitempty"`
	Body        []byte           `json:"body,omitempty"`
}

// Idempotency makes the wrapped route safe to retry. A request carrying an
// Idempotency-Key first reserves the key; a concurrent duplicate gets 409
// while the first is running, and later duplicates get the recorded
// response replayed. 5xx results release the key so the client can retry.
// Requests without the header, or a nil store, pass straight through.
func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if store == nil || clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			if len(clientKey) > maxIdempotencyKeyLen {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key too long"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := requestFingerprint(r, body)
			key := store.IdempotencyKey(idempotencyScope(r), clientKey)

			reserved, err := reserve(ctx, store, key, hash)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
				return
			}
			if !reserved {
				replayOrReject(ctx, logg, w, store, key, hash)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			defer func() {
				if rec := recover(); rec != nil {
					release(ctx, logg, store, key)
					panic(rec)
				}
			}()
			next.ServeHTTP(capture, r)

			status := capture.statusCode()
			if status >= http.StatusInternalServerError {
				release(ctx, logg, store, key)
				return
			}
			record := idempotencyRecord{
				State:       stateComplete,
				RequestHash: hash,
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			}
			payload, err := json.Marshal(record)
			if err == nil {
				err = store.Set(context.WithoutCancel(ctx), key, string(payload), ttl)
			}
			if err != nil && logg != nil {
				logg.Error(ctx, "idempotency.record_failed", err)
			}
		})
	}
}

func reserve(ctx context.Context, store pkgredis.IdempotencyStore, key, hash string) (bool, error) {
	pending, err := json.Marshal(idempotencyRecord{State: statePending, RequestHash: hash})
	if err != nil {
		return false, err
	}
	return store.SetNX(ctx, key, string(pending), idempotencyLease)
}

func replayOrReject(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, store pkgredis.IdempotencyStore, key, hash string) {
	stored, err := store.Get(ctx, key)
	if errors.Is(err, pkgredis.Nil) {
		// Released between our SETNX and GET; the first attempt failed.
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "previous attempt failed, retry the request"))
		return
	}
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read idempotency record"))
		return
	}
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}

	switch {
	case record.RequestHash != hash:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different request"))
	case record.State == statePending:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this idempotency key is still in progress"))
	default:
		if record.ContentType != "" {
			w.Header().Set("Content-Type", record.ContentType)
		}
		w.Header().Set(IdempotentReplayed, "true")
		w.WriteHeader(record.Status)
		_, _ = w.Write(record.Body)
	}
}

func release(ctx context.Context, logg *logger.Logger, store pkgredis.IdempotencyStore, key string) {
	if err := store.Del(context.WithoutCancel(ctx), key); err != nil && logg != nil {
		logg.Error(ctx, "idempotency.release_failed", err)
	}
}

// idempotencyScope keeps keys from colliding across stores and callers.
func idempotencyScope(r *http.Request) string {
	ctx := r.Context()
	return strings.Join([]string{StoreIDFromContext(ctx), SubjectFromContext(ctx)}, "|")
}

// requestFingerprint binds a key to one method, path and body.
func requestFingerprint(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Method))
	h.Write([]byte{0})
	h.Write([]byte(r.URL.Path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
