package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/tableorder-backend/api/responses"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
)

const maxLoginBody = 4 << 10

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// IdentityFunc derives the login identity from the raw request body.
// An empty result skips the identity counter.
type IdentityFunc func(body []byte) string

// AuthRateLimitPolicy defines the throttling parameters for a login surface.
type AuthRateLimitPolicy struct {
	name          string
	window        time.Duration
	ipLimit       int
	identityLimit int
	identity      IdentityFunc
}

// NewAuthRateLimitPolicy builds a policy with the supplied window and limits.
func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, identityLimit int, identity IdentityFunc) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{
		name:          strings.ToLower(strings.TrimSpace(name)),
		window:        window,
		ipLimit:       ipLimit,
		identityLimit: identityLimit,
		identity:      identity,
	}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || (p.identityLimit > 0 && p.identity != nil))
}

func (p AuthRateLimitPolicy) label() string {
	if p.name == "" {
		return "auth"
	}
	return p.name
}

// counter is one fixed-window bucket checked for a request.
type counter struct {
	scope string
	key   string
	limit int
	// logged is the value put on the blocked log line; identities are
	// hashed so usernames never reach the logs.
	logged string
}

func (p AuthRateLimitPolicy) counters(r *http.Request, body []byte) []counter {
	var out []counter
	if ip := clientIP(r); p.ipLimit > 0 && ip != "" {
		out = append(out, counter{scope: "ip", key: "rl:ip:" + p.label() + ":" + ip, limit: p.ipLimit, logged: ip})
	}
	if p.identityLimit > 0 && p.identity != nil {
		if id := p.identity(body); id != "" {
			sum := sha256.Sum256([]byte(id))
			hash := hex.EncodeToString(sum[:])
			out = append(out, counter{scope: "identity", key: "rl:id:" + p.label() + ":" + hash, limit: p.identityLimit, logged: hash})
		}
	}
	return out
}

// TableLoginIdentity keys table logins by store and table number.
func TableLoginIdentity(body []byte) string {
	var payload struct {
		StoreID     string `json:"store_id"`
		TableNumber int    `json:"table_number"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	storeID := strings.ToLower(strings.TrimSpace(payload.StoreID))
	if storeID == "" || payload.TableNumber <= 0 {
		return ""
	}
	return fmt.Sprintf("%s#%d", storeID, payload.TableNumber)
}

// AdminLoginIdentity keys admin logins by username.
func AdminLoginIdentity(body []byte) string {
	var payload struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(payload.Username))
}

// AuthRateLimit throttles a login route per client IP and per login
// identity over a fixed window. Every counter is incremented even when an
// earlier one already blocks, so a blocked IP cannot probe identities for
// free. The body is buffered and restored for the handler.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			body, err := io.ReadAll(io.LimitReader(r.Body, maxLoginBody))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			var blocked *counter
			var attempts int64
			for _, c := range policy.counters(r, body) {
				count, err := store.IncrWithTTL(ctx, c.key, policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if count > int64(c.limit) && blocked == nil {
					blocked, attempts = &c, count
				}
			}
			if blocked != nil {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"policy":   policy.label(),
						"scope":    blocked.scope,
						"subject":  blocked.logged,
						"attempts": attempts,
						"limit":    blocked.limit,
					}), "auth.rate_limit.blocked")
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Seconds())))
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
