package validators

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/tableorder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
)

const dateLayout = "2006-01-02"

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseQueryUUID returns nil when the parameter is absent.
func ParseQueryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a uuid").WithDetails(map[string]any{"field": key})
	}
	return &id, nil
}

// ParseQueryDate parses YYYY-MM-DD in loc. Absent values yield nil.
func ParseQueryDate(r *http.Request, key string, loc *time.Location) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	value, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

// ParseQueryOrderStatus accepts the wire label or its English alias.
func ParseQueryOrderStatus(r *http.Request, key string) (*enums.OrderStatus, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	status, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").WithDetails(map[string]any{"field": key})
	}
	return &status, nil
}

// ParseURLUUID reads a chi path parameter as a uuid.
func ParseURLUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid path parameter").WithDetails(map[string]any{"field": key})
	}
	return id, nil
}
