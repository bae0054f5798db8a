package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Params struct {
	Limit  int
	Cursor string
}

// Cursor marks the last row of a page ordered by (At DESC, ID DESC).
type Cursor struct {
	At time.Time `json:"t"`
	ID uuid.UUID `json:"id"`
}

type Page[T any] struct {
	Items      []T    `json:"items"`
	TotalCount int64  `json:"total_count"`
	NextCursor string `json:"next_cursor,omitempty"`
}

var ErrInvalidCursor = errors.New("invalid cursor")

// NormalizeLimit maps non-positive limits to DefaultLimit and caps at MaxLimit.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

// FetchSize is the row count to request so BuildPage can tell whether
// another page exists.
func FetchSize(limit int) int {
	return NormalizeLimit(limit) + 1
}

// BuildPage trims rows fetched with FetchSize(limit) down to the page,
// sets NextCursor from the last kept row when more remain, and converts
// each row with mapFn.
func BuildPage[R, T any](rows []R, limit int, total int64, cursorOf func(R) Cursor, mapFn func(R) T) Page[T] {
	limit = NormalizeLimit(limit)
	page := Page[T]{TotalCount: total}
	if len(rows) > limit {
		rows = rows[:limit]
		page.NextCursor = EncodeCursor(cursorOf(rows[limit-1]))
	}
	page.Items = make([]T, len(rows))
	for i, row := range rows {
		page.Items[i] = mapFn(row)
	}
	return page
}

func EncodeCursor(c Cursor) string {
	c.At = c.At.UTC()
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// ParseCursor decodes an opaque cursor. Blank input means the first page
// and returns nil.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if c.At.IsZero() || c.ID == uuid.Nil {
		return nil, ErrInvalidCursor
	}
	return &c, nil
}
