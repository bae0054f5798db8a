// Package sse writes text/event-stream frames.
package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const ContentType = "text/event-stream"

// PrepareHeaders sets the response headers every event stream needs.
// X-Accel-Buffering stops nginx from holding frames back.
func PrepareHeaders(h http.Header) {
	h.Set("Content-Type", ContentType)
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// WriteEvent writes one named event with a JSON data line.
func WriteEvent(w io.Writer, event string, data any) error {
	if strings.ContainsAny(event, "\r\n") {
		return fmt.Errorf("sse: event name %q contains a newline", event)
	}
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sse: encode %s: %w", event, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, body)
	return err
}

// WriteComment writes a comment-only frame, used as a keep-alive.
func WriteComment(w io.Writer, text string) error {
	_, err := fmt.Fprintf(w, ": %s\n\n", strings.ReplaceAll(text, "\n", " "))
	return err
}

// WriteRetry tells the client how long to wait before reconnecting.
func WriteRetry(w io.Writer, millis int) error {
	_, err := fmt.Fprintf(w, "retry: %d\n\n", millis)
	return err
}
