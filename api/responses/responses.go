package responses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
	"github.com/angelmondragon/tableorder-backend/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteAttachment sends body as a download named filename.
func WriteAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	h.Set("Content-Length", strconv.Itoa(len(body)))
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// WriteError maps err onto the error envelope. Untyped errors become
// INTERNAL_ERROR with the generic message. 5xx responses log at error level
// with the full dump; client errors log a single warn line.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	apiErr := types.APIError{
		Code:      string(typed.Code()),
		Message:   meta.PublicMessage,
		RequestID: logger.RequestIDFromContext(ctx),
	}
	if meta.ExposeMessage && typed.Message() != "" {
		apiErr.Message = typed.Message()
	}
	if meta.DetailsAllowed {
		apiErr.Details = typed.Details()
	}

	if logg != nil {
		logError(ctx, logg, meta.HTTPStatus, err)
	}
	if meta.Retryable && typed.Code() == pkgerrors.CodeDependency {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, meta.HTTPStatus, types.ErrorEnvelope{Error: apiErr})
}

func logError(ctx context.Context, logg *logger.Logger, status int, err error) {
	dump := pkgerrors.Dump(err)
	ctx = logg.WithField(ctx, "status", status)
	if status < http.StatusInternalServerError {
		logg.Warn(logg.WithField(ctx, "error_code", string(dump.Code)), err.Error())
		return
	}
	logg.Error(logg.WithFields(ctx, dump.Fields()), "request.error", err)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"error":{"code":"INTERNAL_ERROR","message":"internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
