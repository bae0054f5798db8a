package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/tableorder-backend/pkg/errors"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
	"github.com/angelmondragon/tableorder-backend/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessStatus(w, http.StatusCreated, map[string]string{"hello": "world"})

	require.Equal(t, http.StatusCreated, w.Code)
	var body types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "world", body.Data.(map[string]any)["hello"])
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "bad input").
		WithDetails(map[string]string{"field": "demo"})
	WriteError(context.Background(), logger.Nop(), w, err)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, string(pkgerrors.CodeValidation), body.Error.Code)
	assert.Equal(t, "bad input", body.Error.Message)
	assert.NotNil(t, body.Error.Details)
}

func TestWriteErrorKindsMapToStatus(t *testing.T) {
	cases := map[pkgerrors.Code]int{
		pkgerrors.CodeNotFound:             http.StatusNotFound,
		pkgerrors.CodeForbidden:            http.StatusForbidden,
		pkgerrors.CodeConflict:             http.StatusConflict,
		pkgerrors.CodeAuthenticationFailed: http.StatusUnauthorized,
		pkgerrors.CodeRateLimit:            http.StatusTooManyRequests,
	}
	for code, status := range cases {
		w := httptest.NewRecorder()
		WriteError(context.Background(), nil, w, pkgerrors.New(code, "x"))
		assert.Equal(t, status, w.Code, code)
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, string(pkgerrors.CodeInternal), body.Error.Code)
	assert.Equal(t, "internal server error", body.Error.Message)
	assert.Nil(t, body.Error.Details)
}

func TestWriteAttachment(t *testing.T) {
	w := httptest.NewRecorder()
	WriteAttachment(w, "application/octet-stream", "history.xlsx", []byte("abc"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="history.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "3", w.Header().Get("Content-Length"))
}

func TestWriteErrorEchoesRequestIDAndHidesInternalMessages(t *testing.T) {
	logg := logger.Nop()
	ctx := logg.WithRequestID(context.Background(), "req-77")

	w := httptest.NewRecorder()
	WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pq: relation orders does not exist"))

	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "req-77", body.Error.RequestID)
	assert.Equal(t, "internal server error", body.Error.Message)
}

func TestWriteErrorDependencySetsRetryAfter(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeDependency, "redis unavailable").
		WithDetails(map[string]any{"dependency": "redis"})
	WriteError(context.Background(), nil, w, err)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "5", w.Header().Get("Retry-After"))

	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "dependency unavailable", body.Error.Message)
	assert.Equal(t, "redis", body.Error.Details.(map[string]any)["dependency"])
}
