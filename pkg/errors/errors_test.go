package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPredicatesMatchConstructors(t *testing.T) {
	assert.True(t, IsDuplicateIdentity(NewDuplicateIdentityError("element", "e1")))
	assert.True(t, IsNotFound(NewNotFoundError("link", "l1")))
	assert.True(t, IsDanglingEndpoint(NewDanglingEndpointError("l1", "ghost")))
	assert.True(t, IsProvider(NewProviderError("fetch", errors.New("boom"))))
	assert.True(t, IsLayoutTimeout(NewLayoutTimeoutError(7)))
	assert.True(t, IsProtocolMismatch(NewProtocolMismatchError(1, 2)))

	assert.False(t, IsNotFound(NewDuplicateIdentityError("element", "e1")))
	assert.False(t, IsNotFound(errors.New("plain")))
}

func TestRetryableSplit(t *testing.T) {
	assert.True(t, IsRetryable(NewProviderError("fetch", errors.New("boom"))))
	assert.True(t, IsRetryable(NewLayoutTimeoutError(1)))
	assert.False(t, IsRetryable(NewNotFoundError("element", "e1")))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestWrapPreservesAppErrorThroughChain(t *testing.T) {
	inner := NewNotFoundError("element", "e1")
	wrapped := Wrap(fmt.Errorf("loading diagram: %w", inner), "request failed")

	require.True(t, IsNotFound(wrapped))
	assert.Contains(t, wrapped.Error(), "request failed")
}

func TestWrapPlainErrorBecomesInternal(t *testing.T) {
	wrapped := Wrap(errors.New("disk full"), "export failed")

	appErr := GetAppError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrorTypeInternal, appErr.Type)
	assert.ErrorContains(t, appErr.Unwrap(), "disk full")

	assert.NoError(t, Wrap(nil, "ignored"))
}

func TestHandlerWritesStatusAndBody(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)

	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/v1/elements/e1", nil)
	h.Handle(rec, r, NewNotFoundError("element", "e1"))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Error)
	assert.Equal(t, string(ErrorTypeNotFound), body.Type)
	assert.Contains(t, body.Message, "e1")
}

func TestHandlerHidesPlainErrorsOutsideDebug(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)

	rec := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/v1/diagram", nil)
	h.Handle(rec, r, errors.New("connection string leaked"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection string")
}

func TestMiddlewareRecoversPanics(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	h.Middleware(next).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
