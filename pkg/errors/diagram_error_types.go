package errors

import (
	"fmt"
	"net/http"
)

// Diagram-specific constructors. Local validation errors (duplicate identity,
// not found, dangling endpoint) are synchronous and recoverable by the caller.
// Asynchronous boundary errors (provider, layout) reject the corresponding
// operation only and are safe to retry.

// NewDuplicateIdentityError indicates an element or link id already exists
func NewDuplicateIdentityError(kind, id string) *AppError {
	return &AppError{
		Type:       ErrorTypeDuplicateIdentity,
		Message:    fmt.Sprintf("%s %q already exists", kind, id),
		Details:    map[string]interface{}{"kind": kind, "id": id},
		HTTPStatus: http.StatusConflict,
		StackTrace: captureStackTrace(),
	}
}

// NewNotFoundError indicates an element or link id is not in the diagram
func NewNotFoundError(kind, id string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("%s %q not found", kind, id),
		Details:    map[string]interface{}{"kind": kind, "id": id},
		HTTPStatus: http.StatusNotFound,
		StackTrace: captureStackTrace(),
	}
}

// NewDanglingEndpointError indicates a link references a missing element
func NewDanglingEndpointError(linkID, endpointID string) *AppError {
	return &AppError{
		Type:       ErrorTypeDanglingEndpoint,
		Message:    fmt.Sprintf("link %q references missing element %q", linkID, endpointID),
		Details:    map[string]interface{}{"link_id": linkID, "endpoint_id": endpointID},
		HTTPStatus: http.StatusUnprocessableEntity,
		StackTrace: captureStackTrace(),
	}
}

// NewProviderError wraps a data provider fetch failure
func NewProviderError(operation string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeProvider,
		Message:    fmt.Sprintf("provider operation '%s' failed", operation),
		Cause:      err,
		Retryable:  true,
		HTTPStatus: http.StatusBadGateway,
		StackTrace: captureStackTrace(),
	}
}

// NewLayoutTimeoutError indicates the layout worker did not respond in time
func NewLayoutTimeoutError(sequence uint64) *AppError {
	return &AppError{
		Type:       ErrorTypeLayoutTimeout,
		Message:    fmt.Sprintf("layout request %d timed out", sequence),
		Details:    map[string]interface{}{"sequence": sequence},
		Retryable:  true,
		HTTPStatus: http.StatusGatewayTimeout,
		StackTrace: captureStackTrace(),
	}
}

// NewProtocolMismatchError indicates a layout response carried an
// incompatible protocol version; it is fatal for that call only
func NewProtocolMismatchError(want, got int) *AppError {
	return &AppError{
		Type:       ErrorTypeProtocolMismatch,
		Message:    fmt.Sprintf("layout protocol version mismatch: want %d, got %d", want, got),
		Details:    map[string]interface{}{"want": want, "got": got},
		Retryable:  true,
		HTTPStatus: http.StatusBadGateway,
		StackTrace: captureStackTrace(),
	}
}
