package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// maxBodyPreview bounds how much of an upstream body is echoed in messages
const maxBodyPreview = 512

// ErrorType classifies pipeline failures
type ErrorType string

const (
	ErrorTypeMissingInput      ErrorType = "missing_input"
	ErrorTypeUpstream          ErrorType = "upstream"
	ErrorTypeMalformedResponse ErrorType = "malformed_response"
	ErrorTypeMalformedNode     ErrorType = "malformed_node"
	ErrorTypeStorage           ErrorType = "storage"
	ErrorTypeUnknown           ErrorType = "unknown"
)

// MissingInputError is returned when a caller omits a required value
type MissingInputError struct {
	Field string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// UpstreamError is returned when the third-party API answers with a non-success
// status, or when the request could not be completed at all (Status 0).
type UpstreamError struct {
	Status int
	Body   string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("instagram request failed: %v", e.Err)
	}
	body := e.Body
	if len(body) > maxBodyPreview {
		body = body[:maxBodyPreview] + "..."
	}
	if body == "" {
		return fmt.Sprintf("instagram API error: %d", e.Status)
	}
	return fmt.Sprintf("instagram API error: %d - %s", e.Status, body)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// MalformedResponseError is returned when a success response lacks an expected field
type MalformedResponseError struct {
	Field string
	Err   error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed instagram response (%s): %v", e.Field, e.Err)
	}
	return fmt.Sprintf("malformed instagram response: missing %s", e.Field)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// MalformedNodeError is returned when a media node lacks its id or type tag
type MalformedNodeError struct {
	Field string
	Index int
}

func (e *MalformedNodeError) Error() string {
	return fmt.Sprintf("malformed media node at index %d: missing %s", e.Index, e.Field)
}

// StorageError wraps persistence failures
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps err, returning nil for a nil err
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// TypeOf returns the classification of err
func TypeOf(err error) ErrorType {
	var (
		missing  *MissingInputError
		upstream *UpstreamError
		response *MalformedResponseError
		node     *MalformedNodeError
		storage  *StorageError
	)
	switch {
	case err == nil:
		return ""
	case stderrors.As(err, &missing):
		return ErrorTypeMissingInput
	case stderrors.As(err, &upstream):
		return ErrorTypeUpstream
	case stderrors.As(err, &response):
		return ErrorTypeMalformedResponse
	case stderrors.As(err, &node):
		return ErrorTypeMalformedNode
	case stderrors.As(err, &storage):
		return ErrorTypeStorage
	default:
		return ErrorTypeUnknown
	}
}

// HTTPStatus maps err to the status the boundary answers with
func HTTPStatus(err error) int {
	switch TypeOf(err) {
	case ErrorTypeMissingInput:
		return http.StatusBadRequest
	case ErrorTypeUpstream, ErrorTypeMalformedResponse, ErrorTypeMalformedNode:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UpstreamStatus returns the upstream HTTP status carried by err, or 0
func UpstreamStatus(err error) int {
	var upstream *UpstreamError
	if stderrors.As(err, &upstream) {
		return upstream.Status
	}
	return 0
}
