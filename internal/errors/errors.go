package errors

import (
	"errors"
	"fmt"

	"github.com/kurihiro0119/opendata-harvester/internal/domain"
)

// ErrCode represents an error code
type ErrCode string

const (
	ErrCodePagination ErrCode = "PAGINATION_ERROR"
	ErrCodeFetch      ErrCode = "FETCH_ERROR"
	ErrCodeMapping    ErrCode = "MAPPING_ERROR"
	ErrCodeReconcile  ErrCode = "RECONCILE_ERROR"

	ErrCodeNotFound     ErrCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrCode = "UNAUTHORIZED"
	ErrCodeBadRequest   ErrCode = "BAD_REQUEST"
	ErrCodeConflict     ErrCode = "CONFLICT"
	ErrCodeInternal     ErrCode = "INTERNAL_ERROR"
)

// AppError represents an application error
type AppError struct {
	Code      ErrCode
	Message   string
	Stage     domain.Stage // pipeline stage for harvest errors
	RemoteID  string       // remote identifier for item-level errors
	Retryable bool
	Err       error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewPaginationError creates a job-fatal listing error
func NewPaginationError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodePagination,
		Message: message,
		Stage:   domain.StageGather,
		Err:     err,
	}
}

// NewFetchError creates an item-level detail fetch error
func NewFetchError(remoteID, message string, retryable bool, err error) *AppError {
	return &AppError{
		Code:      ErrCodeFetch,
		Message:   message,
		Stage:     domain.StageFetch,
		RemoteID:  remoteID,
		Retryable: retryable,
		Err:       err,
	}
}

// NewMappingError creates an item-level mapping error; never retried
func NewMappingError(remoteID, message string) *AppError {
	return &AppError{
		Code:     ErrCodeMapping,
		Message:  message,
		Stage:    domain.StageImport,
		RemoteID: remoteID,
	}
}

// NewReconcileError creates an item-level destination write error
func NewReconcileError(remoteID, message string, err error) *AppError {
	return &AppError{
		Code:     ErrCodeReconcile,
		Message:  message,
		Stage:    domain.StageImport,
		RemoteID: remoteID,
		Err:      err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeUnauthorized,
		Message: message,
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// Code extracts the error code, defaulting to INTERNAL_ERROR
func Code(err error) ErrCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return Code(err) == ErrCodeNotFound
}

// IsRetryable checks if the error may succeed on another attempt
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// StageOf extracts the pipeline stage from a harvest error
func StageOf(err error) domain.Stage {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Stage != "" {
		return appErr.Stage
	}
	return domain.StageImport
}
