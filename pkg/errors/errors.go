package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors
var (
	ErrLoanNotFound         = errors.New("loan not found")
	ErrValidation           = errors.New("validation failed")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrUploadTokenInvalid   = errors.New("upload token is invalid or expired")
	ErrUploadRejected       = errors.New("upload rejected")
	ErrBlobStore            = errors.New("blob store operation failed")
	ErrNothingToUpdate      = errors.New("no fields to update")
	ErrBulkDeleteIncomplete = errors.New("some deletions failed")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeLoanNotFound       = "LOAN_NOT_FOUND"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeStoreUnavailable   = "STORE_UNAVAILABLE"
	ErrCodeDatabaseError      = "DATABASE_ERROR"
	ErrCodeCacheError         = "CACHE_ERROR"
	ErrCodeUploadTokenInvalid = "UPLOAD_TOKEN_INVALID"
	ErrCodeUploadRejected     = "UPLOAD_REJECTED"
	ErrCodeBlobStoreError     = "BLOB_STORE_ERROR"
)

// Wrap common errors with business context
func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapValidation(message string) *BusinessError {
	return NewBusinessError(
		ErrCodeValidation,
		message,
		ErrValidation,
	)
}

func WrapInvalidRequest(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidRequest,
		"request body could not be decoded",
		errors.Join(ErrInvalidRequest, err),
	)
}

func WrapNothingToUpdate() *BusinessError {
	return NewBusinessError(
		ErrCodeValidation,
		"patch contains no fields",
		ErrNothingToUpdate,
	)
}

// WrapDatabaseError passes through errors that already carry business context
// so a not-found or unavailable store is not reported as a generic failure.
func WrapDatabaseError(err error) *BusinessError {
	var be *BusinessError
	if errors.As(err, &be) {
		return be
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return WrapStoreUnavailable(err)
	}
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapStoreUnavailable(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeStoreUnavailable,
		"loan store is unreachable",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}

func WrapUploadTokenInvalid(token string) *BusinessError {
	return NewBusinessError(
		ErrCodeUploadTokenInvalid,
		fmt.Sprintf("Upload token %s is invalid or expired", token),
		ErrUploadTokenInvalid,
	)
}

func WrapUploadRejected(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeUploadRejected,
		reason,
		ErrUploadRejected,
	)
}

func WrapBlobStoreError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeBlobStoreError,
		"blob store operation failed",
		errors.Join(ErrBlobStore, err),
	)
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	var be *BusinessError
	if !errors.As(err, &be) {
		return http.StatusInternalServerError
	}

	switch be.Code {
	case ErrCodeValidation, ErrCodeInvalidRequest, ErrCodeUploadRejected:
		return http.StatusBadRequest
	case ErrCodeLoanNotFound, ErrCodeUploadTokenInvalid:
		return http.StatusNotFound
	case ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeBlobStoreError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
