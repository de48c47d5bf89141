package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeDependency       = "DEPENDENCY_ERROR"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrInvalidPromptStatus    = NewDomainError(ErrCodeValidation, "invalid prompt status")
	ErrMissingRequiredField   = NewDomainError(ErrCodeValidation, "missing required field")
	ErrEmbeddingChunkMismatch = NewDomainError(ErrCodeValidation, "embeddings and text chunks must have the same length")
	ErrInvalidOperationKind   = NewDomainError(ErrCodeValidation, "invalid audit operation kind")
	ErrInvalidScoreThreshold  = NewDomainError(ErrCodeValidation, "score threshold must be between 0 and 1")
	ErrEmptyQuery             = NewDomainError(ErrCodeValidation, "query text cannot be empty")
)

// Not found errors
var (
	ErrPromptNotFound        = NewDomainError(ErrCodeNotFound, "prompt not found")
	ErrPromptVersionNotFound = NewDomainError(ErrCodeNotFound, "prompt version not found")
	ErrNoActivePrompt        = NewDomainError(ErrCodeNotFound, "no active published prompt for section")
)

// Already exists errors
var (
	ErrPromptAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "a prompt with this section, sub-section and name already exists")
)

// Authorization errors
var (
	ErrInvalidAPIToken = NewDomainError(ErrCodeUnauthorized, "invalid api token")
)

// Operation errors
var (
	ErrAlreadyPublished = NewDomainError(ErrCodeInvalidOperation, "prompt version is already published")
)

// Dependency errors
var (
	ErrStorageOperationFail = NewDomainError(ErrCodeDependency, "storage operation failed")
	ErrEmbeddingFail        = NewDomainError(ErrCodeDependency, "embedding model call failed")
	ErrGenerationFail       = NewDomainError(ErrCodeDependency, "generation model call failed")
)
