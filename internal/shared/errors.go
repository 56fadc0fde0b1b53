package shared

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a typed application error carrying a stable machine-readable
// code and the HTTP status it maps to.
type AppError struct {
	Code    string
	Status  int
	Message string
	Details any

	cause *AppError
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap links a derived error back to its sentinel so errors.Is keeps working.
func (e *AppError) Unwrap() error {
	if e.cause == nil {
		return nil
	}
	return e.cause
}

// NewAppError constructs an AppError.
func NewAppError(code string, status int, message string) *AppError {
	return &AppError{Code: code, Status: status, Message: message}
}

// WithDetails attaches structured detail to a copy of the error.
func (e *AppError) WithDetails(details any) *AppError {
	clone := *e
	clone.Details = details
	clone.cause = e
	return &clone
}

// WithMessage overrides the message on a copy of the error.
func (e *AppError) WithMessage(format string, args ...any) *AppError {
	clone := *e
	clone.Message = fmt.Sprintf(format, args...)
	clone.cause = e
	return &clone
}

// AsAppError extracts an *AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

var (
	// ErrValidation indicates malformed input.
	ErrValidation = NewAppError("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	// ErrInvalidID indicates a malformed identifier.
	ErrInvalidID = NewAppError("INVALID_ID", http.StatusBadRequest, "invalid identifier")
	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = NewAppError("UNAUTHORIZED", http.StatusUnauthorized, "authentication required")
	// ErrForbidden indicates the caller lacks the required role.
	ErrForbidden = NewAppError("FORBIDDEN", http.StatusForbidden, "insufficient permissions")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = NewAppError("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")

	// ErrAccountNotFound indicates a missing account for the tenant.
	ErrAccountNotFound = NewAppError("ACCOUNT_NOT_FOUND", http.StatusNotFound, "account not found")
	// ErrDuplicateAccountCode indicates a unique-code violation.
	ErrDuplicateAccountCode = NewAppError("DUPLICATE_ACCOUNT_CODE", http.StatusConflict, "account with this code already exists")
	// ErrParentCycle indicates the parent reference would create a cycle.
	ErrParentCycle = NewAppError("PARENT_CYCLE", http.StatusBadRequest, "parent account reference creates a cycle")
	// ErrInvalidAccount indicates a line references a missing or inactive account.
	ErrInvalidAccount = NewAppError("INVALID_ACCOUNT", http.StatusBadRequest, "account not found or inactive")

	// ErrJournalNotFound indicates a missing journal entry for the tenant.
	ErrJournalNotFound = NewAppError("JOURNAL_ENTRY_NOT_FOUND", http.StatusNotFound, "journal entry not found")
	// ErrInvalidJournalEntry indicates the debit/credit totals do not balance.
	ErrInvalidJournalEntry = NewAppError("INVALID_JOURNAL_ENTRY", http.StatusBadRequest, "total debit must equal total credit")
	// ErrDuplicateJournalNumber indicates a unique entry-number violation.
	ErrDuplicateJournalNumber = NewAppError("DUPLICATE_JOURNAL_NUMBER", http.StatusConflict, "journal entry with this number already exists")
	// ErrEntryAlreadyPosted indicates the entry was posted before.
	ErrEntryAlreadyPosted = NewAppError("ENTRY_ALREADY_POSTED", http.StatusConflict, "journal entry is already posted")
	// ErrEntryNotPosted indicates an operation requiring a posted entry.
	ErrEntryNotPosted = NewAppError("ENTRY_NOT_POSTED", http.StatusBadRequest, "only posted journal entries can be reversed")
	// ErrCannotUpdatePosted indicates an update against a posted entry.
	ErrCannotUpdatePosted = NewAppError("CANNOT_UPDATE_POSTED_ENTRY", http.StatusConflict, "cannot update posted journal entries")

	// ErrBudgetNotFound indicates a missing budget for the tenant.
	ErrBudgetNotFound = NewAppError("BUDGET_NOT_FOUND", http.StatusNotFound, "budget not found")
	// ErrSnapshotNotFound indicates a missing variance snapshot.
	ErrSnapshotNotFound = NewAppError("SNAPSHOT_NOT_FOUND", http.StatusNotFound, "variance snapshot not found")
	// ErrInvalidState indicates an operation illegal for the current status.
	ErrInvalidState = NewAppError("INVALID_STATE", http.StatusConflict, "operation not allowed in current status")

	// ErrUserNotFound indicates a missing user.
	ErrUserNotFound = NewAppError("USER_NOT_FOUND", http.StatusNotFound, "user not found")

	// ErrInternal is the fallback for unexpected failures.
	ErrInternal = NewAppError("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)
