package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/campusledger/campusledger/internal/shared"
)

// RespondError maps application errors to the JSON error envelope. Unexpected
// errors collapse to a generic 500 so internals never leak to clients.
func RespondError(w http.ResponseWriter, err error) {
	if appErr, ok := shared.AsAppError(err); ok {
		Fail(w, appErr.Status, appErr.Code, appErr.Message, appErr.Details)
		return
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make(map[string]string, len(validationErrs))
		for _, fieldErr := range validationErrs {
			details[fieldErr.Field()] = fieldErr.Tag()
		}
		Fail(w, http.StatusBadRequest, shared.ErrValidation.Code, shared.ErrValidation.Message, details)
		return
	}

	Fail(w, http.StatusInternalServerError, shared.ErrInternal.Code, shared.ErrInternal.Message, nil)
}

// BadRequest is a convenience for malformed request bodies.
func BadRequest(w http.ResponseWriter, message string) {
	Fail(w, http.StatusBadRequest, shared.ErrValidation.Code, message, nil)
}
