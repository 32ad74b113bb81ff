package http

import (
	"errors"
	"net/http"

	"budget/internal/auth"
	"budget/internal/core"
	"budget/internal/export"
	"budget/internal/log"
	"budget/internal/services"
)

// writeError is the single place domain errors become HTTP statuses.
// Anything unrecognised is logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.FromContext(r.Context())

	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		ValidationFailed(ve.Field, ve.Message).Write(w)
	case errors.Is(err, core.ErrValidation):
		ValidationFailed("", err.Error()).Write(w)
	case errors.Is(err, export.ErrUnknownFormat):
		ValidationFailed("format", "must be csv or xlsx").Write(w)
	case errors.Is(err, errMalformedBody):
		BadRequestError("Malformed request body.").Write(w)
	case errors.Is(err, core.ErrNotFound):
		NotFoundError().Write(w)
	case errors.Is(err, core.ErrAlreadyExists):
		ErrorResponse(http.StatusConflict, "Already exists.").Write(w)
	case errors.Is(err, core.ErrInvalidCredentials):
		UnauthorizedError("Invalid username or password.").Write(w)
	case errors.Is(err, auth.ErrInvalidSession):
		UnauthorizedError("Authentication required.").Write(w)
	case errors.Is(err, services.ErrSelfDelete):
		ForbiddenError("You cannot delete yourself.").Write(w)
	case errors.Is(err, core.ErrPermissionDenied):
		ForbiddenError("Permission denied.").Write(w)
	default:
		logger.LogError(r.Context(), "Request failed", err, r.Method+" "+r.URL.Path,
			log.NewFields().WithErrorType(log.ErrorTypeInternal))
		InternalServerError().Write(w)
	}
}
