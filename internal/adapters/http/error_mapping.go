package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kirillkom/studymate/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case isTooLarge(err):
		return http.StatusRequestEntityTooLarge
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrEmptyFile),
		domain.IsKind(err, domain.ErrNoTextFound),
		domain.IsKind(err, domain.ErrExtractionFailed):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrMalformedOutput),
		domain.IsKind(err, domain.ErrNoOutput):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// statusForResult maps the terminal stage of an action onto an HTTP status.
func statusForResult(result domain.OperationResult) int {
	switch result.Stage {
	case domain.StageCompleted:
		return http.StatusOK
	case domain.StageValidationFailed:
		return http.StatusBadRequest
	case domain.StageLoadFailed:
		return http.StatusUnprocessableEntity
	case domain.StageGenerationFailed:
		if domain.IsKind(result.Err, domain.ErrTemporary) {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func requestErrorMessage(err error) string {
	if isTooLarge(err) {
		return "The uploaded file is too large."
	}
	return domain.UserMessage(err)
}

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}
