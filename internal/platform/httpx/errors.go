// Package httpx renders JSON responses and RFC7807 problem details.
package httpx

import (
	"errors"
	"net/http"

	"github.com/buensabor/buensabor-web/internal/shared"
)

// RespondError maps an error to a problem response. Backend statuses pass
// through; the detail is always the user-safe message.
func RespondError(w http.ResponseWriter, err error) {
	detail := shared.UserSafeMessage(err)
	var validation *shared.ValidationError
	var respErr shared.ResponseError
	switch {
	case errors.As(err, &validation):
		Problem(w, http.StatusUnprocessableEntity, "Validation Failed", detail)
	case errors.Is(err, shared.ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", detail)
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", detail)
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", detail)
	case errors.Is(err, shared.ErrBackendUnavailable):
		Problem(w, http.StatusBadGateway, "Backend Unavailable", detail)
	case errors.As(err, &respErr) && respErr.HTTPStatus() >= 400 && respErr.HTTPStatus() < 500:
		Problem(w, respErr.HTTPStatus(), http.StatusText(respErr.HTTPStatus()), detail)
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
