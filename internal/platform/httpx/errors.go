package httpx

import (
	"errors"
	"net/http"

	"github.com/sliceline/sliceline/internal/shared"
)

// RespondError maps the core error taxonomy onto wire status codes. Nothing
// below the HTTP layer encodes a status code itself.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrAuthentication):
		JSON(w, http.StatusUnauthorized, Message{Message: detail(err, "unauthorized")})
	case errors.Is(err, shared.ErrAuthorization):
		JSON(w, http.StatusForbidden, Message{Message: detail(err, "forbidden")})
	case errors.Is(err, shared.ErrNotFound):
		JSON(w, http.StatusNotFound, Message{Message: detail(err, "not found")})
	case errors.Is(err, shared.ErrConflict):
		JSON(w, http.StatusConflict, Message{Message: detail(err, "conflict")})
	case errors.Is(err, shared.ErrDependency), errors.Is(err, shared.ErrInfrastructure):
		JSON(w, http.StatusInternalServerError, Message{Message: detail(err, "internal error")})
	default:
		JSON(w, http.StatusInternalServerError, Message{Message: "internal error"})
	}
}

func detail(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
