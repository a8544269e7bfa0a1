package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/rpgcraft/game/craft"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, craft.ErrMaterialNotFound),
		errors.Is(err, craft.ErrUnknownArchetype),
		errors.Is(err, craft.ErrUnknownComponent),
		errors.Is(err, craft.ErrUnknownFamily),
		errors.Is(err, craft.ErrCraftNotFound):
		return http.StatusNotFound
	case errors.Is(err, craft.ErrInsufficientMaterials),
		errors.Is(err, craft.ErrInvalidArchetypeForOperation),
		errors.Is(err, craft.ErrInvalidParameter):
		return http.StatusUnprocessableEntity
	case errors.Is(err, craft.ErrBannedName):
		return http.StatusBadRequest
	case errors.Is(err, craft.ErrCraftBlocked):
		return http.StatusForbidden
	case errors.Is(err, craft.ErrDataSourceUnavailable),
		errors.Is(err, craft.ErrMalformedData):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON and attaches it to the context so the
// request logger picks it up. Internal errors are not echoed to the client.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg, "kind": craft.ErrorKind(err)})
}
