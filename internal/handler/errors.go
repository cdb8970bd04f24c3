package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/annolab/metahub/internal/access"
	"github.com/annolab/metahub/internal/resputil"
)

// transitionError maps the engine's error taxonomy onto HTTP statuses.
func transitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, access.ErrUnauthorized):
		resputil.HTTPError(c, http.StatusUnauthorized, err.Error(), resputil.UserNotAllowed)
	case errors.Is(err, access.ErrNotFound):
		resputil.HTTPError(c, http.StatusNotFound, err.Error(), resputil.TargetNotFound)
	case errors.Is(err, access.ErrConflict):
		resputil.HTTPError(c, http.StatusConflict, err.Error(), resputil.AlreadyExists)
	default:
		resputil.Error(c, err.Error(), resputil.NotSpecified)
	}
}
