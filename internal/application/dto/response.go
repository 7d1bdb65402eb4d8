package dto

import (
	"github.com/gin-gonic/gin"

	"github.com/studioconnect/relay/pkg/errors"
)

// ErrorBody is the uniform JSON error shape of the relay's API endpoints.
type ErrorBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// SendError writes err as a JSON error response. Application errors map to
// their own status and code; anything else becomes a generic 500 so that no
// internal detail leaks to the client.
func SendError(c *gin.Context, err error) {
	appErr := errors.AsAppError(err)
	c.AbortWithStatusJSON(appErr.Status, ErrorBody{OK: false, Error: appErr.Code})
}
