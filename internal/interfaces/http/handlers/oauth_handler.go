// Package handlers provides the HTTP request handlers and middleware of the
// relay's gin surface.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studioconnect/relay/internal/application/dto"
	"github.com/studioconnect/relay/internal/application/service"
	"github.com/studioconnect/relay/internal/interfaces/http/templates"
	apperrors "github.com/studioconnect/relay/pkg/errors"
	"github.com/studioconnect/relay/pkg/logger"
)

// OAuthHandler exposes the four coordinator operations over HTTP.
type OAuthHandler struct {
	oauth service.OAuthService
	log   logger.Logger
}

// NewOAuthHandler creates the handler.
func NewOAuthHandler(oauth service.OAuthService, log logger.Logger) *OAuthHandler {
	return &OAuthHandler{
		oauth: oauth,
		log:   log.WithComponent("handler"),
	}
}

// Init handles POST /:provider/init.
func (h *OAuthHandler) Init(c *gin.Context) {
	var req dto.InitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, apperrors.ErrInvalidJSON())
		return
	}

	resp, err := h.oauth.Init(c.Request.Context(), c.Param("provider"), req.SessionID, c.ClientIP())
	if err != nil {
		dto.SendError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Callback handles GET /:provider/callback, the provider's browser
// redirect. Its machine-readable contract is the state transition on the
// session store; the response itself is a human-facing HTML page.
func (h *OAuthHandler) Callback(c *gin.Context) {
	// Providers report user denial through an error query parameter
	// instead of a code.
	if provErr := c.Query("error"); provErr != "" {
		h.renderErrorPage(c, http.StatusBadRequest, "The authorization request was denied: "+provErr)
		return
	}

	err := h.oauth.Callback(
		c.Request.Context(),
		c.Param("provider"),
		c.Query("code"),
		c.Query("state"),
		c.ClientIP(),
	)
	if err != nil {
		appErr := apperrors.AsAppError(err)
		h.renderErrorPage(c, appErr.Status, appErr.Message)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", templates.Success())
}

// Poll handles GET /:provider/poll.
func (h *OAuthHandler) Poll(c *gin.Context) {
	resp, err := h.oauth.Poll(c.Request.Context(), c.Param("provider"), c.Query("session_id"))
	if err != nil {
		dto.SendError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Exchange handles POST /:provider/exchange.
func (h *OAuthHandler) Exchange(c *gin.Context) {
	var req dto.ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, apperrors.ErrInvalidJSON())
		return
	}

	resp, err := h.oauth.Exchange(c.Request.Context(), c.Param("provider"), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OAuthHandler) renderErrorPage(c *gin.Context, status int, message string) {
	c.Data(status, "text/html; charset=utf-8", templates.Error(message))
}
