package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"panelsound/internal/service"
)

// SignInRequest is the operator sign-in payload.
type SignInRequest struct {
	Password string `json:"password" binding:"required" example:"hunter2"`
}

// bindJSONOrBadRequest binds the body into dst or writes a 400.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.log.Infow("http_bad_request_body", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// @Summary      Operator sign-in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      SignInRequest  true  "Operator password"
// @Success      200   {object}  map[string]string  "token"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string  "authorization disabled"
// @Router       /auth/sign-in [post]
func (h *Handler) signIn(c *gin.Context) {
	var input SignInRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	token, err := h.services.GenerateToken(input.Password)
	switch {
	case errors.Is(err, service.ErrAuthDisabled):
		c.JSON(http.StatusNotFound, gin.H{"error": "authorization is disabled"})
		return
	case err != nil:
		h.log.Infow("auth_sign_in_failed", "err", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
