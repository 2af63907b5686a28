package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"panelsound/internal/models"
	"panelsound/internal/service"
)

const (
	statusOK     = "ok"
	statusQueued = "queued"

	errGetState = "failed to load state"
)

// logAndJSONError logs err under logKey and writes userMsg with httpCode.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// InjectEventRequest documents the POST /api/v1/events payload. Value is
// passed through as sent: only JSON strings ever match routing values.
type InjectEventRequest struct {
	Component string `json:"component" example:"switch-31"`
	Action    string `json:"action" example:"switch"`
	Value     string `json:"value" example:"1"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Get panel state
// @Description  Latest recorded snapshot: key position, controller readiness, per-component last values.
// @Tags         panel
// @Produce      json
// @Success      200  {object}  models.PanelSnapshot
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/panel/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	st, err := h.services.Monitoring.GetState(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "panel_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Inject a panel event
// @Description  Queues the event as if it came from a serial port. Routing and audio happen asynchronously.
// @Tags         panel
// @Accept       json
// @Produce      json
// @Param        body  body      InjectEventRequest  true  "Panel event"
// @Success      202   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/events [post]
// @Security     BearerAuth
func (h *Handler) injectEvent(c *gin.Context) {
	var ev models.InboundEvent
	if ok := h.bindJSONOrBadRequest(c, &ev); !ok {
		return
	}

	err := h.services.Inject(ev)
	switch {
	case errors.Is(err, service.ErrInvalidEvent):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logAndJSONError(c, http.StatusServiceUnavailable, "event injection unavailable", "panel_inject_failed", err,
			"component", ev.Component)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": statusQueued})
}
