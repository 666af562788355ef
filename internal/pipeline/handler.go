package pipeline

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"governance-backend/internal/shared/server/respond"
)

// Handler exposes the manual harvest trigger.
type Handler struct {
	Scheduler *Scheduler
}

// NewHandler constructs a Handler.
func NewHandler(scheduler *Scheduler) *Handler {
	return &Handler{Scheduler: scheduler}
}

// RegisterRoutes mounts the pipeline endpoints on a router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/harvest/trigger", h.trigger)
}

type triggerRequest struct {
	Force bool `json:"force"`
}

func (h *Handler) trigger(c *gin.Context) {
	var req triggerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "invalid_body", "body must be JSON with an optional force flag", nil)
			return
		}
	}

	report, err := h.Scheduler.Trigger(c.Request.Context(), req.Force)
	if err != nil {
		if errors.Is(err, ErrCycleInProgress) {
			respond.Error(c, http.StatusConflict, "cycle_in_progress", "a harvest cycle is already running", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "cycle_failed", err.Error(), nil)
		return
	}

	respond.OK(c, gin.H{
		"reportId": report.ID,
		"harvest":  report.Harvest,
	})
}
