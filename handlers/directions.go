package handlers

import (
	"context"
	"net/http"

	"bookme/services/reminder"

	"github.com/gin-gonic/gin"
)

// TravelEstimator estimates travel time between two addresses.
type TravelEstimator interface {
	EstimateTravelTime(ctx context.Context, origin, destination string) (string, error)
}

// ReminderRunner triggers an immediate reminder sweep.
type ReminderRunner interface {
	RunNow(ctx context.Context) (reminder.SweepReport, error)
}

type OpsHandler struct {
	directions TravelEstimator
	reminders  ReminderRunner
}

// NewOpsHandler wires the travel-time and reminder endpoints. A nil runner means
// reminders are disabled on this instance.
func NewOpsHandler(directions TravelEstimator, reminders ReminderRunner) *OpsHandler {
	return &OpsHandler{directions: directions, reminders: reminders}
}

type travelTimeRequest struct {
	Origin      string `json:"origin" binding:"required"`
	Destination string `json:"destination" binding:"required"`
}

// TravelTime returns the current driving time between two addresses.
func (h *OpsHandler) TravelTime(c *gin.Context) {
	var req travelTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	duration, err := h.directions.EstimateTravelTime(c.Request.Context(), req.Origin, req.Destination)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"origin":      req.Origin,
		"destination": req.Destination,
		"duration":    duration,
	})
}

// RunReminders performs one reminder sweep now and returns its report.
func (h *OpsHandler) RunReminders(c *gin.Context) {
	if h.reminders == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": "reminders are disabled"})
		return
	}
	report, err := h.reminders.RunNow(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
