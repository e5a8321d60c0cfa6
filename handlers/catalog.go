package handlers

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"slices"
	"time"

	"bookme/models"
	"bookme/services/hours"
	"bookme/services/reminder"

	"github.com/gin-gonic/gin"
)

// CatalogService serves an employee's calendar view.
type CatalogService interface {
	Entries(ctx context.Context, employeeID string, from, to time.Time) (iter.Seq[models.CatalogEntry], error)
	Precheck(ctx context.Context, employeeID string, start time.Time, duration int) (hours.Verdict, error)
	DurationOptions(ctx context.Context, employeeID string) (models.DurationMenu, error)
}

type CatalogHandler struct {
	catalog CatalogService
	loc     *time.Location
}

func NewCatalogHandler(svc CatalogService, loc *time.Location) *CatalogHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &CatalogHandler{catalog: svc, loc: loc}
}

type catalogResponse struct {
	EmployeeID string                `json:"employeeId"`
	From       string                `json:"from"`
	To         string                `json:"to"`
	Entries    []models.CatalogEntry `json:"entries"`
}

// GetCatalog lists closed hours, lunch and bookings for every day in ?from=..&to=..
// (YYYY-MM-DD, inclusive).
func (h *CatalogHandler) GetCatalog(c *gin.Context) {
	from, err := h.day(c.Query("from"))
	if err != nil {
		badRequest(c, fmt.Errorf("from: %w", err))
		return
	}
	to, err := h.day(c.Query("to"))
	if err != nil {
		badRequest(c, fmt.Errorf("to: %w", err))
		return
	}

	seq, err := h.catalog.Entries(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	entries := slices.Collect(seq)
	if entries == nil {
		entries = []models.CatalogEntry{}
	}
	c.JSON(http.StatusOK, catalogResponse{
		EmployeeID: c.Param("id"),
		From:       from.Format(time.DateOnly),
		To:         to.Format(time.DateOnly),
		Entries:    entries,
	})
}

func (h *CatalogHandler) day(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	return time.ParseInLocation(time.DateOnly, raw, h.loc)
}

func (h *CatalogHandler) GetDurations(c *gin.Context) {
	menu, err := h.catalog.DurationOptions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, menu)
}

type precheckRequest struct {
	SelectedTime string `json:"selectedTime" binding:"required"`
	Duration     int    `json:"duration" binding:"gte=0,lte=1440"`
}

// Precheck reports whether a candidate slot looks bookable. The answer is advisory.
func (h *CatalogHandler) Precheck(c *gin.Context) {
	var req precheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	start, err := reminder.ParseSelectedTime(req.SelectedTime, h.loc)
	if err != nil {
		badRequest(c, err)
		return
	}

	v, err := h.catalog.Precheck(c.Request.Context(), c.Param("id"), start, req.Duration)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": v.Valid, "reason": v.Reason})
}
