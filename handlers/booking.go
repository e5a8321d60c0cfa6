package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bookme/models"
	"bookme/services/ledger"
	"bookme/services/reminder"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingLedger is the booking surface used by the order endpoints.
type BookingLedger interface {
	Create(ctx context.Context, in ledger.CreateInput) (*models.Booking, error)
	Get(ctx context.Context, id string) (*models.Booking, error)
	Reschedule(ctx context.Context, id string, start time.Time, duration int) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus) (*models.Booking, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f models.BookingFilter) ([]models.Booking, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]models.Booking, error)
	ListByCompany(ctx context.Context, companyID string) ([]models.Booking, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error)
}

type BookingHandler struct {
	ledger BookingLedger
	loc    *time.Location
}

func NewBookingHandler(l BookingLedger, loc *time.Location) *BookingHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingHandler{ledger: l, loc: loc}
}

type createBookingRequest struct {
	EmployeeID   string               `json:"employee" binding:"required"`
	CompanyID    string               `json:"company"`
	UserID       string               `json:"user"`
	SelectedTime string               `json:"selectedTime" binding:"required"`
	Duration     int                  `json:"duration" binding:"gte=0,lte=1440"`
	Status       models.BookingStatus `json:"status"`
}

type rescheduleRequest struct {
	SelectedTime string `json:"selectedTime" binding:"required"`
	Duration     int    `json:"duration" binding:"gte=0,lte=1440"`
}

type statusRequest struct {
	Status models.BookingStatus `json:"status" binding:"required"`
}

// CreateBooking books on behalf of a customer. New bookings start pending.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	h.create(c, models.StatusPending, false)
}

// CreateCompanyBooking books on behalf of a company. New bookings start confirmed.
func (h *BookingHandler) CreateCompanyBooking(c *gin.Context) {
	h.create(c, models.StatusConfirmed, true)
}

func (h *BookingHandler) create(c *gin.Context, defaultStatus models.BookingStatus, companyRequired bool) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if companyRequired && req.CompanyID == "" {
		badRequest(c, errors.New("company is required"))
		return
	}
	start, err := reminder.ParseSelectedTime(req.SelectedTime, h.loc)
	if err != nil {
		badRequest(c, err)
		return
	}
	status := req.Status
	if status == "" {
		status = defaultStatus
	}

	b, err := h.ledger.Create(c.Request.Context(), ledger.CreateInput{
		EmployeeID: req.EmployeeID,
		CompanyID:  req.CompanyID,
		CustomerID: req.UserID,
		Start:      start,
		Duration:   req.Duration,
		Status:     status,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Debug("booking accepted", zap.String("bookingId", b.ID))
	c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	b, err := h.ledger.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// RescheduleBooking moves a booking to a new time.
func (h *BookingHandler) RescheduleBooking(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	start, err := reminder.ParseSelectedTime(req.SelectedTime, h.loc)
	if err != nil {
		badRequest(c, err)
		return
	}

	b, err := h.ledger.Reschedule(c.Request.Context(), c.Param("id"), start, req.Duration)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) UpdateBookingStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	b, err := h.ledger.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	if err := h.ledger.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListBookings lists bookings narrowed by the optional company, employee, user
// and active query parameters.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	out, err := h.ledger.List(c.Request.Context(), models.BookingFilter{
		CompanyID:  c.Query("company"),
		EmployeeID: c.Query("employee"),
		CustomerID: c.Query("user"),
		ActiveOnly: c.Query("active") == "true",
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *BookingHandler) ListCompanyBookings(c *gin.Context) {
	h.list(c, h.ledger.ListByCompany)
}

func (h *BookingHandler) ListEmployeeBookings(c *gin.Context) {
	h.list(c, h.ledger.ListByEmployee)
}

func (h *BookingHandler) ListUserBookings(c *gin.Context) {
	h.list(c, h.ledger.ListByCustomer)
}

func (h *BookingHandler) list(c *gin.Context, fetch func(context.Context, string) ([]models.Booking, error)) {
	out, err := fetch(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
