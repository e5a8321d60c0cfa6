package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Order endpoints
	CreateBookingHandler        gin.HandlerFunc
	CreateCompanyBookingHandler gin.HandlerFunc
	GetBookingHandler           gin.HandlerFunc
	RescheduleBookingHandler    gin.HandlerFunc
	UpdateBookingStatusHandler  gin.HandlerFunc
	DeleteBookingHandler        gin.HandlerFunc
	ListBookingsHandler         gin.HandlerFunc
	ListCompanyBookingsHandler  gin.HandlerFunc
	ListEmployeeBookingsHandler gin.HandlerFunc
	ListUserBookingsHandler     gin.HandlerFunc

	// Employee calendar endpoints
	GetCatalogHandler   gin.HandlerFunc
	GetDurationsHandler gin.HandlerFunc
	PrecheckHandler     gin.HandlerFunc

	// Operational endpoints
	TravelTimeHandler   gin.HandlerFunc
	RunRemindersHandler gin.HandlerFunc
	HealthHandler       gin.HandlerFunc
}

// NewHandlerBundle assembles the bundle from the individual handlers.
func NewHandlerBundle(bookings *BookingHandler, catalog *CatalogHandler, ops *OpsHandler, health gin.HandlerFunc) *HandlerBundle {
	return &HandlerBundle{
		CreateBookingHandler:        bookings.CreateBooking,
		CreateCompanyBookingHandler: bookings.CreateCompanyBooking,
		GetBookingHandler:           bookings.GetBooking,
		RescheduleBookingHandler:    bookings.RescheduleBooking,
		UpdateBookingStatusHandler:  bookings.UpdateBookingStatus,
		DeleteBookingHandler:        bookings.DeleteBooking,
		ListBookingsHandler:         bookings.ListBookings,
		ListCompanyBookingsHandler:  bookings.ListCompanyBookings,
		ListEmployeeBookingsHandler: bookings.ListEmployeeBookings,
		ListUserBookingsHandler:     bookings.ListUserBookings,

		GetCatalogHandler:   catalog.GetCatalog,
		GetDurationsHandler: catalog.GetDurations,
		PrecheckHandler:     catalog.Precheck,

		TravelTimeHandler:   ops.TravelTime,
		RunRemindersHandler: ops.RunReminders,
		HealthHandler:       health,
	}
}
