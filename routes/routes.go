package routes

import (
	"time"

	"bookme/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterOrderRoutes registers booking endpoints.
func RegisterOrderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/order")
	{
		api.POST("", hb.CreateBookingHandler)
		api.GET("", hb.ListBookingsHandler)
		api.POST("/company", hb.CreateCompanyBookingHandler)
		api.GET("/company/:id", hb.ListCompanyBookingsHandler)
		api.GET("/employee/:id", hb.ListEmployeeBookingsHandler)
		api.GET("/user/:id", hb.ListUserBookingsHandler)
		api.GET("/:id", hb.GetBookingHandler)
		api.PUT("/:id", hb.RescheduleBookingHandler)
		api.PATCH("/:id/status", hb.UpdateBookingStatusHandler)
		api.DELETE("/:id", hb.DeleteBookingHandler)
	}
}

// RegisterEmployeeRoutes registers the employee calendar endpoints.
func RegisterEmployeeRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/employees/:id")
	{
		api.GET("/catalog", hb.GetCatalogHandler)
		api.GET("/durations", hb.GetDurationsHandler)
		api.POST("/precheck", hb.PrecheckHandler)
	}
}

// RegisterOpsRoutes registers travel-time and reminder endpoints.
func RegisterOpsRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/directions/travel-time", hb.TravelTimeHandler)
	r.POST("/api/reminders/run", hb.RunRemindersHandler)
}

// RegisterHealthRoute registers the health and metrics endpoints.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle, gatherer prometheus.Gatherer) {
	r.GET("/health", hb.HealthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, gatherer prometheus.Gatherer) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterOrderRoutes(r, hb)
	RegisterEmployeeRoutes(r, hb)
	RegisterOpsRoutes(r, hb)
	RegisterHealthRoute(r, hb, gatherer)
}
