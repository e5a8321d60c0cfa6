package handlers

import (
	"net/http"

	"bookme/utils"

	"github.com/gin-gonic/gin"
)

// HealthReporter exposes the latest dependency health snapshot.
type HealthReporter interface {
	Status() utils.HealthStatus
}

// Health answers 200 while both stores are reachable and 503 otherwise.
func Health(monitor HealthReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := monitor.Status()
		code := http.StatusOK
		status := "ok"
		if !s.Mongo || !s.Redis {
			code = http.StatusServiceUnavailable
			status = "degraded"
		}
		c.JSON(code, gin.H{"status": status, "mongo": s.Mongo, "redis": s.Redis, "checkedAt": s.CheckedAt})
	}
}
