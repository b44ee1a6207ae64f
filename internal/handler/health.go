package handler

import (
	"net/http"

	"github.com/Payphone-Digital/accounts/pkg/health"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	monitor *health.Monitor
	version string
}

func NewHealthHandler(monitor *health.Monitor, version string) *HealthHandler {
	return &HealthHandler{monitor: monitor, version: version}
}

// HealthCheck runs every checker now. 503 when a critical dependency is down.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	report := h.monitor.CheckAll(c.Request.Context())

	status := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":    report.Status,
		"version":   h.version,
		"timestamp": report.Timestamp,
		"checks":    report.Checks,
	})
}

// BasicHealth serves the cached report for load balancers.
func (h *HealthHandler) BasicHealth(c *gin.Context) {
	report := h.monitor.Report()
	c.JSON(http.StatusOK, gin.H{
		"status":    report.Status,
		"version":   h.version,
		"timestamp": report.Timestamp,
	})
}
