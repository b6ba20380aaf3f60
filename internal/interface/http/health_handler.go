package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const appVersion = "1.0.0"

type HealthHandler struct {
	AppName string
	Env     string
}

func NewHealthHandler(appName, env string) *HealthHandler {
	return &HealthHandler{AppName: appName, Env: env}
}

// Health GET /api/
func (h *HealthHandler) Health(c *gin.Context) {
	c.String(http.StatusOK, "%s is running!", h.AppName)
}

// Version GET /api/version
func (h *HealthHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":     appVersion,
		"name":        h.AppName,
		"environment": h.Env,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}
