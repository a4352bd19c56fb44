package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/handbook/internal/app/models/dto"
)

// Pinger is a backing service the health check probes
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse reports the state of each backing service
type HealthResponse struct {
	Status   string            `json:"status" example:"ok"`
	Services map[string]string `json:"services"`
}

// HealthController answers liveness and readiness probes
type HealthController struct {
	checks  map[string]Pinger
	timeout time.Duration
}

// NewHealthController creates a HealthController probing the named services
func NewHealthController(checks map[string]Pinger) *HealthController {
	return &HealthController{checks: checks, timeout: 2 * time.Second}
}

// Ping godoc
// @Summary Liveness probe
// @Tags health
// @Produce plain
// @Success 200 {string} string "pong"
// @Router /ping [get]
func (c *HealthController) Ping(ctx *gin.Context) {
	ctx.String(http.StatusOK, "pong")
}

// Health godoc
// @Summary Readiness probe
// @Description Pings the database and the cache
// @Tags health
// @Produce json
// @Success 200 {object} dto.APIResponse{data=HealthResponse}
// @Failure 503 {object} dto.APIResponse{data=HealthResponse}
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	probeCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Services: make(map[string]string, len(c.checks))}
	for name, check := range c.checks {
		if err := check.Ping(probeCtx); err != nil {
			resp.Services[name] = err.Error()
			resp.Status = "degraded"
			continue
		}
		resp.Services[name] = "ok"
	}

	status := http.StatusOK
	out := dto.NewSuccessResponse(resp)
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
		out.Success = false
	}
	ctx.JSON(status, out)
}
