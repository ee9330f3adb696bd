package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/alumnisphere/internal/app/models/dto"
)

// Pinger is anything whose connectivity can be checked
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController reports backend connectivity
type HealthController struct {
	checks map[string]Pinger
}

// NewHealthController creates a HealthController over named dependencies; nil entries are skipped
func NewHealthController(checks map[string]Pinger) *HealthController {
	active := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			active[name] = p
		}
	}
	return &HealthController{checks: active}
}

// Health pings every dependency
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.APIResponse "All dependencies reachable"
// @Failure 503 {object} dto.APIResponse "A dependency is unreachable"
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string, len(c.checks))
	for name, p := range c.checks {
		if err := p.Ping(reqCtx); err != nil {
			components[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "up"
	}

	resp := dto.NewSuccessResponse(gin.H{"status": statusText(status), "components": components})
	resp.Success = status == http.StatusOK
	ctx.JSON(status, resp)
}

func statusText(status int) string {
	if status == http.StatusOK {
		return "ok"
	}
	return "degraded"
}
