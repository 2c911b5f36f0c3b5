package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pharens/pharens-ai/engine/core"
	"github.com/pharens/pharens-ai/engine/infra/server/appstate"
	"github.com/pharens/pharens-ai/pkg/logger"
)

const (
	statusHealthy     = "healthy"
	statusDegraded    = "degraded"
	healthCheckBudget = 2 * time.Second
)

// CreateHealthHandler reports liveness plus the state of optional backends.
// A failing backend marks the service degraded and answers 503.
func CreateHealthHandler(state *appstate.State) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckBudget)
		defer cancel()
		status := statusHealthy
		components := gin.H{}
		for name, check := range state.Checks {
			if err := check.HealthCheck(ctx); err != nil {
				logger.FromContext(ctx).Warn("Health check failed", "component", name, "error", core.RedactError(err))
				components[name] = gin.H{"healthy": false}
				status = statusDegraded
				continue
			}
			components[name] = gin.H{"healthy": true}
		}
		code := http.StatusOK
		if status != statusHealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":     status,
			"version":    state.Version,
			"components": components,
		})
	}
}
