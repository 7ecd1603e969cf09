package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"projectsync/internal/app"
)

// RegisterHealthRoutes mounts GET /healthz at the root. It answers 503 with the
// failing backends when any backend check fails.
func RegisterHealthRoutes(r *gin.Engine, a *app.App) {
	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		failed := a.Ready(ctx)
		if len(failed) == 0 {
			c.JSON(http.StatusOK, gin.H{"status": "OK"})
			return
		}
		checks := make(gin.H, len(failed))
		for name, err := range failed {
			a.Logger.Warn("readiness check failed", "backend", name, "err", err)
			checks[name] = err.Error()
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": checks})
	})
}
