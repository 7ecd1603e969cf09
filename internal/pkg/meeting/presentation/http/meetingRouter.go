package http

import (
	"github.com/gin-gonic/gin"

	"projectsync/internal/pkg/meeting/presentation/controller"
)

// RegisterRoutes registers meeting endpoints under a session-protected group.
func RegisterRoutes(g *gin.RouterGroup, schedule *controller.ScheduleMeetingController) {
	// POST /api/v1/meetings -> schedule a meeting and mail its invitees
	g.POST("/meetings", schedule.Handle())
}
