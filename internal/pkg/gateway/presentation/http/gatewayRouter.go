package http

import (
	"github.com/gin-gonic/gin"

	"projectsync/internal/pkg/gateway/presentation/controller"
)

// RegisterRoutes mounts the websocket gateway. It authenticates on its own, before the upgrade,
// so g must not carry the session middleware.
func RegisterRoutes(g *gin.RouterGroup, socket *controller.GatewaySocketController) {
	// GET /api/v1/ws -> websocket endpoint for presence, messages and meeting admission
	g.GET("/ws", socket.Handle())
}

// RegisterPresenceRoutes mounts the presence query under a session-protected group.
func RegisterPresenceRoutes(g *gin.RouterGroup, presence *controller.PresenceController) {
	// GET /api/v1/presence -> current online user ids
	g.GET("/presence", presence.Handle())
}
