package v1

import (
	"github.com/gin-gonic/gin"

	"projectsync/internal/app"
	authctl "projectsync/internal/pkg/auth/presentation/controller"
	authHttp "projectsync/internal/pkg/auth/presentation/http"
	chatHttp "projectsync/internal/pkg/chat/presentation/http"
	gatewayHttp "projectsync/internal/pkg/gateway/presentation/http"
	meetingHttp "projectsync/internal/pkg/meeting/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(r *gin.Engine, a *app.App) {
	v1 := r.Group("/api/v1")

	// the socket authenticates its own handshake so it can answer 401 before upgrading
	authHttp.RegisterRoutes(v1, a.Otp)
	gatewayHttp.RegisterRoutes(v1, a.Socket)

	protected := v1.Group("", authctl.RequireSession(a.Sessions, a.Config.SessionCookie))
	chatHttp.RegisterRoutes(protected, a.OpenConversation, a.History)
	meetingHttp.RegisterRoutes(protected, a.Schedule)
	gatewayHttp.RegisterPresenceRoutes(protected, a.Presence)
}
