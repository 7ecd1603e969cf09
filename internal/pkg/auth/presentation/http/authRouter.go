package http

import (
	"github.com/gin-gonic/gin"

	"projectsync/internal/pkg/auth/presentation/controller"
)

// RegisterRoutes mounts the public auth endpoints.
func RegisterRoutes(g *gin.RouterGroup, otp *controller.OtpController) {
	// POST /api/v1/auth/otp -> email a one-time code
	g.POST("/auth/otp", otp.HandleRequest())

	// POST /api/v1/auth/otp/verify -> check and consume a code
	g.POST("/auth/otp/verify", otp.HandleVerify())
}
