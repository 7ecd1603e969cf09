package http

import (
	"github.com/gin-gonic/gin"

	"projectsync/internal/pkg/chat/presentation/controller"
)

// RegisterRoutes registers chat-related HTTP endpoints under the given router group.
// The group is expected to carry the session middleware.
func RegisterRoutes(g *gin.RouterGroup, open *controller.OpenConversationController, history *controller.GetMessageController) {
	// POST /api/v1/conversations -> find or create the direct conversation with a peer
	g.POST("/conversations", open.Handle())

	// GET /api/v1/conversations/:conversationId/messages -> newest-first history
	g.GET("/conversations/:conversationId/messages", history.Handle())
}
