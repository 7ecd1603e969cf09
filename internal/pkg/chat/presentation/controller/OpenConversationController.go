package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	authctl "projectsync/internal/pkg/auth/presentation/controller"
	"projectsync/internal/pkg/chat/application/usecase"
)

// OpenConversationController handles the open-conversation endpoint
type OpenConversationController struct {
	UC     *usecase.OpenConversationUseCase
	Logger *slog.Logger
}

func NewOpenConversationController(uc *usecase.OpenConversationUseCase, logger *slog.Logger) *OpenConversationController {
	return &OpenConversationController{UC: uc, Logger: logger}
}

type openConversationRequest struct {
	WorkspaceID string `json:"workspaceId" binding:"required"`
	PeerID      string `json:"peerId" binding:"required"`
}

func (h *OpenConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := authctl.IdentityFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var req openConversationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		in := usecase.OpenConversationInput{WorkspaceID: req.WorkspaceID, UserID: id.ID, PeerID: req.PeerID}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		conv, err := h.UC.Execute(ctx, in)
		if err != nil {
			writeError(c, h.Logger, err)
			return
		}

		c.JSON(http.StatusOK, conv)
	}
}
