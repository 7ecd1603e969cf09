package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	authctl "projectsync/internal/pkg/auth/presentation/controller"
	chat "projectsync/internal/pkg/chat/application/domain"
	"projectsync/internal/pkg/chat/application/usecase"
)

// GetMessageController serves a conversation's history to one of its participants.
type GetMessageController struct {
	UC     *usecase.GetMessageUseCase
	Logger *slog.Logger
}

func NewGetMessageController(uc *usecase.GetMessageUseCase, logger *slog.Logger) *GetMessageController {
	return &GetMessageController{UC: uc, Logger: logger}
}

func (h *GetMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := authctl.IdentityFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		conversationID := c.Param("conversationId")
		if conversationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId is required"})
			return
		}

		// Defaults
		limit := 50
		offset := 0

		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		if v := c.Query("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		in := usecase.GetMessageInput{ConversationID: conversationID, ViewerID: id.ID, Limit: limit, Offset: offset}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		out, err := h.UC.Execute(ctx, in)
		if err != nil {
			writeError(c, h.Logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"messages": out.Messages,
			"unread":   out.Unread,
			"limit":    limit,
			"offset":   offset,
			"count":    len(out.Messages),
		})
	}
}

// writeError maps chat use case errors to HTTP statuses.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, chat.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
	case errors.Is(err, chat.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant in this conversation"})
	case errors.Is(err, usecase.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("chat request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
