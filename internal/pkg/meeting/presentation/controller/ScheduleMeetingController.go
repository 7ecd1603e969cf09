package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	auth "projectsync/internal/pkg/auth/application/domain"
	authctl "projectsync/internal/pkg/auth/presentation/controller"
	meeting "projectsync/internal/pkg/meeting/application/domain"
	"projectsync/internal/pkg/meeting/application/usecase"
)

// ScheduleMeetingController handles the schedule-meeting endpoint
type ScheduleMeetingController struct {
	UC     *usecase.ScheduleMeetingUseCase
	Logger *slog.Logger
}

func NewScheduleMeetingController(uc *usecase.ScheduleMeetingUseCase, logger *slog.Logger) *ScheduleMeetingController {
	return &ScheduleMeetingController{UC: uc, Logger: logger}
}

type scheduleMeetingRequest struct {
	WorkspaceID       string     `json:"workspaceId" binding:"required"`
	Title             string     `json:"title" binding:"required"`
	Participants      []string   `json:"participants"`
	ParticipantEmails []string   `json:"participantEmails"`
	StartsAt          *time.Time `json:"startsAt"`
}

func (h *ScheduleMeetingController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := authctl.IdentityFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var req scheduleMeetingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		m, err := h.UC.Execute(ctx, usecase.ScheduleMeetingInput{
			WorkspaceID:       req.WorkspaceID,
			CreatorID:         id.ID,
			Title:             req.Title,
			Participants:      req.Participants,
			ParticipantEmails: req.ParticipantEmails,
			StartsAt:          req.StartsAt,
		})
		switch {
		case err == nil:
			c.JSON(http.StatusCreated, m)
		case errors.Is(err, auth.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		case errors.Is(err, meeting.ErrInvalidMeeting):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.Logger.Error("schedule meeting failed", "workspace_id", req.WorkspaceID, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
	}
}
