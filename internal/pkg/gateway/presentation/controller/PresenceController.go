package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OnlineLister is the read side of the presence registry.
type OnlineLister interface {
	ListOnline() []string
}

// PresenceController serves the current online list over HTTP.
type PresenceController struct {
	Presence OnlineLister
}

func NewPresenceController(presence OnlineLister) *PresenceController {
	return &PresenceController{Presence: presence}
}

func (h *PresenceController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		online := h.Presence.ListOnline()
		c.JSON(http.StatusOK, gin.H{"online": online, "count": len(online)})
	}
}
