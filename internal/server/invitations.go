package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// GetInvitationStatus is the buyer-facing read: round, win state and offer
// for the invitation's effective round.
func (s *Server) GetInvitationStatus(c *gin.Context) {
	view, err := s.invitationSvc.Status(c.Request.Context(), strings.TrimSpace(c.Param("token")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}
