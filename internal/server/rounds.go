package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	lotdomain "github.com/smallbiznis/lotbid/internal/lot/domain"
	rounddomain "github.com/smallbiznis/lotbid/internal/round/domain"
)

type openRoundRequest struct {
	Scope string `json:"scope"`
}

// ownedLot loads the :id lot, scoped to the caller's organization.
func (s *Server) ownedLot(c *gin.Context) (lotdomain.Lot, bool) {
	lotID, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return lotdomain.Lot{}, false
	}
	lot, err := s.lotSvc.Get(c.Request.Context(), lotID)
	if err != nil {
		AbortWithError(c, err)
		return lotdomain.Lot{}, false
	}
	return lot, true
}

func (s *Server) EnsureRounds(c *gin.Context) {
	lot, ok := s.ownedLot(c)
	if !ok {
		return
	}

	rounds, current, err := s.roundSvc.EnsureRounds(c.Request.Context(), lot.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rounds": rounds, "current": current})
}

func (s *Server) ListRounds(c *gin.Context) {
	lot, ok := s.ownedLot(c)
	if !ok {
		return
	}

	rounds, err := s.roundSvc.List(c.Request.Context(), lot.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rounds": rounds})
}

func (s *Server) OpenRound(c *gin.Context) {
	lot, ok := s.ownedLot(c)
	if !ok {
		return
	}

	var req openRoundRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	round, err := s.roundSvc.OpenRound(c.Request.Context(), lot.ID, rounddomain.Scope(strings.TrimSpace(req.Scope)))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, round)
}

func (s *Server) CloseRound(c *gin.Context) {
	roundID, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	round, err := s.roundSvc.Get(ctx, roundID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if _, err := s.lotSvc.Get(ctx, round.LotID); err != nil {
		AbortWithError(c, err)
		return
	}

	closed, err := s.roundSvc.CloseRound(ctx, round.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, closed)
}
