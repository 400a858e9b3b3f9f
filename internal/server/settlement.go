package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	awarddomain "github.com/smallbiznis/lotbid/internal/award/domain"
	"go.uber.org/zap"
)

const (
	resultAwarded        = "awarded"
	resultNothingToAward = "nothing_to_award"
)

func (s *Server) PreviewOptimizer(c *gin.Context) {
	lot, ok := s.ownedLot(c)
	if !ok {
		return
	}

	run, err := s.settlementSvc.PreviewOptimizer(c.Request.Context(), lot.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, run)
}

func (s *Server) RunOptimizer(c *gin.Context) {
	lot, ok := s.ownedLot(c)
	if !ok {
		return
	}

	run, err := s.settlementSvc.RunOptimizer(c.Request.Context(), lot.ID)
	if errors.Is(err, awarddomain.ErrNothingToAward) {
		c.JSON(http.StatusOK, gin.H{
			"result":              resultNothingToAward,
			"round":               run.Round,
			"excluded_line_items": run.Excluded,
		})
		return
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":        resultAwarded,
		"round":         run.Round,
		"awarded_lines": run.Awarded,
		"buyers":        run.Result.Buyers,
		"total":         run.Result.Total,
	})
}

func (s *Server) AcceptTakeAll(c *gin.Context) {
	s.settleTakeAll(c, false)
}

func (s *Server) RetryTakeAllAward(c *gin.Context) {
	s.settleTakeAll(c, true)
}

func (s *Server) settleTakeAll(c *gin.Context, retry bool) {
	lot, ok := s.ownedLot(c)
	if !ok {
		return
	}
	offerID, err := pathID(c, "offer_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	settle := s.settlementSvc.AcceptTakeAll
	if retry {
		settle = s.settlementSvc.RetryTakeAllAward
	}

	result, err := settle(ctx, lot.ID, offerID)
	if errors.Is(err, awarddomain.ErrNothingToAward) {
		c.JSON(http.StatusOK, gin.H{
			"result": resultNothingToAward,
			"offer":  result.Offer,
			"round":  result.Round,
		})
		return
	}
	if err != nil {
		s.log.Warn("take-all settlement failed",
			zap.String("lot_id", lot.ID.String()),
			zap.String("offer_id", offerID.String()),
			zap.Bool("retry", retry),
			zap.Error(err),
		)
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":          resultAwarded,
		"offer":           result.Offer,
		"round":           result.Round,
		"rejected_offers": result.Rejected,
		"awarded_lines":   result.Awarded,
	})
}

func (s *Server) ListAwards(c *gin.Context) {
	lot, ok := s.ownedLot(c)
	if !ok {
		return
	}
	roundID, err := parseOptionalSnowflakeID(c.Query("round_id"))
	if err != nil {
		AbortWithError(c, newValidationError("round_id", "invalid_round_id", "invalid round_id"))
		return
	}

	lines, err := s.awardSvc.List(c.Request.Context(), lot.ID, roundID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if lines == nil {
		lines = []awarddomain.AwardedLine{}
	}

	c.JSON(http.StatusOK, gin.H{"awarded_lines": lines})
}
