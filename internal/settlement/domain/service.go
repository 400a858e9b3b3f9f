package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	awarddomain "github.com/smallbiznis/lotbid/internal/award/domain"
	offerdomain "github.com/smallbiznis/lotbid/internal/offer/domain"
	"github.com/smallbiznis/lotbid/internal/optimizer"
	rounddomain "github.com/smallbiznis/lotbid/internal/round/domain"
)

type OptimizerRun struct {
	Round    rounddomain.Ref           `json:"round"`
	Excluded []snowflake.ID            `json:"excluded_line_items"`
	Result   optimizer.Result          `json:"result"`
	Awarded  []awarddomain.AwardedLine `json:"awarded_lines,omitempty"`
}

type TakeAllResult struct {
	Offer    offerdomain.Offer         `json:"offer"`
	Round    rounddomain.Ref           `json:"round"`
	Rejected int64                     `json:"rejected_offers"`
	Awarded  []awarddomain.AwardedLine `json:"awarded_lines"`
}

// Service settles lots for the organization in ctx.
type Service interface {
	// PreviewOptimizer computes winners for the current round without writing.
	PreviewOptimizer(ctx context.Context, lotID snowflake.ID) (OptimizerRun, error)
	// RunOptimizer computes and persists winners for the current round.
	// Items awarded in other rounds are excluded; re-running overwrites this round.
	RunOptimizer(ctx context.Context, lotID snowflake.ID) (OptimizerRun, error)
	// AcceptTakeAll accepts a lot-wide offer and awards every unsold item to its buyer.
	AcceptTakeAll(ctx context.Context, lotID, offerID snowflake.ID) (TakeAllResult, error)
	// RetryTakeAllAward repeats the steps after acceptance for an accepted offer.
	RetryTakeAllAward(ctx context.Context, lotID, offerID snowflake.ID) (TakeAllResult, error)
}
