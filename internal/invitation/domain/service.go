package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	awarddomain "github.com/smallbiznis/lotbid/internal/award/domain"
	offerdomain "github.com/smallbiznis/lotbid/internal/offer/domain"
	rounddomain "github.com/smallbiznis/lotbid/internal/round/domain"
	"gorm.io/gorm"
)

type Repository interface {
	FindByToken(ctx context.Context, db *gorm.DB, token string) (*Invitation, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invitation, error)
	// BackfillRound binds roundID only while the invitation is unbound and
	// reports how many rows changed.
	BackfillRound(ctx context.Context, db *gorm.DB, id, roundID snowflake.ID, at time.Time) (int64, error)
}

// StatusView is what a buyer sees for an invitation. Everything in it is
// scoped to the effective round.
type StatusView struct {
	InvitationID snowflake.ID              `json:"invitation_id"`
	LotID        snowflake.ID              `json:"lot_id"`
	BuyerID      snowflake.ID              `json:"buyer_id"`
	RoundID      snowflake.ID              `json:"round_id"`
	RoundNumber  *int                      `json:"round_number"`
	IsWinner     bool                      `json:"is_winner"`
	AwardedLines []awarddomain.AwardedLine `json:"awarded_lines"`
	Offer        *offerdomain.Offer        `json:"offer"`
}

type Service interface {
	// ResolveEffectiveRound returns the bound round, else the live round,
	// else the latest round, binding the invitation on first resolution.
	ResolveEffectiveRound(ctx context.Context, invite Invitation) (rounddomain.Ref, error)
	// IsWinner reports whether the buyer holds an award in ref. Awards in
	// other rounds never count.
	IsWinner(ctx context.Context, invite Invitation, ref rounddomain.Ref) (bool, error)
	// ResolveOffer returns the buyer's latest offer bound to ref, falling back
	// to the latest offer for the lot regardless of round.
	ResolveOffer(ctx context.Context, invite Invitation, ref rounddomain.Ref) (*offerdomain.Offer, error)
	Status(ctx context.Context, token string) (StatusView, error)
}

var (
	ErrInvalidToken       = errors.New("invalid_token")
	ErrInvitationNotFound = errors.New("invitation_not_found")
)
