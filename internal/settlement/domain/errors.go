package domain

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrPartialSettlement    = errors.New("partial_settlement_failure")
	ErrOfferRejected        = errors.New("offer_rejected")
	ErrOfferNotAccepted     = errors.New("offer_not_accepted")
	ErrNotTakeAllOffer      = errors.New("not_take_all_offer")
	ErrUnsupportedScope     = errors.New("unsupported_round_scope")
	ErrSettlementInProgress = errors.New("settlement_in_progress")
)

// Take-all steps that run after the offer is accepted.
const (
	StepRejectOthers  = "reject_others"
	StepEligibleItems = "eligible_items"
	StepAward         = "award"
)

// PartialSettlementError reports a take-all that accepted the offer but did not
// finish awarding. The offer stays accepted; retry the award, not the acceptance.
type PartialSettlementError struct {
	OfferID snowflake.ID
	Step    string
	Err     error
}

func (e *PartialSettlementError) Error() string {
	return fmt.Sprintf("partial_settlement_failure: offer %s accepted, %s failed: %v", e.OfferID, e.Step, e.Err)
}

func (e *PartialSettlementError) Unwrap() []error {
	return []error{ErrPartialSettlement, e.Err}
}
