package events

import (
	"time"

	"github.com/spec-kit/loyalty-service/internal/domain"
	"github.com/spec-kit/loyalty-service/internal/passtoken"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventVisitConfirmed    EventType = "visit_confirmed"
	EventPromoRedeemed     EventType = "promo_redeemed"
	EventReferralValidated EventType = "referral_validated"
	EventStaffCheckPassed  EventType = "staff_check_passed"
)

// Event represents a domain event emitted after a successful pass
// validation.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	MemberID  string      `json:"member_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// PassValidatedPayload is the common payload for all pass events.
type PassValidatedPayload struct {
	Purpose     passtoken.Purpose `json:"purpose"`
	Label       string            `json:"label"`
	Nonce       string            `json:"nonce"`
	ValidatorID string            `json:"validator_id"`
	Role        domain.StaffRole  `json:"validator_role"`
	EventID     string            `json:"validation_event_id"`
}

// TypeForPurpose maps a validated pass purpose to its event type.
func TypeForPurpose(purpose passtoken.Purpose) EventType {
	switch purpose {
	case passtoken.PurposePromo:
		return EventPromoRedeemed
	case passtoken.PurposeReferral:
		return EventReferralValidated
	case passtoken.PurposeStaffCheck:
		return EventStaffCheckPassed
	default:
		return EventVisitConfirmed
	}
}
