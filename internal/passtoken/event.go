package passtoken

import (
	"context"
	"time"

	"github.com/spec-kit/loyalty-service/internal/domain"
)

// Event is the audit record written for validation attempts. Rows are
// append-only and never mutated. Rows with Consuming=true form the
// replay ledger: at most one consuming row may exist per nonce.
type Event struct {
	ID             string
	Nonce          string
	Purpose        Purpose
	Label          string
	SubjectID      string
	ValidatorID    string
	ValidatorRole  domain.StaffRole
	Outcome        Verdict
	Consuming      bool
	TokenIssuedAt  int64
	TokenExpiresAt int64
	CreatedAt      time.Time
}

// ReplayStore is the durable nonce ledger. RecordIfNew must be atomic
// under concurrent attempts on the same nonce: exactly one caller
// observes created=true, enforced by the backing store's unique
// constraint rather than any read-then-write sequence here.
type ReplayStore interface {
	// RecordIfNew inserts a consuming event for event.Nonce. When the
	// nonce was already consumed it reports created=false together with
	// the previously recorded event.
	RecordIfNew(ctx context.Context, event *Event) (created bool, existing *Event, err error)

	// Record appends a non-consuming audit event (replay attempts).
	Record(ctx context.Context, event *Event) error
}
