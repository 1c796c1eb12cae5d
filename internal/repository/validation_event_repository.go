package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/loyalty-service/internal/passtoken"
)

// OutcomeStat is one aggregate row of the validation report.
type OutcomeStat struct {
	Purpose string
	Outcome string
	Count   int64
}

// ValidationEventRepository is the durable audit trail for pass
// validations and, through its consuming rows, the replay ledger the
// validator depends on. It implements passtoken.ReplayStore.
type ValidationEventRepository interface {
	passtoken.ReplayStore
	ListRecent(ctx context.Context, limit int) ([]passtoken.Event, error)
	AggregateStats(ctx context.Context, since time.Time) ([]OutcomeStat, error)
}

type validationEventRepository struct {
	db DB
}

// NewValidationEventRepository returns a Postgres-backed implementation.
func NewValidationEventRepository(db DB) ValidationEventRepository {
	return &validationEventRepository{db: db}
}

const insertEventQuery = `
        INSERT INTO validation_events
            (nonce, purpose, label, subject_id, validator_id, validator_role,
             outcome, consuming, token_issued_at, token_expires_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at`

// RecordIfNew inserts the consuming ledger row for event.Nonce. The
// partial unique index on consuming nonces is the atomicity point:
// concurrent attempts race on the insert itself, never on a separate
// read, so exactly one caller gets created=true. A unique violation is
// the conflict signal and comes back with the previously recorded row.
func (r *validationEventRepository) RecordIfNew(ctx context.Context, event *passtoken.Event) (bool, *passtoken.Event, error) {
	err := r.insert(ctx, event)
	if err == nil {
		return true, nil, nil
	}
	if !isUniqueViolation(err) {
		return false, nil, fmt.Errorf("record validation event: %w", err)
	}

	existing, err := r.getConsuming(ctx, event.Nonce)
	if err != nil {
		return false, nil, fmt.Errorf("load consumed nonce %s: %w", event.Nonce, err)
	}
	return false, existing, nil
}

// Record appends a non-consuming audit row.
func (r *validationEventRepository) Record(ctx context.Context, event *passtoken.Event) error {
	event.Consuming = false
	return r.insert(ctx, event)
}

func (r *validationEventRepository) insert(ctx context.Context, event *passtoken.Event) error {
	return r.db.QueryRow(ctx, insertEventQuery,
		event.Nonce,
		event.Purpose,
		event.Label,
		event.SubjectID,
		event.ValidatorID,
		event.ValidatorRole,
		event.Outcome,
		event.Consuming,
		event.TokenIssuedAt,
		event.TokenExpiresAt,
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *validationEventRepository) getConsuming(ctx context.Context, nonce string) (*passtoken.Event, error) {
	const query = `
        SELECT id, nonce, purpose, label, subject_id, validator_id, validator_role,
               outcome, consuming, token_issued_at, token_expires_at, created_at
        FROM validation_events WHERE nonce=$1 AND consuming`

	var event passtoken.Event
	if err := r.db.QueryRow(ctx, query, nonce).Scan(
		&event.ID,
		&event.Nonce,
		&event.Purpose,
		&event.Label,
		&event.SubjectID,
		&event.ValidatorID,
		&event.ValidatorRole,
		&event.Outcome,
		&event.Consuming,
		&event.TokenIssuedAt,
		&event.TokenExpiresAt,
		&event.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *validationEventRepository) ListRecent(ctx context.Context, limit int) ([]passtoken.Event, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const query = `
        SELECT id, nonce, purpose, label, subject_id, validator_id, validator_role,
               outcome, consuming, token_issued_at, token_expires_at, created_at
        FROM validation_events
        ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []passtoken.Event
	for rows.Next() {
		var event passtoken.Event
		if err := rows.Scan(
			&event.ID,
			&event.Nonce,
			&event.Purpose,
			&event.Label,
			&event.SubjectID,
			&event.ValidatorID,
			&event.ValidatorRole,
			&event.Outcome,
			&event.Consuming,
			&event.TokenIssuedAt,
			&event.TokenExpiresAt,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *validationEventRepository) AggregateStats(ctx context.Context, since time.Time) ([]OutcomeStat, error) {
	const query = `
        SELECT purpose, outcome, COUNT(*)
        FROM validation_events
        WHERE created_at >= $1
        GROUP BY purpose, outcome
        ORDER BY purpose, outcome`

	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []OutcomeStat
	for rows.Next() {
		var stat OutcomeStat
		if err := rows.Scan(&stat.Purpose, &stat.Outcome, &stat.Count); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}
