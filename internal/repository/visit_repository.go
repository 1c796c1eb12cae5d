package repository

import (
	"context"

	"github.com/spec-kit/loyalty-service/internal/domain"
)

// VisitRepository persists confirmed visits.
type VisitRepository interface {
	Create(ctx context.Context, visit *domain.Visit) error
	ListByMember(ctx context.Context, memberID string, limit int) ([]domain.Visit, error)
}

type visitRepository struct {
	db DB
}

// NewVisitRepository returns a Postgres-backed implementation.
func NewVisitRepository(db DB) VisitRepository {
	return &visitRepository{db: db}
}

func (r *visitRepository) Create(ctx context.Context, visit *domain.Visit) error {
	const query = `
        INSERT INTO visits (member_id, confirmed_by, source, note)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`

	return r.db.QueryRow(ctx, query,
		visit.MemberID,
		visit.ConfirmedBy,
		visit.Source,
		visit.Note,
	).Scan(&visit.ID, &visit.CreatedAt)
}

func (r *visitRepository) ListByMember(ctx context.Context, memberID string, limit int) ([]domain.Visit, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, member_id, confirmed_by, source, note, created_at
        FROM visits WHERE member_id=$1
        ORDER BY created_at DESC LIMIT $2`

	rows, err := r.db.Query(ctx, query, memberID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []domain.Visit
	for rows.Next() {
		var visit domain.Visit
		if err := rows.Scan(
			&visit.ID,
			&visit.MemberID,
			&visit.ConfirmedBy,
			&visit.Source,
			&visit.Note,
			&visit.CreatedAt,
		); err != nil {
			return nil, err
		}
		visits = append(visits, visit)
	}
	return visits, rows.Err()
}
