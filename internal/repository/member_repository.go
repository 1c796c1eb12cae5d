package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/loyalty-service/internal/domain"
)

// MemberRepository defines persistence access for loyalty members.
type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	Update(ctx context.Context, member *domain.Member) error
	GetByID(ctx context.Context, id string) (*domain.Member, error)
	GetByEmail(ctx context.Context, email string) (*domain.Member, error)
	IncrementVisitCount(ctx context.Context, id string) error
}

type memberRepository struct {
	db DB
}

// NewMemberRepository returns a Postgres-backed implementation.
func NewMemberRepository(db DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(ctx context.Context, member *domain.Member) error {
	const query = `
        INSERT INTO members (name, email, password_hash, status)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		member.Name,
		member.Email,
		member.PasswordHash,
		member.Status,
	).Scan(&member.ID, &member.CreatedAt, &member.UpdatedAt)
}

func (r *memberRepository) Update(ctx context.Context, member *domain.Member) error {
	const query = `
        UPDATE members SET name=$1, email=$2, password_hash=$3, status=$4, updated_at=NOW()
        WHERE id=$5`

	cmd, err := r.db.Exec(ctx, query,
		member.Name,
		member.Email,
		member.PasswordHash,
		member.Status,
		member.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *memberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	const query = `
        SELECT id, name, email, password_hash, status, visit_count, created_at, updated_at
        FROM members WHERE id=$1`
	return r.scanMember(r.db.QueryRow(ctx, query, id))
}

func (r *memberRepository) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	const query = `
        SELECT id, name, email, password_hash, status, visit_count, created_at, updated_at
        FROM members WHERE email=$1`
	return r.scanMember(r.db.QueryRow(ctx, query, email))
}

func (r *memberRepository) IncrementVisitCount(ctx context.Context, id string) error {
	const query = `
        UPDATE members SET visit_count=visit_count+1, updated_at=NOW()
        WHERE id=$1`

	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *memberRepository) scanMember(row pgx.Row) (*domain.Member, error) {
	var member domain.Member
	if err := row.Scan(
		&member.ID,
		&member.Name,
		&member.Email,
		&member.PasswordHash,
		&member.Status,
		&member.VisitCount,
		&member.CreatedAt,
		&member.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &member, nil
}
