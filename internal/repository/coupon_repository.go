package repository

import (
	"context"
	"errors"

	"github.com/spec-kit/loyalty-service/internal/domain"
)

// ErrCouponRedeemed signals a redemption attempt on an already
// redeemed coupon.
var ErrCouponRedeemed = errors.New("coupon already redeemed")

// CouponRepository persists member rewards.
type CouponRepository interface {
	Create(ctx context.Context, coupon *domain.Coupon) error
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	MarkRedeemed(ctx context.Context, code, staffID string) error
}

type couponRepository struct {
	db DB
}

// NewCouponRepository returns a Postgres-backed implementation.
func NewCouponRepository(db DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	const query = `
        INSERT INTO coupons (code, member_id, reward, status)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`

	return r.db.QueryRow(ctx, query,
		coupon.Code,
		coupon.MemberID,
		coupon.Reward,
		coupon.Status,
	).Scan(&coupon.ID, &coupon.CreatedAt)
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	const query = `
        SELECT id, code, member_id, reward, status, redeemed_at, redeemed_by, created_at
        FROM coupons WHERE code=$1`

	var coupon domain.Coupon
	if err := r.db.QueryRow(ctx, query, code).Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.MemberID,
		&coupon.Reward,
		&coupon.Status,
		&coupon.RedeemedAt,
		&coupon.RedeemedBy,
		&coupon.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &coupon, nil
}

// MarkRedeemed flips an issued coupon to redeemed. The status guard in
// the WHERE clause makes double redemption a no-op reported as
// ErrCouponRedeemed.
func (r *couponRepository) MarkRedeemed(ctx context.Context, code, staffID string) error {
	const query = `
        UPDATE coupons SET status=$1, redeemed_at=NOW(), redeemed_by=$2
        WHERE code=$3 AND status=$4`

	cmd, err := r.db.Exec(ctx, query,
		domain.CouponStatusRedeemed,
		staffID,
		code,
		domain.CouponStatusIssued,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCouponRedeemed
	}
	return nil
}
