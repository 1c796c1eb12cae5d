package domain

import "time"

// CouponStatus enumerates coupon lifecycle states.
type CouponStatus string

const (
	CouponStatusIssued   CouponStatus = "ISSUED"
	CouponStatusRedeemed CouponStatus = "REDEEMED"
)

// Coupon is a redeemable reward granted to a member.
type Coupon struct {
	ID         string
	Code       string
	MemberID   string
	Reward     string
	Status     CouponStatus
	RedeemedAt *time.Time
	RedeemedBy *string
	CreatedAt  time.Time
}
