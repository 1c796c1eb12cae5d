package dto

// PromoPassRequest binds a promo pass to a coupon.
type PromoPassRequest struct {
	CouponCode string `json:"coupon_code"`
}

// StaffCheckPassRequest mints a staff check pass.
type StaffCheckPassRequest struct {
	StaffID string `json:"staff_id"`
	Label   string `json:"label"`
}

// CouponCreateRequest grants a reward coupon to a member.
type CouponCreateRequest struct {
	MemberID string `json:"member_id"`
	Reward   string `json:"reward"`
}

// ValidatePassRequest carries a presented token.
type ValidatePassRequest struct {
	Token string `json:"token"`
}

// PassResponse is returned from issuance endpoints. The token string
// is what an external encoder renders as a scannable image.
type PassResponse struct {
	Token     string `json:"token"`
	Purpose   string `json:"purpose"`
	Label     string `json:"label"`
	ExpiresAt int64  `json:"expires_at"`
}

// ValidationResponse is returned from the validation endpoint.
type ValidationResponse struct {
	Verdict string       `json:"verdict"`
	EventID string       `json:"event_id,omitempty"`
	Pass    *PassDetails `json:"pass,omitempty"`
}

// PassDetails exposes the decoded payload for diagnostics.
type PassDetails struct {
	Purpose   string `json:"purpose"`
	Label     string `json:"label"`
	MemberID  string `json:"member_id"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
}
