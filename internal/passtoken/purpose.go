package passtoken

import "fmt"

// Purpose classifies what a pass token authorizes. The set is closed;
// validation policy and business dispatch both key off it.
type Purpose string

const (
	PurposeVisit      Purpose = "visit"
	PurposePromo      Purpose = "promo"
	PurposeReferral   Purpose = "referral"
	PurposeStaffCheck Purpose = "staff_check"
)

// ParsePurpose maps a raw string onto the closed purpose set.
func ParsePurpose(raw string) (Purpose, error) {
	switch Purpose(raw) {
	case PurposeVisit, PurposePromo, PurposeReferral, PurposeStaffCheck:
		return Purpose(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPurpose, raw)
	}
}

// Valid reports whether p is a member of the closed set.
func (p Purpose) Valid() bool {
	_, err := ParsePurpose(string(p))
	return err == nil
}
