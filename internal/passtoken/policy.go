package passtoken

import "github.com/spec-kit/loyalty-service/internal/domain"

// Policy maps staff roles to the purposes they may validate. Kept as a
// single static table so adding a purpose is a one-table edit.
type Policy map[domain.StaffRole]map[Purpose]struct{}

// DefaultPolicy grants admins every purpose and agents everything
// except staff checks, which stay admin-only.
func DefaultPolicy() Policy {
	return Policy{
		domain.StaffRoleAdmin: {
			PurposeVisit:      {},
			PurposePromo:      {},
			PurposeReferral:   {},
			PurposeStaffCheck: {},
		},
		domain.StaffRoleAgent: {
			PurposeVisit:    {},
			PurposePromo:    {},
			PurposeReferral: {},
		},
	}
}

// Allows reports whether role may validate tokens of the given purpose.
func (p Policy) Allows(role domain.StaffRole, purpose Purpose) bool {
	allowed, ok := p[role]
	if !ok {
		return false
	}
	_, ok = allowed[purpose]
	return ok
}
