package domain

import "time"

// SubjectType differentiates member vs staff sessions.
type SubjectType string

const (
	SubjectTypeMember SubjectType = "MEMBER"
	SubjectTypeStaff  SubjectType = "STAFF"
)

// Session represents issued session token metadata.
type Session struct {
	SubjectID string
	Subject   SubjectType
	Role      *StaffRole
	IssuedAt  time.Time
	ExpiresAt time.Time
}
