package domain

import "time"

// MemberStatus represents lifecycle states for a loyalty member.
type MemberStatus string

const (
	MemberStatusActive    MemberStatus = "ACTIVE"
	MemberStatusSuspended MemberStatus = "SUSPENDED"
)

// Member is the domain model for loyalty-program members.
type Member struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Status       MemberStatus
	VisitCount   int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
