package domain

import "time"

// VisitSource records how a visit was confirmed.
type VisitSource string

const (
	VisitSourceScan     VisitSource = "SCAN"
	VisitSourceReferral VisitSource = "REFERRAL"
)

// Visit is a confirmed in-person visit by a member.
type Visit struct {
	ID          string
	MemberID    string
	ConfirmedBy string
	Source      VisitSource
	Note        string
	CreatedAt   time.Time
}
