package models

import (
	"time"
)

// DisputeStatus represents where a dispute is in review
type DisputeStatus string

const (
	DisputeStatusPending  DisputeStatus = "pending"
	DisputeStatusRejected DisputeStatus = "rejected"
	DisputeStatusResolved DisputeStatus = "resolved"
)

// Dispute is a participant's objection to a resolved bet. At most one per bet and user.
type Dispute struct {
	ID        int64         `db:"id"`
	BetID     int64         `db:"bet_id"`
	UserID    int64         `db:"user_id"`
	Reason    string        `db:"reason"`
	Status    DisputeStatus `db:"status"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
}
