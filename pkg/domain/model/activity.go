package model

import (
	"time"

	"github.com/google/uuid"
)

// ActivityID is a UUID-based identifier for Activity
type ActivityID string

// Activity is one audit trail entry. CaseID is zero for activities outside any case.
type Activity struct {
	ID        ActivityID
	CaseID    int64
	UserID    int64
	Message   string
	CreatedAt time.Time
}

// NewActivity creates an activity stamped with a new ID and the current time
func NewActivity(caseID, userID int64, msg string) *Activity {
	return &Activity{
		ID:        ActivityID(uuid.New().String()),
		CaseID:    caseID,
		UserID:    userID,
		Message:   msg,
		CreatedAt: time.Now().UTC(),
	}
}
