package model

import (
	"time"

	"github.com/secmon-lab/caseflow/pkg/domain/types"
)

// DefaultCaseID is the case used when a request does not name one
const DefaultCaseID int64 = 1

// Case is the investigation unit IOCs, alerts and comments are scoped to
type Case struct {
	ID          int64
	Name        string
	Description string
	UserID      int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ObjectState is the revision counter of one object type within a case. It is bumped on
// every mutation so clients can detect stale listings.
type ObjectState struct {
	CaseID    int64
	Object    types.ObjectType
	Revision  int64
	UpdatedAt time.Time
}

// NewCaseFromValues builds a case from decoded schema values
func NewCaseFromValues(v Values) *Case {
	return &Case{
		Name:        v.String("case_name"),
		Description: v.String("case_description"),
	}
}

// CaseSchema describes the case creation payload
var CaseSchema = &Schema{
	Name: "case",
	Fields: []FieldSpec{
		{Name: "case_name", Type: types.FieldTypeText, Required: true, Rules: "min=1,max=256"},
		{Name: "case_description", Type: types.FieldTypeText, Default: "", Rules: "max=65535"},
	},
}
