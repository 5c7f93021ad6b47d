package model

import (
	"time"

	"github.com/secmon-lab/caseflow/pkg/domain/types"
)

// Comment is free text attached to exactly one case object
type Comment struct {
	ID        int64
	Text      string
	UserID    int64
	CaseID    int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommentLink associates a comment with its parent object
type CommentLink struct {
	CommentID  int64
	ObjectType types.ObjectType
	ObjectID   int64
}

// CommentSchema describes the comment payload
var CommentSchema = &Schema{
	Name: "comment",
	Fields: []FieldSpec{
		{Name: "comment_text", Type: types.FieldTypeText, Required: true, Rules: "min=1"},
	},
}
