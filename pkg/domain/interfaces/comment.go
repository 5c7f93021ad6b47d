package interfaces

import (
	"context"

	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
)

// CommentRepository defines the interface for Comment data access. Every comment is attached
// to one parent object through a link record, and lookups are scoped to that parent.
type CommentRepository interface {
	// Create persists the comment and its link to the parent object
	Create(ctx context.Context, c *model.Comment, objType types.ObjectType, objectID int64) (*model.Comment, error)

	// Get retrieves a comment attached to the given parent
	Get(ctx context.Context, objType types.ObjectType, objectID, commentID int64) (*model.Comment, error)

	// List retrieves the comments of a parent ordered by creation
	List(ctx context.Context, objType types.ObjectType, objectID int64) ([]*model.Comment, error)

	// Update replaces the text of an existing comment
	Update(ctx context.Context, c *model.Comment) (*model.Comment, error)

	// Delete deletes a comment attached to the given parent along with its link
	Delete(ctx context.Context, objType types.ObjectType, objectID, commentID int64) error
}
