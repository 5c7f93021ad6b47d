package interfaces

import (
	"context"

	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
)

// CaseRepository defines the interface for Case data access
type CaseRepository interface {
	// Create creates a new case with auto-generated ID
	Create(ctx context.Context, c *model.Case) (*model.Case, error)

	// Get retrieves a case by ID
	Get(ctx context.Context, id int64) (*model.Case, error)

	// List retrieves all cases ordered by ID
	List(ctx context.Context) ([]*model.Case, error)

	// Delete deletes a case by ID. Links and object states of the case are removed too.
	Delete(ctx context.Context, id int64) error

	// BumpState increments the revision counter of an object type within a case
	BumpState(ctx context.Context, caseID int64, obj types.ObjectType) (*model.ObjectState, error)

	// GetState returns the revision counter, or ErrNotFound if it was never bumped
	GetState(ctx context.Context, caseID int64, obj types.ObjectType) (*model.ObjectState, error)
}
