package interfaces

import (
	"context"

	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/query"
)

// IOCRepository defines the interface for IOC data access. IOCs are global records; cases
// reference them through links.
type IOCRepository interface {
	// Create persists a new IOC with auto-generated ID
	Create(ctx context.Context, ioc *model.IOC) (*model.IOC, error)

	// Get retrieves an IOC by ID
	Get(ctx context.Context, id int64) (*model.IOC, error)

	// FindByValue returns the IOC with the given value and type.
	// Returns nil, nil if there is none.
	FindByValue(ctx context.Context, value string, typeID int64) (*model.IOC, error)

	// Update replaces the mutable fields of an existing IOC
	Update(ctx context.Context, ioc *model.IOC) (*model.IOC, error)

	// Delete deletes an IOC by ID
	Delete(ctx context.Context, id int64) error

	// Link links an IOC to a case. It returns false if the link already existed.
	Link(ctx context.Context, iocID, caseID int64) (bool, error)

	// Unlink removes the link between an IOC and a case, or returns ErrNotFound
	Unlink(ctx context.Context, iocID, caseID int64) error

	// IsLinked reports whether the IOC is linked to the case
	IsLinked(ctx context.Context, iocID, caseID int64) (bool, error)

	// LinkedCases returns the IDs of every case the IOC is linked to, in ascending order
	LinkedCases(ctx context.Context, iocID int64) ([]int64, error)

	// ListByCase returns one page of the IOCs linked to a case
	ListByCase(ctx context.Context, caseID int64, q query.Query) (*query.Page[*model.IOC], error)
}
