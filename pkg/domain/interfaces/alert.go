package interfaces

import (
	"context"

	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/query"
)

// AlertRepository defines the interface for Alert data access
type AlertRepository interface {
	Create(ctx context.Context, alert *model.Alert) (*model.Alert, error)
	Get(ctx context.Context, id int64) (*model.Alert, error)
	List(ctx context.Context, q query.Query) (*query.Page[*model.Alert], error)
}
