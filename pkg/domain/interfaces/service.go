package interfaces

import (
	"context"

	"github.com/secmon-lab/caseflow/pkg/domain/model"
)

// ActivityTracker records audit trail entries. Tracking is advisory: callers log failures
// and carry on.
type ActivityTracker interface {
	Track(ctx context.Context, activity *model.Activity) error
}

// ImportArchive stores the raw payload of bulk uploads
type ImportArchive interface {
	Put(ctx context.Context, key string, data []byte) error
}
