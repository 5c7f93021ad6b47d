package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/query"
)

type alertRepository struct {
	mu     sync.RWMutex
	alerts map[int64]*model.Alert
	nextID int64
}

func newAlertRepository() *alertRepository {
	return &alertRepository{
		alerts: make(map[int64]*model.Alert),
		nextID: 1,
	}
}

func (r *alertRepository) Create(ctx context.Context, alert *model.Alert) (*model.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := alert.Copy()
	created.ID = r.nextID
	if created.CreationTime.IsZero() {
		created.CreationTime = time.Now().UTC()
	}
	r.nextID++

	r.alerts[created.ID] = created
	return created.Copy(), nil
}

func (r *alertRepository) Get(ctx context.Context, id int64) (*model.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alert, exists := r.alerts[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "alert not found", goerr.V("id", id))
	}
	return alert.Copy(), nil
}

func (r *alertRepository) List(ctx context.Context, q query.Query) (*query.Page[*model.Alert], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alerts := make([]*model.Alert, 0, len(r.alerts))
	for _, alert := range r.alerts {
		alerts = append(alerts, alert.Copy())
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].ID < alerts[j].ID })

	return query.Apply(alerts, q), nil
}
