package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
)

type stateKey struct {
	caseID int64
	obj    types.ObjectType
}

type caseRepository struct {
	mu     sync.RWMutex
	cases  map[int64]*model.Case
	states map[stateKey]*model.ObjectState
	nextID int64
	iocs   *iocRepository
}

func newCaseRepository(iocs *iocRepository) *caseRepository {
	return &caseRepository{
		cases:  make(map[int64]*model.Case),
		states: make(map[stateKey]*model.ObjectState),
		nextID: 1,
		iocs:   iocs,
	}
}

func copyCase(c *model.Case) *model.Case {
	copied := *c
	return &copied
}

func (r *caseRepository) Create(ctx context.Context, c *model.Case) (*model.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyCase(c)
	created.ID = r.nextID
	created.CreatedAt = now
	created.UpdatedAt = now
	r.nextID++

	r.cases[created.ID] = created
	return copyCase(created), nil
}

func (r *caseRepository) Get(ctx context.Context, id int64) (*model.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.cases[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
	}
	return copyCase(c), nil
}

func (r *caseRepository) List(ctx context.Context) ([]*model.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cases := make([]*model.Case, 0, len(r.cases))
	for _, c := range r.cases {
		cases = append(cases, copyCase(c))
	}
	sort.Slice(cases, func(i, j int) bool { return cases[i].ID < cases[j].ID })
	return cases, nil
}

func (r *caseRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cases[id]; !exists {
		return goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
	}
	delete(r.cases, id)

	for key := range r.states {
		if key.caseID == id {
			delete(r.states, key)
		}
	}
	r.iocs.unlinkCase(id)
	return nil
}

func (r *caseRepository) BumpState(ctx context.Context, caseID int64, obj types.ObjectType) (*model.ObjectState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := stateKey{caseID: caseID, obj: obj}
	state, exists := r.states[key]
	if !exists {
		state = &model.ObjectState{CaseID: caseID, Object: obj}
		r.states[key] = state
	}
	state.Revision++
	state.UpdatedAt = time.Now().UTC()

	copied := *state
	return &copied, nil
}

func (r *caseRepository) GetState(ctx context.Context, caseID int64, obj types.ObjectType) (*model.ObjectState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, exists := r.states[stateKey{caseID: caseID, obj: obj}]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "object state not found",
			goerr.V("case_id", caseID),
			goerr.V("object", obj))
	}
	copied := *state
	return &copied, nil
}
