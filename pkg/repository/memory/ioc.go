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

type linkKey struct {
	iocID  int64
	caseID int64
}

type iocRepository struct {
	mu     sync.RWMutex
	iocs   map[int64]*model.IOC
	links  map[linkKey]struct{}
	nextID int64
}

func newIOCRepository() *iocRepository {
	return &iocRepository{
		iocs:   make(map[int64]*model.IOC),
		links:  make(map[linkKey]struct{}),
		nextID: 1,
	}
}

func (r *iocRepository) Create(ctx context.Context, ioc *model.IOC) (*model.IOC, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.iocs {
		if existing.Value == ioc.Value && existing.TypeID == ioc.TypeID {
			return nil, goerr.Wrap(ErrAlreadyExists, "IOC already exists",
				goerr.V("value", ioc.Value),
				goerr.V("type_id", ioc.TypeID))
		}
	}

	now := time.Now().UTC()
	created := ioc.Copy()
	created.ID = r.nextID
	created.CreatedAt = now
	created.UpdatedAt = now
	r.nextID++

	r.iocs[created.ID] = created
	return created.Copy(), nil
}

func (r *iocRepository) Get(ctx context.Context, id int64) (*model.IOC, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ioc, exists := r.iocs[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "IOC not found", goerr.V("id", id))
	}
	return ioc.Copy(), nil
}

func (r *iocRepository) FindByValue(ctx context.Context, value string, typeID int64) (*model.IOC, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ioc := range r.iocs {
		if ioc.Value == value && ioc.TypeID == typeID {
			return ioc.Copy(), nil
		}
	}
	return nil, nil
}

func (r *iocRepository) Update(ctx context.Context, ioc *model.IOC) (*model.IOC, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.iocs[ioc.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "IOC not found", goerr.V("id", ioc.ID))
	}

	updated := ioc.Copy()
	updated.CreatedAt = existing.CreatedAt
	updated.UserID = existing.UserID
	updated.UpdatedAt = time.Now().UTC()

	r.iocs[updated.ID] = updated
	return updated.Copy(), nil
}

func (r *iocRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.iocs[id]; !exists {
		return goerr.Wrap(ErrNotFound, "IOC not found", goerr.V("id", id))
	}
	delete(r.iocs, id)

	for key := range r.links {
		if key.iocID == id {
			delete(r.links, key)
		}
	}
	return nil
}

func (r *iocRepository) Link(ctx context.Context, iocID, caseID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.iocs[iocID]; !exists {
		return false, goerr.Wrap(ErrNotFound, "IOC not found", goerr.V("id", iocID))
	}

	key := linkKey{iocID: iocID, caseID: caseID}
	if _, exists := r.links[key]; exists {
		return false, nil
	}
	r.links[key] = struct{}{}
	return true, nil
}

func (r *iocRepository) Unlink(ctx context.Context, iocID, caseID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := linkKey{iocID: iocID, caseID: caseID}
	if _, exists := r.links[key]; !exists {
		return goerr.Wrap(ErrNotFound, "IOC link not found",
			goerr.V("ioc_id", iocID),
			goerr.V("case_id", caseID))
	}
	delete(r.links, key)
	return nil
}

func (r *iocRepository) IsLinked(ctx context.Context, iocID, caseID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.links[linkKey{iocID: iocID, caseID: caseID}]
	return exists, nil
}

func (r *iocRepository) LinkedCases(ctx context.Context, iocID int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caseIDs := []int64{}
	for key := range r.links {
		if key.iocID == iocID {
			caseIDs = append(caseIDs, key.caseID)
		}
	}
	sort.Slice(caseIDs, func(i, j int) bool { return caseIDs[i] < caseIDs[j] })
	return caseIDs, nil
}

func (r *iocRepository) ListByCase(ctx context.Context, caseID int64, q query.Query) (*query.Page[*model.IOC], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var iocs []*model.IOC
	for key := range r.links {
		if key.caseID != caseID {
			continue
		}
		if ioc, exists := r.iocs[key.iocID]; exists {
			iocs = append(iocs, ioc.Copy())
		}
	}
	sort.Slice(iocs, func(i, j int) bool { return iocs[i].ID < iocs[j].ID })

	return query.Apply(iocs, q), nil
}

// unlinkCase drops every link of a deleted case
func (r *iocRepository) unlinkCase(caseID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.links {
		if key.caseID == caseID {
			delete(r.links, key)
		}
	}
}
