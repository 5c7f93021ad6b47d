package usecase

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/interfaces"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/model/auth"
	"github.com/secmon-lab/caseflow/pkg/domain/query"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"
)

const (
	MsgIOCAdded   = "IOC added"
	MsgIOCDeleted = "IOC deleted"

	// listAllPageSize is the page size used to walk every IOC of a case
	listAllPageSize = 500
)

type IOCUseCase struct {
	repo     interfaces.Repository
	catalog  *model.Catalog
	hooks    *HookRegistry
	activity *activity
}

func NewIOCUseCase(repo interfaces.Repository, catalog *model.Catalog, hooks *HookRegistry, act *activity) *IOCUseCase {
	return &IOCUseCase{
		repo:     repo,
		catalog:  catalog,
		hooks:    hooks,
		activity: act,
	}
}

// Create runs the preload hook on the payload, then validates, persists and links the IOC to
// the case. It returns the IOC and a message for the caller.
func (uc *IOCUseCase) Create(ctx context.Context, caseID int64, input map[string]any) (*model.IOC, string, error) {
	data := Call(ctx, uc.hooks, types.HookPreloadIOCCreate, input, caseID)

	ioc, err := uc.createFromPayload(ctx, caseID, data)
	if err != nil {
		return nil, "", err
	}
	return ioc, MsgIOCAdded, nil
}

// createFromPayload persists a payload the preload hook already ran on. An existing IOC with the
// same value and type is reused and linked instead.
func (uc *IOCUseCase) createFromPayload(ctx context.Context, caseID int64, data map[string]any) (*model.IOC, error) {
	values, ferrs := uc.catalog.IOCSchema().Decode(data)
	if ferrs != nil {
		return nil, model.ValidationError(MsgDataError, ferrs)
	}

	ioc := model.NewIOCFromValues(values)
	if err := uc.checkIOC(ioc); err != nil {
		return nil, err
	}

	attrs := uc.catalog.DefaultAttributes(types.ObjectIOC)
	maps.Copy(attrs, ioc.CustomAttributes)
	ioc.CustomAttributes = attrs
	ioc.UserID = auth.UserFromContext(ctx).ID

	stored, err := uc.findOrCreate(ctx, ioc)
	if err != nil {
		return nil, err
	}

	linked, err := uc.repo.IOC().Link(ctx, stored.ID, caseID)
	if err != nil {
		return nil, internal(err, "failed to link IOC", goerr.V(IOCIDKey, stored.ID), goerr.V(CaseIDKey, caseID))
	}
	if !linked {
		return nil, model.ConflictError(MsgIOCLinked, stored)
	}

	uc.bumpState(ctx, caseID)
	stored = Call(ctx, uc.hooks, types.HookPostloadIOCCreate, stored, caseID)
	uc.activity.track(ctx, caseID, ioc.UserID, fmt.Sprintf("added ioc %q", stored.Value))

	return stored, nil
}

// checkIOC validates the lookups and the value pattern of an IOC
func (uc *IOCUseCase) checkIOC(ioc *model.IOC) error {
	iocType, ok := uc.catalog.IOCTypeByID(ioc.TypeID)
	if !ok {
		return model.LookupError(MsgInvalidIOCType, map[string]any{"ioc_type_id": ioc.TypeID})
	}
	if _, ok := uc.catalog.TLPByID(ioc.TLPID); !ok {
		return model.ValidationError(MsgDataError, model.FieldErrors{
			{Field: "ioc_tlp_id", Message: "Not a valid TLP."},
		})
	}
	if err := iocType.Validate(ioc.Value); err != nil {
		if errors.Is(err, model.ErrValueFormat) {
			return model.ValidationError(MsgDataError, model.FieldErrors{
				{Field: "ioc_value", Message: model.ErrValueFormat.Error()},
			})
		}
		return internal(err, "failed to validate IOC value")
	}
	return nil
}

func (uc *IOCUseCase) findOrCreate(ctx context.Context, ioc *model.IOC) (*model.IOC, error) {
	existing, err := uc.repo.IOC().FindByValue(ctx, ioc.Value, ioc.TypeID)
	if err != nil {
		return nil, internal(err, "failed to look up IOC", goerr.V("value", ioc.Value))
	}
	if existing != nil {
		return existing, nil
	}

	created, err := uc.repo.IOC().Create(ctx, ioc)
	if errors.Is(err, interfaces.ErrAlreadyExists) {
		// lost a race against a concurrent creation of the same value
		existing, err = uc.repo.IOC().FindByValue(ctx, ioc.Value, ioc.TypeID)
		if err == nil && existing != nil {
			return existing, nil
		}
	}
	if err != nil {
		return nil, internal(err, "failed to create IOC", goerr.V("value", ioc.Value))
	}
	return created, nil
}

func (uc *IOCUseCase) bumpState(ctx context.Context, caseID int64) {
	if _, err := uc.repo.Case().BumpState(ctx, caseID, types.ObjectIOC); err != nil {
		logging.From(ctx).Warn("failed to bump IOC state", "error", err, "case_id", caseID)
	}
}

// lookup returns the IOC only if it is linked to the case
func (uc *IOCUseCase) lookup(ctx context.Context, caseID, iocID int64, notFoundMsg string) (*model.IOC, error) {
	linked, err := uc.repo.IOC().IsLinked(ctx, iocID, caseID)
	if err != nil {
		return nil, internal(err, "failed to check IOC link", goerr.V(IOCIDKey, iocID), goerr.V(CaseIDKey, caseID))
	}
	if !linked {
		return nil, model.NotFoundError(notFoundMsg, nil)
	}

	ioc, err := uc.repo.IOC().Get(ctx, iocID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, model.NotFoundError(notFoundMsg, err)
	}
	if err != nil {
		return nil, internal(err, "failed to get IOC", goerr.V(IOCIDKey, iocID))
	}
	return ioc, nil
}

// Get returns an IOC of the case
func (uc *IOCUseCase) Get(ctx context.Context, caseID, iocID int64) (*model.IOC, error) {
	return uc.lookup(ctx, caseID, iocID, MsgIOCNotFound)
}

// Update applies a partial payload to an IOC of the case
func (uc *IOCUseCase) Update(ctx context.Context, caseID, iocID int64, input map[string]any) (*model.IOC, string, error) {
	existing, err := uc.lookup(ctx, caseID, iocID, MsgIOCNotFound)
	if err != nil {
		return nil, "", err
	}

	data := Call(ctx, uc.hooks, types.HookPreloadIOCUpdate, input, caseID)
	values, ferrs := uc.catalog.IOCSchema().DecodePartial(data)
	if ferrs != nil {
		return nil, "", model.ValidationError(MsgDataError, ferrs)
	}

	changed := existing.Copy()
	changed.Apply(values)
	if err := uc.checkIOC(changed); err != nil {
		return nil, "", err
	}

	if changed.Value != existing.Value || changed.TypeID != existing.TypeID {
		dup, err := uc.repo.IOC().FindByValue(ctx, changed.Value, changed.TypeID)
		if err != nil {
			return nil, "", internal(err, "failed to look up IOC", goerr.V("value", changed.Value))
		}
		if dup != nil && dup.ID != changed.ID {
			return nil, "", model.ConflictError("IOC with same value and type already exists", dup)
		}
	}

	updated, err := uc.repo.IOC().Update(ctx, changed)
	if err != nil {
		return nil, "", internal(err, "failed to update IOC", goerr.V(IOCIDKey, iocID))
	}

	uc.bumpState(ctx, caseID)
	updated = Call(ctx, uc.hooks, types.HookPostloadIOCUpdate, updated, caseID)
	uc.activity.track(ctx, caseID, auth.UserFromContext(ctx).ID, fmt.Sprintf("updated ioc %q", updated.Value))

	return updated, fmt.Sprintf("Updated ioc %q", updated.Value), nil
}

// Delete unlinks an IOC from the case. The IOC itself is deleted once no case links it.
func (uc *IOCUseCase) Delete(ctx context.Context, caseID, iocID int64) (string, error) {
	ioc, err := uc.lookup(ctx, caseID, iocID, MsgIOCNotFound)
	if err != nil {
		return "", err
	}

	if err := uc.repo.IOC().Unlink(ctx, iocID, caseID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return "", model.NotFoundError(MsgIOCNotFound, err)
		}
		return "", internal(err, "failed to unlink IOC", goerr.V(IOCIDKey, iocID), goerr.V(CaseIDKey, caseID))
	}

	remaining, err := uc.repo.IOC().LinkedCases(ctx, iocID)
	if err != nil {
		return "", internal(err, "failed to list IOC links", goerr.V(IOCIDKey, iocID))
	}
	if len(remaining) == 0 {
		if err := uc.repo.IOC().Delete(ctx, iocID); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
			return "", internal(err, "failed to delete IOC", goerr.V(IOCIDKey, iocID))
		}
	}

	uc.bumpState(ctx, caseID)
	Call(ctx, uc.hooks, types.HookPostloadIOCDelete, iocID, caseID)
	uc.activity.track(ctx, caseID, auth.UserFromContext(ctx).ID, fmt.Sprintf("deleted IOC %q", ioc.Value))

	return MsgIOCDeleted, nil
}

// List returns one page of the IOCs of the case matching the filter. A bad page or sort
// parameter yields a nil page and an error wrapping query.ErrFiltering.
func (uc *IOCUseCase) List(ctx context.Context, caseID int64, filter model.IOCFilter, req ListRequest) (*query.Page[*model.IOC], error) {
	q, err := req.build(filter.Predicate(uc.catalog), model.IOCSortFields, model.IOCFieldID)
	if err != nil {
		return nil, err
	}

	page, err := uc.repo.IOC().ListByCase(ctx, caseID, q)
	if err != nil {
		if errors.Is(err, query.ErrFiltering) {
			return nil, err
		}
		return nil, internal(err, "failed to list IOCs", goerr.V(CaseIDKey, caseID))
	}
	return page, nil
}

// ListDetailed returns every IOC of the case with its lookup names and the other cases sharing it
func (uc *IOCUseCase) ListDetailed(ctx context.Context, caseID int64) ([]*model.DetailedIOC, error) {
	var iocs []*model.IOC
	q := query.Query{
		Where:      query.All(),
		Sort:       query.Sort{Field: model.IOCFieldID},
		Pagination: query.Pagination{Page: 1, PerPage: listAllPageSize},
	}
	for {
		page, err := uc.repo.IOC().ListByCase(ctx, caseID, q)
		if err != nil {
			return nil, internal(err, "failed to list IOCs", goerr.V(CaseIDKey, caseID))
		}
		iocs = append(iocs, page.Items...)
		if page.NextPage == nil {
			break
		}
		q.Pagination.Page = *page.NextPage
	}

	caseNames := map[int64]string{}
	detailed := make([]*model.DetailedIOC, 0, len(iocs))
	for _, ioc := range iocs {
		d := &model.DetailedIOC{IOC: ioc, Links: []model.LinkedCase{}}
		if t, ok := uc.catalog.IOCTypeByID(ioc.TypeID); ok {
			d.TypeName = t.Name
		}
		if tlp, ok := uc.catalog.TLPByID(ioc.TLPID); ok {
			d.TLPName = tlp.Name
		}

		caseIDs, err := uc.repo.IOC().LinkedCases(ctx, ioc.ID)
		if err != nil {
			return nil, internal(err, "failed to list IOC links", goerr.V(IOCIDKey, ioc.ID))
		}
		for _, id := range caseIDs {
			if id == caseID {
				continue
			}
			name, ok := caseNames[id]
			if !ok {
				c, err := uc.repo.Case().Get(ctx, id)
				if err != nil {
					if errors.Is(err, interfaces.ErrNotFound) {
						continue
					}
					return nil, internal(err, "failed to get linked case", goerr.V(CaseIDKey, id))
				}
				name = c.Name
				caseNames[id] = name
			}
			d.Links = append(d.Links, model.LinkedCase{CaseID: id, CaseName: name})
		}

		detailed = append(detailed, d)
	}

	return detailed, nil
}

// State returns the IOC revision counter of the case
func (uc *IOCUseCase) State(ctx context.Context, caseID int64) (*model.ObjectState, error) {
	state, err := uc.repo.Case().GetState(ctx, caseID, types.ObjectIOC)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, model.NotFoundError(MsgIOCStateNotFound, err)
	}
	if err != nil {
		return nil, internal(err, "failed to get IOC state", goerr.V(CaseIDKey, caseID))
	}
	return state, nil
}
