package usecase

import (
	"context"
	"errors"
	"maps"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/interfaces"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/query"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"
)

const MsgAlertAdded = "Alert added"

type AlertUseCase struct {
	repo    interfaces.Repository
	catalog *model.Catalog
	hooks   *HookRegistry
}

func NewAlertUseCase(repo interfaces.Repository, catalog *model.Catalog, hooks *HookRegistry) *AlertUseCase {
	return &AlertUseCase{repo: repo, catalog: catalog, hooks: hooks}
}

// Create validates and persists an alert. Status and severity must resolve in the catalog.
func (uc *AlertUseCase) Create(ctx context.Context, input map[string]any) (*model.Alert, string, error) {
	values, ferrs := model.AlertSchema.Decode(input)
	if ferrs != nil {
		return nil, "", model.ValidationError(MsgDataError, ferrs)
	}

	alert := model.NewAlertFromValues(values)
	if _, ok := uc.catalog.AlertStatusByID(alert.StatusID); !ok {
		return nil, "", model.LookupError(MsgInvalidStatus, map[string]any{"alert_status_id": alert.StatusID})
	}
	if _, ok := uc.catalog.AlertSeverityByID(alert.SeverityID); !ok {
		return nil, "", model.LookupError(MsgInvalidSeverity, map[string]any{"alert_severity_id": alert.SeverityID})
	}

	attrs := uc.catalog.DefaultAttributes(types.ObjectAlert)
	maps.Copy(attrs, alert.CustomAttributes)
	alert.CustomAttributes = attrs

	created, err := uc.repo.Alert().Create(ctx, alert)
	if err != nil {
		return nil, "", internal(err, "failed to create alert", goerr.V("title", alert.Title))
	}

	created = Call(ctx, uc.hooks, types.HookPostloadAlertCreate, created, 0)
	logging.From(ctx).Info("alert created", "alert_id", created.ID, "source", created.Source)

	return created, MsgAlertAdded, nil
}

func (uc *AlertUseCase) Get(ctx context.Context, id int64) (*model.Alert, error) {
	alert, err := uc.repo.Alert().Get(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, model.NotFoundError(MsgAlertNotFound, err)
	}
	if err != nil {
		return nil, internal(err, "failed to get alert", goerr.V(AlertIDKey, id))
	}
	return alert, nil
}

// List returns one page of alerts matching the filter
func (uc *AlertUseCase) List(ctx context.Context, filter model.AlertFilter, req ListRequest) (*query.Page[*model.Alert], error) {
	q, err := req.build(filter.Predicate(), model.AlertSortFields, model.AlertFieldID)
	if err != nil {
		return nil, err
	}

	page, err := uc.repo.Alert().List(ctx, q)
	if err != nil {
		if errors.Is(err, query.ErrFiltering) {
			return nil, err
		}
		return nil, internal(err, "failed to list alerts")
	}
	return page, nil
}
