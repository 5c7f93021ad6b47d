package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/interfaces"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/model/auth"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"
)

type CaseUseCase struct {
	repo interfaces.Repository
}

func NewCaseUseCase(repo interfaces.Repository) *CaseUseCase {
	return &CaseUseCase{repo: repo}
}

// internal hides a persistence failure behind a business error, keeping the cause for logging
func internal(err error, msg string, options ...goerr.Option) error {
	return model.InternalError(MsgInternal, goerr.Wrap(err, msg, options...))
}

// Create validates the payload and creates a case owned by the request user
func (uc *CaseUseCase) Create(ctx context.Context, input map[string]any) (*model.Case, error) {
	values, ferrs := model.CaseSchema.Decode(input)
	if ferrs != nil {
		return nil, model.ValidationError(MsgDataError, ferrs)
	}

	c := model.NewCaseFromValues(values)
	c.UserID = auth.UserFromContext(ctx).ID

	created, err := uc.repo.Case().Create(ctx, c)
	if err != nil {
		return nil, internal(err, "failed to create case")
	}
	return created, nil
}

// Get returns the case or a not-found business error
func (uc *CaseUseCase) Get(ctx context.Context, id int64) (*model.Case, error) {
	c, err := uc.repo.Case().Get(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, model.NotFoundError(MsgCaseNotFound, err)
	}
	if err != nil {
		return nil, internal(err, "failed to get case", goerr.V(CaseIDKey, id))
	}
	return c, nil
}

func (uc *CaseUseCase) List(ctx context.Context) ([]*model.Case, error) {
	cases, err := uc.repo.Case().List(ctx)
	if err != nil {
		return nil, internal(err, "failed to list cases")
	}
	return cases, nil
}

// Delete removes a case along with its IOC links and object states
func (uc *CaseUseCase) Delete(ctx context.Context, id int64) error {
	err := uc.repo.Case().Delete(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return model.NotFoundError(MsgCaseNotFound, err)
	}
	if err != nil {
		return internal(err, "failed to delete case", goerr.V(CaseIDKey, id))
	}
	return nil
}

// EnsureDefault creates the default case when the repository has no case yet
func (uc *CaseUseCase) EnsureDefault(ctx context.Context) (*model.Case, error) {
	c, err := uc.repo.Case().Get(ctx, model.DefaultCaseID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, goerr.Wrap(err, "failed to look up default case")
	}

	cases, err := uc.repo.Case().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list cases")
	}
	if len(cases) > 0 {
		return cases[0], nil
	}

	created, err := uc.repo.Case().Create(ctx, &model.Case{
		Name:        "Initial Demo",
		Description: "Default case created at startup",
		UserID:      auth.AnonymousUserID,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create default case")
	}

	logging.From(ctx).Info("created default case", "case_id", created.ID)
	return created, nil
}
