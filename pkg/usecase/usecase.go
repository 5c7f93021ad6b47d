package usecase

import (
	"context"

	"github.com/secmon-lab/caseflow/pkg/domain/interfaces"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"
)

// ImportObserver receives the outcome of every bulk import row
type ImportObserver interface {
	ObserveImportRow(outcome string)
}

type UseCases struct {
	repo     interfaces.Repository
	catalog  *model.Catalog
	hooks    *HookRegistry
	tracker  interfaces.ActivityTracker
	archive  interfaces.ImportArchive
	observer ImportObserver

	Case    *CaseUseCase
	IOC     *IOCUseCase
	Import  *ImportUseCase
	Alert   *AlertUseCase
	Comment *CommentUseCase
	Auth    AuthUseCaseInterface
}

type Option func(*UseCases)

func WithCatalog(catalog *model.Catalog) Option {
	return func(uc *UseCases) {
		uc.catalog = catalog
	}
}

func WithHooks(hooks *HookRegistry) Option {
	return func(uc *UseCases) {
		uc.hooks = hooks
	}
}

func WithActivityTracker(tracker interfaces.ActivityTracker) Option {
	return func(uc *UseCases) {
		uc.tracker = tracker
	}
}

func WithImportArchive(archive interfaces.ImportArchive) Option {
	return func(uc *UseCases) {
		uc.archive = archive
	}
}

func WithImportObserver(observer ImportObserver) Option {
	return func(uc *UseCases) {
		uc.observer = observer
	}
}

func WithAuth(auth AuthUseCaseInterface) Option {
	return func(uc *UseCases) {
		uc.Auth = auth
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.catalog == nil {
		uc.catalog = model.DefaultCatalog()
	}
	if uc.hooks == nil {
		uc.hooks = NewHookRegistry()
	}
	if uc.Auth == nil {
		uc.Auth = NewNoAuthnUseCase()
	}

	act := &activity{tracker: uc.tracker}
	uc.Case = NewCaseUseCase(repo)
	uc.IOC = NewIOCUseCase(repo, uc.catalog, uc.hooks, act)
	uc.Import = NewImportUseCase(uc.IOC, uc.archive, uc.observer)
	uc.Alert = NewAlertUseCase(repo, uc.catalog, uc.hooks)
	uc.Comment = NewCommentUseCase(repo, uc.hooks, act)

	return uc
}

// Catalog returns the lookup tables in use
func (uc *UseCases) Catalog() *model.Catalog {
	return uc.catalog
}

// activity records audit events. Tracking is advisory and never fails the caller.
type activity struct {
	tracker interfaces.ActivityTracker
}

func (a *activity) track(ctx context.Context, caseID, userID int64, msg string) {
	logger := logging.From(ctx)
	logger.Info("activity", "case_id", caseID, "user_id", userID, "message", msg)

	if a == nil || a.tracker == nil {
		return
	}
	if err := a.tracker.Track(ctx, model.NewActivity(caseID, userID, msg)); err != nil {
		logger.Warn("failed to track activity", "error", err, "case_id", caseID, "message", msg)
	}
}
