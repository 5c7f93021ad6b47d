package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/cli/config"
	"github.com/secmon-lab/caseflow/pkg/repository/sqldb"
	"github.com/secmon-lab/caseflow/pkg/usecase"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// appConfig groups the flags every command running use cases needs
type appConfig struct {
	repo    config.Repository
	catalog config.Catalog
	audit   config.Audit
	archive config.Archive
	slack   config.Slack
}

func (x *appConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, x.repo.Flags()...)
	flags = append(flags, x.catalog.Flags()...)
	flags = append(flags, x.audit.Flags()...)
	flags = append(flags, x.archive.Flags()...)
	flags = append(flags, x.slack.Flags()...)
	return flags
}

// Configure builds the use cases. The returned function releases every backend and must be
// called even when a later step fails.
func (x *appConfig) Configure(ctx context.Context, opts ...usecase.Option) (*usecase.UseCases, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	catalog, err := x.catalog.Configure()
	if err != nil {
		return nil, closeAll, goerr.Wrap(err, "failed to load catalog")
	}

	hooks := usecase.NewHookRegistry()
	if err := x.slack.Configure(hooks, catalog); err != nil {
		return nil, closeAll, err
	}

	repo, err := x.repo.Configure(ctx)
	if err != nil {
		return nil, closeAll, goerr.Wrap(err, "failed to initialize repository")
	}
	closers = append(closers, func() {
		if err := repo.Close(); err != nil {
			logging.Default().Error("failed to close repository", "error", err.Error())
		}
	})

	// the SQL schema is idempotent, so it is applied on every start
	if db, ok := repo.(*sqldb.DB); ok {
		if err := db.Migrate(ctx); err != nil {
			return nil, closeAll, goerr.Wrap(err, "failed to apply SQL schema")
		}
	}

	tracker, closeTracker, err := x.audit.Configure(ctx)
	if err != nil {
		return nil, closeAll, goerr.Wrap(err, "failed to configure activity tracker")
	}
	closers = append(closers, closeTracker)

	archive, closeArchive, err := x.archive.Configure(ctx)
	if err != nil {
		return nil, closeAll, goerr.Wrap(err, "failed to configure import archive")
	}
	closers = append(closers, closeArchive)

	ucOpts := []usecase.Option{
		usecase.WithCatalog(catalog),
		usecase.WithHooks(hooks),
	}
	if tracker != nil {
		ucOpts = append(ucOpts, usecase.WithActivityTracker(tracker))
	}
	if archive != nil {
		ucOpts = append(ucOpts, usecase.WithImportArchive(archive))
	}
	ucOpts = append(ucOpts, opts...)

	logging.Default().Info("Application configured",
		"repository", x.repo,
		"audit", x.audit,
		"archive", x.archive,
		"slack", x.slack,
	)

	return usecase.New(repo, ucOpts...), closeAll, nil
}
