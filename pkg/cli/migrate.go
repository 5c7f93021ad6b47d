package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/cli/config"
	"github.com/secmon-lab/caseflow/pkg/repository/firestore"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var repoCfg config.Repository
	var dryRun bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Preview Firestore index changes without applying",
			Destination: &dryRun,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Apply the SQL schema or Firestore indexes of the repository backend",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("Migrate configuration", "repository", repoCfg, "dryRun", dryRun)

			switch {
			case repoCfg.IsSQL():
				return migrateSQL(ctx, &repoCfg, dryRun)
			case repoCfg.Backend() == config.BackendFirestore:
				return migrateFirestore(ctx, &repoCfg, dryRun)
			default:
				return goerr.Wrap(config.ErrInvalidConfig, "backend has nothing to migrate",
					goerr.V(config.BackendKey, repoCfg.Backend()))
			}
		},
	}
}

func migrateSQL(ctx context.Context, repoCfg *config.Repository, dryRun bool) error {
	logger := logging.Default()

	db, err := repoCfg.OpenSQL(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "error", err.Error())
		}
	}()

	if dryRun {
		logger.Info("Dry run mode - the SQL schema only creates missing tables and indexes")
		return nil
	}
	return db.Migrate(ctx)
}

func migrateFirestore(ctx context.Context, repoCfg *config.Repository, dryRun bool) error {
	logger := logging.Default()

	if repoCfg.ProjectID() == "" {
		return goerr.Wrap(config.ErrMissingParameter, "firestore-project-id is required",
			goerr.V(config.FlagKey, "firestore-project-id"))
	}

	client, err := fireconf.NewClient(ctx, repoCfg.ProjectID(), repoCfg.DatabaseID())
	if err != nil {
		return goerr.Wrap(err, "failed to create fireconf client")
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close fireconf client", "error", err.Error())
		}
	}()

	indexConfig := getIndexConfig()

	if dryRun {
		logger.Info("Dry run mode - previewing changes")
		plan, err := client.GetMigrationPlan(ctx, indexConfig)
		if err != nil {
			return goerr.Wrap(err, "failed to create migration plan")
		}

		if len(plan.Steps) == 0 {
			logger.Info("No changes required")
			return nil
		}

		for _, step := range plan.Steps {
			logger.Info("Migration step",
				"collection", step.Collection,
				"operation", step.Operation,
				"description", step.Description,
				"destructive", step.Destructive)
		}
		return nil
	}

	logger.Info("Applying migrations")
	if err := client.Migrate(ctx, indexConfig); err != nil {
		return goerr.Wrap(err, "failed to apply migrations")
	}
	logger.Info("Migrations applied successfully")
	return nil
}

// getIndexConfig returns the Firestore index configuration
func getIndexConfig() *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: firestore.CollectionComments,
				Indexes: []fireconf.Index{
					// comment listing of one object, oldest first
					{
						Fields: []fireconf.IndexField{
							{Path: "object_type", Order: fireconf.OrderAscending},
							{Path: "object_id", Order: fireconf.OrderAscending},
							{Path: "created_at", Order: fireconf.OrderAscending},
						},
					},
				},
			},
			{
				Name: firestore.CollectionIOCs,
				Indexes: []fireconf.Index{
					// duplicate detection: value ASC, type_id ASC
					{
						Fields: []fireconf.IndexField{
							{Path: "value", Order: fireconf.OrderAscending},
							{Path: "type_id", Order: fireconf.OrderAscending},
						},
					},
				},
			},
			{
				Name: firestore.CollectionIOCLinks,
				Indexes: []fireconf.Index{
					{
						Fields: []fireconf.IndexField{
							{Path: "case_id", Order: fireconf.OrderAscending},
							{Path: "ioc_id", Order: fireconf.OrderAscending},
						},
					},
				},
			},
		},
	}
}
