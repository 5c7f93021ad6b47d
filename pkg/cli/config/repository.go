package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/interfaces"
	"github.com/secmon-lab/caseflow/pkg/repository/firestore"
	"github.com/secmon-lab/caseflow/pkg/repository/memory"
	"github.com/secmon-lab/caseflow/pkg/repository/sqldb"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Repository backends
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend     string
	projectID   string
	databaseID  string
	sqlitePath  string
	postgresDSN string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (memory, firestore, sqlite or postgres)",
			Category:    "Repository",
			Value:       BackendMemory,
			Sources:     cli.EnvVars("CASEFLOW_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("CASEFLOW_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Repository",
			Sources:     cli.EnvVars("CASEFLOW_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
		&cli.StringFlag{
			Name:        "sqlite-path",
			Usage:       "SQLite database file (required when using sqlite backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("CASEFLOW_SQLITE_PATH"),
			Destination: &r.sqlitePath,
		},
		&cli.StringFlag{
			Name:        "postgres-dsn",
			Usage:       "PostgreSQL connection string (required when using postgres backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("CASEFLOW_POSTGRES_DSN"),
			Destination: &r.postgresDSN,
		},
	}
}

func (r Repository) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", r.backend),
		slog.String("firestore_project_id", r.projectID),
		slog.String("firestore_database_id", r.databaseID),
		slog.String("sqlite_path", r.sqlitePath),
		slog.Int("postgres_dsn.len", len(r.postgresDSN)),
	)
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// ProjectID returns the Firestore project ID
func (r *Repository) ProjectID() string {
	return r.projectID
}

// DatabaseID returns the Firestore database ID
func (r *Repository) DatabaseID() string {
	return r.databaseID
}

// IsSQL reports whether the backend is a relational database
func (r *Repository) IsSQL() bool {
	return r.backend == BackendSQLite || r.backend == BackendPostgres
}

// Configure initializes and returns a repository based on the configured backend.
// The caller is responsible for calling Close() on the returned repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case BackendFirestore:
		if r.projectID == "" {
			return nil, goerr.Wrap(ErrMissingParameter, "firestore-project-id is required when using firestore backend",
				goerr.V(FlagKey, "firestore-project-id"))
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
		)
		return repo, nil

	case BackendSQLite, BackendPostgres:
		return r.OpenSQL(ctx)

	case BackendMemory:
		logging.Default().Info("Using in-memory repository (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid repository backend", goerr.V(BackendKey, r.backend))
	}
}

// OpenSQL opens the relational backend without touching the schema
func (r *Repository) OpenSQL(ctx context.Context) (*sqldb.DB, error) {
	var dialect sqldb.Dialect
	var dsn string

	switch r.backend {
	case BackendSQLite:
		if r.sqlitePath == "" {
			return nil, goerr.Wrap(ErrMissingParameter, "sqlite-path is required when using sqlite backend",
				goerr.V(FlagKey, "sqlite-path"))
		}
		dialect, dsn = sqldb.DialectSQLite, r.sqlitePath
	case BackendPostgres:
		if r.postgresDSN == "" {
			return nil, goerr.Wrap(ErrMissingParameter, "postgres-dsn is required when using postgres backend",
				goerr.V(FlagKey, "postgres-dsn"))
		}
		dialect, dsn = sqldb.DialectPostgres, r.postgresDSN
	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "backend is not a SQL database", goerr.V(BackendKey, r.backend))
	}

	db, err := sqldb.New(ctx, dialect, dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize SQL repository", goerr.V(BackendKey, r.backend))
	}
	logging.Default().Info("Using SQL repository", "dialect", dialect)
	return db, nil
}
