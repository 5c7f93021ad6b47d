package repository_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/caseflow/pkg/domain/interfaces"
	"github.com/secmon-lab/caseflow/pkg/repository/firestore"
	"github.com/secmon-lab/caseflow/pkg/repository/memory"
	"github.com/secmon-lab/caseflow/pkg/repository/sqldb"
)

type repoFactory func(t *testing.T) interfaces.Repository

func newMemory(t *testing.T) interfaces.Repository {
	return memory.New()
}

func newSQLite(t *testing.T) interfaces.Repository {
	ctx := context.Background()
	repo, err := sqldb.New(ctx, sqldb.DialectSQLite, filepath.Join(t.TempDir(), "caseflow.db"))
	gt.NoError(t, err).Required()
	gt.NoError(t, repo.Migrate(ctx)).Required()
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func postgresFactory(t *testing.T) repoFactory {
	dsn := os.Getenv("CASEFLOW_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CASEFLOW_TEST_POSTGRES_DSN not set")
	}

	return func(t *testing.T) interfaces.Repository {
		ctx := context.Background()
		repo, err := sqldb.New(ctx, sqldb.DialectPostgres, dsn)
		gt.NoError(t, err).Required()
		gt.NoError(t, repo.Migrate(ctx)).Required()
		t.Cleanup(func() { _ = repo.Close() })
		return repo
	}
}

func firestoreFactory(t *testing.T) repoFactory {
	projectID := os.Getenv("CASEFLOW_TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("CASEFLOW_TEST_FIRESTORE_PROJECT_ID not set")
	}
	databaseID := os.Getenv("CASEFLOW_TEST_FIRESTORE_DATABASE_ID")

	return func(t *testing.T) interfaces.Repository {
		prefix := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		repo, err := firestore.New(context.Background(), projectID, databaseID,
			firestore.WithCollectionPrefix(prefix))
		gt.NoError(t, err).Required()
		t.Cleanup(func() { _ = repo.Close() })
		return repo
	}
}

// uniq returns a value that does not collide between test runs on shared databases
func uniq(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
