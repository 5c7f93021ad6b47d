package cli_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/caseflow/pkg/cli"
	"github.com/secmon-lab/caseflow/pkg/domain/model/auth"
	"github.com/secmon-lab/caseflow/pkg/repository/sqldb"
	"github.com/secmon-lab/caseflow/pkg/usecase"
)

func writeCSV(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "iocs.csv")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()
	return path
}

func TestRun_ImportCommand(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "caseflow.db")
	csvPath := writeCSV(t, dir, "ioc_value,ioc_type,ioc_description,ioc_tags,ioc_tlp\n"+
		"evil.example.com,domain,c2 server,\"c2,dns\",red\n"+
		"44d88612fea8a8f36de82e1278abb02f,md5,eicar,,amber\n")

	args := []string{"caseflow", "--log-output", "stderr", "import",
		"--repository-backend", "sqlite",
		"--sqlite-path", dbPath,
		"--file", csvPath,
	}
	gt.NoError(t, cli.Run(ctx, args, "test")).Required()

	db, err := sqldb.New(ctx, sqldb.DialectSQLite, dbPath)
	gt.NoError(t, err).Required()
	defer func() { gt.NoError(t, db.Close()) }()

	uc := usecase.New(db)
	iocs, err := uc.IOC.ListDetailed(auth.ContextWithUser(ctx, auth.NewAnonymousUser()), 1)
	gt.NoError(t, err).Required()
	gt.Array(t, iocs).Length(2)

	t.Run("rows already linked fail the second run", func(t *testing.T) {
		err := cli.Run(ctx, args, "test")
		gt.Error(t, err).Is(cli.ErrImportRowsFailed)
	})
}

func TestRun_ImportCommand_UnknownCase(t *testing.T) {
	csvPath := writeCSV(t, t.TempDir(), "ioc_value,ioc_type,ioc_description,ioc_tags,ioc_tlp\n")
	err := cli.Run(context.Background(), []string{"caseflow", "--log-output", "stderr", "import",
		"--repository-backend", "memory",
		"--case", "42",
		"--file", csvPath,
	}, "test")
	gt.Error(t, err)
}

func TestRun_MigrateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "caseflow.db")

	t.Run("sqlite", func(t *testing.T) {
		gt.NoError(t, cli.Run(context.Background(), []string{"caseflow", "--log-output", "stderr", "migrate",
			"--repository-backend", "sqlite",
			"--sqlite-path", dbPath,
		}, "test"))
	})

	t.Run("memory has nothing to migrate", func(t *testing.T) {
		gt.Error(t, cli.Run(context.Background(), []string{"caseflow", "--log-output", "stderr", "migrate",
			"--repository-backend", "memory",
		}, "test"))
	})
}

func TestRun_TokenCommand(t *testing.T) {
	t.Run("requires a secret", func(t *testing.T) {
		gt.Error(t, cli.Run(context.Background(), []string{"caseflow", "--log-output", "stderr", "token",
			"--user-id", "3",
		}, "test"))
	})

	t.Run("issues a token", func(t *testing.T) {
		gt.NoError(t, cli.Run(context.Background(), []string{"caseflow", "--log-output", "stderr", "token",
			"--user-id", "3",
			"--jwt-secret", "0123456789abcdef0123456789abcdef",
		}, "test"))
	})
}

func TestRun_InvalidLogLevel(t *testing.T) {
	err := cli.Run(context.Background(), []string{"caseflow", "--log-level", "verbose", "migrate"}, "test")
	gt.Error(t, err)
}
