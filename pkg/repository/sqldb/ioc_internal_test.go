package sqldb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
)

func newSQLiteDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := New(ctx, DialectSQLite, filepath.Join(t.TempDir(), "caseflow.db"))
	gt.NoError(t, err).Required()
	t.Cleanup(func() { _ = db.Close() })
	gt.NoError(t, db.Migrate(ctx)).Required()
	return db
}

func TestIOCInsert_DuplicateIsAlreadyExists(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()

	ioc := &model.IOC{Value: "10.0.0.1", TypeID: 1, TLPID: 2}
	first, err := db.ioc.insert(ctx, ioc)
	gt.NoError(t, err).Required()
	gt.Number(t, first.ID).Greater(0)

	_, err = db.ioc.insert(ctx, ioc)
	gt.Error(t, err).Is(ErrAlreadyExists)
}

func TestIsUniqueViolation(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()

	const insert = "INSERT INTO iocs (value, type_id, tlp_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)"
	_, err := db.exec(ctx, insert, "evil.example.com", 2, 2, 0, 0)
	gt.NoError(t, err).Required()
	_, err = db.exec(ctx, insert, "evil.example.com", 2, 2, 0, 0)
	gt.Bool(t, isUniqueViolation(err)).True()

	_, err = db.exec(ctx, "INSERT INTO no_such_table (id) VALUES (1)")
	gt.Error(t, err)
	gt.Bool(t, isUniqueViolation(err)).False()
	gt.Bool(t, isUniqueViolation(nil)).False()
}
