package sqldb

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS cases (
		id {{serial}},
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		user_id BIGINT NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS object_states (
		case_id BIGINT NOT NULL,
		object TEXT NOT NULL,
		revision BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		PRIMARY KEY (case_id, object)
	)`,
	`CREATE TABLE IF NOT EXISTS iocs (
		id {{serial}},
		value TEXT NOT NULL,
		type_id BIGINT NOT NULL,
		tlp_id BIGINT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '',
		custom_attributes TEXT NOT NULL DEFAULT '',
		user_id BIGINT NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		UNIQUE (value, type_id)
	)`,
	`CREATE TABLE IF NOT EXISTS ioc_links (
		ioc_id BIGINT NOT NULL REFERENCES iocs(id) ON DELETE CASCADE,
		case_id BIGINT NOT NULL,
		PRIMARY KEY (ioc_id, case_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ioc_links_case ON ioc_links (case_id)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id {{serial}},
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		status_id BIGINT NOT NULL,
		severity_id BIGINT NOT NULL,
		owner_id BIGINT,
		creation_time BIGINT NOT NULL,
		custom_attributes TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_creation_time ON alerts (creation_time)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id {{serial}},
		text TEXT NOT NULL,
		user_id BIGINT NOT NULL DEFAULT 0,
		case_id BIGINT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS comment_links (
		comment_id BIGINT PRIMARY KEY REFERENCES comments(id) ON DELETE CASCADE,
		object_type TEXT NOT NULL,
		object_id BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comment_links_object ON comment_links (object_type, object_id)`,
}

func (x *DB) serialType() string {
	if x.dialect == DialectPostgres {
		return "BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// Migrate creates the tables and indexes that do not exist yet
func (x *DB) Migrate(ctx context.Context) error {
	logger := logging.From(ctx)
	for _, stmt := range schemaStatements {
		stmt = strings.ReplaceAll(stmt, "{{serial}}", x.serialType())
		if _, err := x.db.ExecContext(ctx, stmt); err != nil {
			return goerr.Wrap(err, "failed to apply schema", goerr.V("statement", stmt))
		}
	}
	logger.Info("SQL schema is up to date", "dialect", x.dialect)
	return nil
}
