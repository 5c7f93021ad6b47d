package sqldb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
)

type caseRepository struct {
	*DB
}

const caseColumns = "id, name, description, user_id, created_at, updated_at"

func scanCase(row rowScanner) (*model.Case, error) {
	var c model.Case
	var createdAt, updatedAt int64
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.UserID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = fromMicro(createdAt)
	c.UpdatedAt = fromMicro(updatedAt)
	return &c, nil
}

func (r *caseRepository) Create(ctx context.Context, c *model.Case) (*model.Case, error) {
	ts := now()
	created := *c
	created.CreatedAt = ts
	created.UpdatedAt = ts

	err := r.queryRow(ctx,
		"INSERT INTO cases (name, description, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?) RETURNING id",
		created.Name, created.Description, created.UserID, toMicro(ts), toMicro(ts),
	).Scan(&created.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert case", goerr.V("name", c.Name))
	}
	return &created, nil
}

func (r *caseRepository) Get(ctx context.Context, id int64) (*model.Case, error) {
	c, err := scanCase(r.queryRow(ctx, "SELECT "+caseColumns+" FROM cases WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get case", goerr.V("id", id))
	}
	return c, nil
}

func (r *caseRepository) List(ctx context.Context) ([]*model.Case, error) {
	rows, err := r.query(ctx, "SELECT "+caseColumns+" FROM cases ORDER BY id ASC")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list cases")
	}
	defer rows.Close()

	cases := []*model.Case{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan case")
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate cases")
	}
	return cases, nil
}

func (r *caseRepository) Delete(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, r.rebind("DELETE FROM cases WHERE id = ?"), id)
		if err != nil {
			return goerr.Wrap(err, "failed to delete case", goerr.V("id", id))
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
		}
		if _, err := tx.ExecContext(ctx, r.rebind("DELETE FROM object_states WHERE case_id = ?"), id); err != nil {
			return goerr.Wrap(err, "failed to delete object states", goerr.V("id", id))
		}
		if _, err := tx.ExecContext(ctx, r.rebind("DELETE FROM ioc_links WHERE case_id = ?"), id); err != nil {
			return goerr.Wrap(err, "failed to delete IOC links", goerr.V("id", id))
		}
		return nil
	})
}

func (r *caseRepository) BumpState(ctx context.Context, caseID int64, obj types.ObjectType) (*model.ObjectState, error) {
	ts := now()
	state := &model.ObjectState{CaseID: caseID, Object: obj, UpdatedAt: ts}

	err := r.queryRow(ctx,
		`INSERT INTO object_states (case_id, object, revision, updated_at) VALUES (?, ?, 1, ?)
		ON CONFLICT (case_id, object) DO UPDATE SET revision = object_states.revision + 1, updated_at = excluded.updated_at
		RETURNING revision`,
		caseID, string(obj), toMicro(ts),
	).Scan(&state.Revision)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to bump object state",
			goerr.V("case_id", caseID),
			goerr.V("object", obj))
	}
	return state, nil
}

func (r *caseRepository) GetState(ctx context.Context, caseID int64, obj types.ObjectType) (*model.ObjectState, error) {
	state := &model.ObjectState{CaseID: caseID, Object: obj}
	var updatedAt int64

	err := r.queryRow(ctx,
		"SELECT revision, updated_at FROM object_states WHERE case_id = ? AND object = ?",
		caseID, string(obj),
	).Scan(&state.Revision, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(ErrNotFound, "object state not found",
			goerr.V("case_id", caseID),
			goerr.V("object", obj))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get object state", goerr.V("case_id", caseID))
	}
	state.UpdatedAt = fromMicro(updatedAt)
	return state, nil
}
