package sqldb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/query"
)

type iocRepository struct {
	*DB
}

const iocColumns = "i.id, i.value, i.type_id, i.tlp_id, i.description, i.tags, i.custom_attributes, i.user_id, i.created_at, i.updated_at"

var iocColumnMap = columnMap{
	model.IOCFieldID:          {name: "i.id"},
	model.IOCFieldValue:       {name: "i.value", isText: true},
	model.IOCFieldTypeID:      {name: "i.type_id"},
	model.IOCFieldTLPID:       {name: "i.tlp_id"},
	model.IOCFieldDescription: {name: "i.description", isText: true},
	model.IOCFieldTags:        {name: "i.tags", isText: true},
	model.IOCFieldUserID:      {name: "i.user_id"},
	model.IOCFieldCreatedAt:   {name: "i.created_at", isTime: true},
}

func scanIOC(row rowScanner) (*model.IOC, error) {
	var ioc model.IOC
	var attrs string
	var createdAt, updatedAt int64
	if err := row.Scan(&ioc.ID, &ioc.Value, &ioc.TypeID, &ioc.TLPID, &ioc.Description, &ioc.Tags,
		&attrs, &ioc.UserID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	decoded, err := decodeAttrs(attrs)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid IOC record", goerr.V("id", ioc.ID))
	}
	ioc.CustomAttributes = decoded
	ioc.CreatedAt = fromMicro(createdAt)
	ioc.UpdatedAt = fromMicro(updatedAt)
	return &ioc, nil
}

func (r *iocRepository) Create(ctx context.Context, ioc *model.IOC) (*model.IOC, error) {
	if existing, err := r.FindByValue(ctx, ioc.Value, ioc.TypeID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, goerr.Wrap(ErrAlreadyExists, "IOC already exists",
			goerr.V("value", ioc.Value),
			goerr.V("type_id", ioc.TypeID))
	}

	return r.insert(ctx, ioc)
}

// insert stores a new IOC. A concurrent insert of the same value and type yields ErrAlreadyExists.
func (r *iocRepository) insert(ctx context.Context, ioc *model.IOC) (*model.IOC, error) {
	attrs, err := encodeAttrs(ioc.CustomAttributes)
	if err != nil {
		return nil, err
	}

	ts := now()
	created := ioc.Copy()
	created.CreatedAt = ts
	created.UpdatedAt = ts

	err = r.queryRow(ctx,
		`INSERT INTO iocs (value, type_id, tlp_id, description, tags, custom_attributes, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		created.Value, created.TypeID, created.TLPID, created.Description, created.Tags,
		attrs, created.UserID, toMicro(ts), toMicro(ts),
	).Scan(&created.ID)
	if isUniqueViolation(err) {
		return nil, goerr.Wrap(ErrAlreadyExists, "IOC already exists",
			goerr.V("value", ioc.Value),
			goerr.V("type_id", ioc.TypeID),
			goerr.V("cause", err.Error()))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert IOC",
			goerr.V("value", ioc.Value),
			goerr.V("type_id", ioc.TypeID))
	}
	return created, nil
}

func (r *iocRepository) Get(ctx context.Context, id int64) (*model.IOC, error) {
	ioc, err := scanIOC(r.queryRow(ctx, "SELECT "+iocColumns+" FROM iocs i WHERE i.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(ErrNotFound, "IOC not found", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get IOC", goerr.V("id", id))
	}
	return ioc, nil
}

func (r *iocRepository) FindByValue(ctx context.Context, value string, typeID int64) (*model.IOC, error) {
	ioc, err := scanIOC(r.queryRow(ctx,
		"SELECT "+iocColumns+" FROM iocs i WHERE i.value = ? AND i.type_id = ?", value, typeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find IOC",
			goerr.V("value", value),
			goerr.V("type_id", typeID))
	}
	return ioc, nil
}

func (r *iocRepository) Update(ctx context.Context, ioc *model.IOC) (*model.IOC, error) {
	existing, err := r.Get(ctx, ioc.ID)
	if err != nil {
		return nil, err
	}

	attrs, err := encodeAttrs(ioc.CustomAttributes)
	if err != nil {
		return nil, err
	}

	updated := ioc.Copy()
	updated.CreatedAt = existing.CreatedAt
	updated.UserID = existing.UserID
	updated.UpdatedAt = now()

	if _, err := r.exec(ctx,
		`UPDATE iocs SET value = ?, type_id = ?, tlp_id = ?, description = ?, tags = ?, custom_attributes = ?, updated_at = ?
		WHERE id = ?`,
		updated.Value, updated.TypeID, updated.TLPID, updated.Description, updated.Tags, attrs,
		toMicro(updated.UpdatedAt), updated.ID,
	); err != nil {
		return nil, goerr.Wrap(err, "failed to update IOC", goerr.V("id", ioc.ID))
	}
	return updated, nil
}

func (r *iocRepository) Delete(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, r.rebind("DELETE FROM ioc_links WHERE ioc_id = ?"), id); err != nil {
			return goerr.Wrap(err, "failed to delete IOC links", goerr.V("id", id))
		}
		res, err := tx.ExecContext(ctx, r.rebind("DELETE FROM iocs WHERE id = ?"), id)
		if err != nil {
			return goerr.Wrap(err, "failed to delete IOC", goerr.V("id", id))
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return goerr.Wrap(ErrNotFound, "IOC not found", goerr.V("id", id))
		}
		return nil
	})
}

func (r *iocRepository) Link(ctx context.Context, iocID, caseID int64) (bool, error) {
	if _, err := r.Get(ctx, iocID); err != nil {
		return false, err
	}

	res, err := r.exec(ctx,
		"INSERT INTO ioc_links (ioc_id, case_id) VALUES (?, ?) ON CONFLICT DO NOTHING", iocID, caseID)
	if err != nil {
		return false, goerr.Wrap(err, "failed to link IOC",
			goerr.V("ioc_id", iocID),
			goerr.V("case_id", caseID))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, goerr.Wrap(err, "failed to get affected rows")
	}
	return n > 0, nil
}

func (r *iocRepository) Unlink(ctx context.Context, iocID, caseID int64) error {
	res, err := r.exec(ctx, "DELETE FROM ioc_links WHERE ioc_id = ? AND case_id = ?", iocID, caseID)
	if err != nil {
		return goerr.Wrap(err, "failed to unlink IOC",
			goerr.V("ioc_id", iocID),
			goerr.V("case_id", caseID))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return goerr.Wrap(ErrNotFound, "IOC link not found",
			goerr.V("ioc_id", iocID),
			goerr.V("case_id", caseID))
	}
	return nil
}

func (r *iocRepository) IsLinked(ctx context.Context, iocID, caseID int64) (bool, error) {
	var n int64
	if err := r.queryRow(ctx,
		"SELECT COUNT(*) FROM ioc_links WHERE ioc_id = ? AND case_id = ?", iocID, caseID,
	).Scan(&n); err != nil {
		return false, goerr.Wrap(err, "failed to check IOC link",
			goerr.V("ioc_id", iocID),
			goerr.V("case_id", caseID))
	}
	return n > 0, nil
}

func (r *iocRepository) LinkedCases(ctx context.Context, iocID int64) ([]int64, error) {
	rows, err := r.query(ctx, "SELECT case_id FROM ioc_links WHERE ioc_id = ? ORDER BY case_id ASC", iocID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list linked cases", goerr.V("ioc_id", iocID))
	}
	defer rows.Close()

	caseIDs := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, goerr.Wrap(err, "failed to scan linked case")
		}
		caseIDs = append(caseIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate linked cases")
	}
	return caseIDs, nil
}

func (r *iocRepository) ListByCase(ctx context.Context, caseID int64, q query.Query) (*query.Page[*model.IOC], error) {
	cond, args, err := where(q.Where, iocColumnMap)
	if err != nil {
		return nil, err
	}
	order, err := orderBy(q.Sort, iocColumnMap, "i.id")
	if err != nil {
		return nil, err
	}

	from := " FROM iocs i JOIN ioc_links l ON l.ioc_id = i.id WHERE l.case_id = ? AND (" + cond + ")"
	args = append([]any{caseID}, args...)

	var total int
	if err := r.queryRow(ctx, "SELECT COUNT(*)"+from, args...).Scan(&total); err != nil {
		return nil, goerr.Wrap(err, "failed to count IOCs", goerr.V("case_id", caseID))
	}

	pg := q.Pagination.OrDefault()
	if pg.Beyond(total) {
		return query.NewPage([]*model.IOC{}, total, pg), nil
	}

	offset := pg.Offset()
	rows, err := r.query(ctx, "SELECT "+iocColumns+from+order+" LIMIT ? OFFSET ?",
		append(args, min(pg.PerPage, total-offset), offset)...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list IOCs", goerr.V("case_id", caseID))
	}
	defer rows.Close()

	var iocs []*model.IOC
	for rows.Next() {
		ioc, err := scanIOC(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan IOC")
		}
		iocs = append(iocs, ioc)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate IOCs")
	}

	return query.NewPage(iocs, total, pg), nil
}
