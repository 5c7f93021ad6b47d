package sqldb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/query"
)

type alertRepository struct {
	*DB
}

const alertColumns = "id, title, description, source, status_id, severity_id, owner_id, creation_time, custom_attributes"

var alertColumnMap = columnMap{
	model.AlertFieldID:           {name: "id"},
	model.AlertFieldTitle:        {name: "title", isText: true},
	model.AlertFieldDescription:  {name: "description", isText: true},
	model.AlertFieldSource:       {name: "source", isText: true},
	model.AlertFieldStatusID:     {name: "status_id"},
	model.AlertFieldSeverityID:   {name: "severity_id"},
	model.AlertFieldOwnerID:      {name: "owner_id", nullable: true},
	model.AlertFieldCreationTime: {name: "creation_time", isTime: true},
}

func scanAlert(row rowScanner) (*model.Alert, error) {
	var a model.Alert
	var owner sql.NullInt64
	var creationTime int64
	var attrs string
	if err := row.Scan(&a.ID, &a.Title, &a.Description, &a.Source, &a.StatusID, &a.SeverityID,
		&owner, &creationTime, &attrs); err != nil {
		return nil, err
	}

	if owner.Valid {
		id := owner.Int64
		a.OwnerID = &id
	}
	decoded, err := decodeAttrs(attrs)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid alert record", goerr.V("id", a.ID))
	}
	a.CustomAttributes = decoded
	a.CreationTime = fromMicro(creationTime)
	return &a, nil
}

func (r *alertRepository) Create(ctx context.Context, alert *model.Alert) (*model.Alert, error) {
	attrs, err := encodeAttrs(alert.CustomAttributes)
	if err != nil {
		return nil, err
	}

	created := alert.Copy()
	if created.CreationTime.IsZero() {
		created.CreationTime = now()
	} else {
		created.CreationTime = fromMicro(toMicro(created.CreationTime))
	}

	var owner sql.NullInt64
	if created.OwnerID != nil {
		owner = sql.NullInt64{Int64: *created.OwnerID, Valid: true}
	}

	err = r.queryRow(ctx,
		`INSERT INTO alerts (title, description, source, status_id, severity_id, owner_id, creation_time, custom_attributes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		created.Title, created.Description, created.Source, created.StatusID, created.SeverityID,
		owner, toMicro(created.CreationTime), attrs,
	).Scan(&created.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert alert", goerr.V("title", alert.Title))
	}
	return created, nil
}

func (r *alertRepository) Get(ctx context.Context, id int64) (*model.Alert, error) {
	a, err := scanAlert(r.queryRow(ctx, "SELECT "+alertColumns+" FROM alerts WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(ErrNotFound, "alert not found", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get alert", goerr.V("id", id))
	}
	return a, nil
}

func (r *alertRepository) List(ctx context.Context, q query.Query) (*query.Page[*model.Alert], error) {
	cond, args, err := where(q.Where, alertColumnMap)
	if err != nil {
		return nil, err
	}
	order, err := orderBy(q.Sort, alertColumnMap, "id")
	if err != nil {
		return nil, err
	}

	from := " FROM alerts WHERE " + cond

	var total int
	if err := r.queryRow(ctx, "SELECT COUNT(*)"+from, args...).Scan(&total); err != nil {
		return nil, goerr.Wrap(err, "failed to count alerts")
	}

	pg := q.Pagination.OrDefault()
	if pg.Beyond(total) {
		return query.NewPage([]*model.Alert{}, total, pg), nil
	}

	offset := pg.Offset()
	rows, err := r.query(ctx, "SELECT "+alertColumns+from+order+" LIMIT ? OFFSET ?",
		append(args, min(pg.PerPage, total-offset), offset)...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list alerts")
	}
	defer rows.Close()

	var alerts []*model.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan alert")
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate alerts")
	}

	return query.NewPage(alerts, total, pg), nil
}
