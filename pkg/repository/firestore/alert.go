package firestore

import (
	"context"
	"maps"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/query"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type alertRepository struct {
	*base
}

type alertDoc struct {
	ID               int64          `firestore:"id"`
	Title            string         `firestore:"title"`
	Description      string         `firestore:"description"`
	Source           string         `firestore:"source"`
	StatusID         int64          `firestore:"status_id"`
	SeverityID       int64          `firestore:"severity_id"`
	OwnerID          *int64         `firestore:"owner_id"`
	CreationTime     time.Time      `firestore:"creation_time"`
	CustomAttributes map[string]any `firestore:"custom_attributes,omitempty"`
}

func (d *alertDoc) toModel() *model.Alert {
	return &model.Alert{
		ID:               d.ID,
		Title:            d.Title,
		Description:      d.Description,
		Source:           d.Source,
		StatusID:         d.StatusID,
		SeverityID:       d.SeverityID,
		OwnerID:          d.OwnerID,
		CreationTime:     d.CreationTime.UTC(),
		CustomAttributes: d.CustomAttributes,
	}
}

func (r *alertRepository) Create(ctx context.Context, alert *model.Alert) (*model.Alert, error) {
	nextID, err := r.getNextID(ctx, "alert_counter")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get next ID")
	}

	doc := &alertDoc{
		ID:               nextID,
		Title:            alert.Title,
		Description:      alert.Description,
		Source:           alert.Source,
		StatusID:         alert.StatusID,
		SeverityID:       alert.SeverityID,
		OwnerID:          alert.OwnerID,
		CreationTime:     alert.CreationTime.UTC().Truncate(time.Microsecond),
		CustomAttributes: maps.Clone(alert.CustomAttributes),
	}
	if doc.CreationTime.IsZero() {
		doc.CreationTime = time.Now().UTC().Truncate(time.Microsecond)
	}

	if _, err := r.collection(CollectionAlerts).Doc(docID(doc.ID)).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create alert", goerr.V("id", doc.ID))
	}
	return doc.toModel(), nil
}

func (r *alertRepository) Get(ctx context.Context, id int64) (*model.Alert, error) {
	docSnap, err := r.collection(CollectionAlerts).Doc(docID(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "alert not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get alert", goerr.V("id", id))
	}

	var doc alertDoc
	if err := docSnap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode alert", goerr.V("id", id))
	}
	return doc.toModel(), nil
}

func (r *alertRepository) List(ctx context.Context, q query.Query) (*query.Page[*model.Alert], error) {
	iter := r.collection(CollectionAlerts).Documents(ctx)
	defer iter.Stop()

	var alerts []*model.Alert
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate alerts")
		}

		var doc alertDoc
		if err := docSnap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode alert", goerr.V("doc_id", docSnap.Ref.ID))
		}
		alerts = append(alerts, doc.toModel())
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].ID < alerts[j].ID })

	return query.Apply(alerts, q), nil
}
