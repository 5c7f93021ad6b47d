package firestore

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/query"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type iocRepository struct {
	*base
}

type iocDoc struct {
	ID               int64          `firestore:"id"`
	Value            string         `firestore:"value"`
	TypeID           int64          `firestore:"type_id"`
	TLPID            int64          `firestore:"tlp_id"`
	Description      string         `firestore:"description"`
	Tags             string         `firestore:"tags"`
	CustomAttributes map[string]any `firestore:"custom_attributes,omitempty"`
	UserID           int64          `firestore:"user_id"`
	CreatedAt        time.Time      `firestore:"created_at"`
	UpdatedAt        time.Time      `firestore:"updated_at"`
}

func newIOCDoc(ioc *model.IOC) *iocDoc {
	return &iocDoc{
		ID:               ioc.ID,
		Value:            ioc.Value,
		TypeID:           ioc.TypeID,
		TLPID:            ioc.TLPID,
		Description:      ioc.Description,
		Tags:             ioc.Tags,
		CustomAttributes: maps.Clone(ioc.CustomAttributes),
		UserID:           ioc.UserID,
		CreatedAt:        ioc.CreatedAt,
		UpdatedAt:        ioc.UpdatedAt,
	}
}

func (d *iocDoc) toModel() *model.IOC {
	return &model.IOC{
		ID:               d.ID,
		Value:            d.Value,
		TypeID:           d.TypeID,
		TLPID:            d.TLPID,
		Description:      d.Description,
		Tags:             d.Tags,
		CustomAttributes: d.CustomAttributes,
		UserID:           d.UserID,
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}
}

type linkDoc struct {
	IOCID     int64     `firestore:"ioc_id"`
	CaseID    int64     `firestore:"case_id"`
	CreatedAt time.Time `firestore:"created_at"`
}

func linkDocID(iocID, caseID int64) string {
	return fmt.Sprintf("%d_%d", iocID, caseID)
}

func (r *iocRepository) byValue(value string, typeID int64) firestore.Query {
	return r.collection(CollectionIOCs).
		Where("value", "==", value).
		Where("type_id", "==", typeID).
		Limit(1)
}

func (r *iocRepository) Create(ctx context.Context, ioc *model.IOC) (*model.IOC, error) {
	nextID, err := r.getNextID(ctx, "ioc_counter")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get next ID")
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	doc := newIOCDoc(ioc)
	doc.ID = nextID
	doc.CreatedAt = now
	doc.UpdatedAt = now

	err = r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Documents(r.byValue(ioc.Value, ioc.TypeID)).GetAll()
		if err != nil {
			return goerr.Wrap(err, "failed to look up IOC value")
		}
		if len(existing) > 0 {
			return goerr.Wrap(ErrAlreadyExists, "IOC already exists",
				goerr.V("value", ioc.Value),
				goerr.V("type_id", ioc.TypeID))
		}
		return tx.Create(r.collection(CollectionIOCs).Doc(docID(doc.ID)), doc)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create IOC", goerr.V("id", doc.ID))
	}

	return doc.toModel(), nil
}

func (r *iocRepository) Get(ctx context.Context, id int64) (*model.IOC, error) {
	docSnap, err := r.collection(CollectionIOCs).Doc(docID(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "IOC not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get IOC", goerr.V("id", id))
	}

	var doc iocDoc
	if err := docSnap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode IOC", goerr.V("id", id))
	}
	return doc.toModel(), nil
}

func (r *iocRepository) FindByValue(ctx context.Context, value string, typeID int64) (*model.IOC, error) {
	iter := r.byValue(value, typeID).Documents(ctx)
	defer iter.Stop()

	docSnap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find IOC",
			goerr.V("value", value),
			goerr.V("type_id", typeID))
	}

	var doc iocDoc
	if err := docSnap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode IOC", goerr.V("doc_id", docSnap.Ref.ID))
	}
	return doc.toModel(), nil
}

func (r *iocRepository) Update(ctx context.Context, ioc *model.IOC) (*model.IOC, error) {
	existing, err := r.Get(ctx, ioc.ID)
	if err != nil {
		return nil, err
	}

	doc := newIOCDoc(ioc)
	doc.CreatedAt = existing.CreatedAt
	doc.UserID = existing.UserID
	doc.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	if _, err := r.collection(CollectionIOCs).Doc(docID(ioc.ID)).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to update IOC", goerr.V("id", ioc.ID))
	}
	return doc.toModel(), nil
}

func (r *iocRepository) Delete(ctx context.Context, id int64) error {
	docRef := r.collection(CollectionIOCs).Doc(docID(id))

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "IOC not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to check IOC existence", goerr.V("id", id))
	}

	if err := r.deleteWhere(ctx, r.collection(CollectionIOCLinks).Where("ioc_id", "==", id)); err != nil {
		return goerr.Wrap(err, "failed to delete IOC links", goerr.V("id", id))
	}
	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete IOC", goerr.V("id", id))
	}
	return nil
}

func (r *iocRepository) Link(ctx context.Context, iocID, caseID int64) (bool, error) {
	if _, err := r.Get(ctx, iocID); err != nil {
		return false, err
	}

	link := &linkDoc{IOCID: iocID, CaseID: caseID, CreatedAt: time.Now().UTC()}
	_, err := r.collection(CollectionIOCLinks).Doc(linkDocID(iocID, caseID)).Create(ctx, link)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to link IOC",
			goerr.V("ioc_id", iocID),
			goerr.V("case_id", caseID))
	}
	return true, nil
}

func (r *iocRepository) Unlink(ctx context.Context, iocID, caseID int64) error {
	docRef := r.collection(CollectionIOCLinks).Doc(linkDocID(iocID, caseID))
	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "IOC link not found",
				goerr.V("ioc_id", iocID),
				goerr.V("case_id", caseID))
		}
		return goerr.Wrap(err, "failed to check IOC link", goerr.V("ioc_id", iocID))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to unlink IOC",
			goerr.V("ioc_id", iocID),
			goerr.V("case_id", caseID))
	}
	return nil
}

func (r *iocRepository) IsLinked(ctx context.Context, iocID, caseID int64) (bool, error) {
	_, err := r.collection(CollectionIOCLinks).Doc(linkDocID(iocID, caseID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to check IOC link",
			goerr.V("ioc_id", iocID),
			goerr.V("case_id", caseID))
	}
	return true, nil
}

func (r *iocRepository) links(ctx context.Context, q firestore.Query) ([]*linkDoc, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var links []*linkDoc
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			return links, nil
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate IOC links")
		}

		var link linkDoc
		if err := docSnap.DataTo(&link); err != nil {
			return nil, goerr.Wrap(err, "failed to decode IOC link", goerr.V("doc_id", docSnap.Ref.ID))
		}
		links = append(links, &link)
	}
}

func (r *iocRepository) LinkedCases(ctx context.Context, iocID int64) ([]int64, error) {
	links, err := r.links(ctx, r.collection(CollectionIOCLinks).Where("ioc_id", "==", iocID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list linked cases", goerr.V("ioc_id", iocID))
	}

	caseIDs := make([]int64, 0, len(links))
	for _, link := range links {
		caseIDs = append(caseIDs, link.CaseID)
	}
	sort.Slice(caseIDs, func(i, j int) bool { return caseIDs[i] < caseIDs[j] })
	return caseIDs, nil
}

// ListByCase loads every IOC linked to the case and evaluates the query in process.
// Firestore can not combine the substring filters with its own indexes.
func (r *iocRepository) ListByCase(ctx context.Context, caseID int64, q query.Query) (*query.Page[*model.IOC], error) {
	links, err := r.links(ctx, r.collection(CollectionIOCLinks).Where("case_id", "==", caseID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list IOC links", goerr.V("case_id", caseID))
	}

	refs := make([]*firestore.DocumentRef, 0, len(links))
	for _, link := range links {
		refs = append(refs, r.collection(CollectionIOCs).Doc(docID(link.IOCID)))
	}

	var iocs []*model.IOC
	if len(refs) > 0 {
		snaps, err := r.client.GetAll(ctx, refs)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get linked IOCs", goerr.V("case_id", caseID))
		}
		for _, snap := range snaps {
			if !snap.Exists() {
				continue
			}
			var doc iocDoc
			if err := snap.DataTo(&doc); err != nil {
				return nil, goerr.Wrap(err, "failed to decode IOC", goerr.V("doc_id", snap.Ref.ID))
			}
			iocs = append(iocs, doc.toModel())
		}
	}
	sort.Slice(iocs, func(i, j int) bool { return iocs[i].ID < iocs[j].ID })

	return query.Apply(iocs, q), nil
}
