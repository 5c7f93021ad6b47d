package firestore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type caseRepository struct {
	*base
}

type caseDoc struct {
	ID          int64     `firestore:"id"`
	Name        string    `firestore:"name"`
	Description string    `firestore:"description"`
	UserID      int64     `firestore:"user_id"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

func (d *caseDoc) toModel() *model.Case {
	return &model.Case{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		UserID:      d.UserID,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type stateDoc struct {
	CaseID    int64     `firestore:"case_id"`
	Object    string    `firestore:"object"`
	Revision  int64     `firestore:"revision"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func (d *stateDoc) toModel() *model.ObjectState {
	return &model.ObjectState{
		CaseID:    d.CaseID,
		Object:    types.ObjectType(d.Object),
		Revision:  d.Revision,
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func stateDocID(caseID int64, obj types.ObjectType) string {
	return fmt.Sprintf("%d_%s", caseID, obj)
}

func (r *caseRepository) Create(ctx context.Context, c *model.Case) (*model.Case, error) {
	nextID, err := r.getNextID(ctx, "case_counter")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get next ID")
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	doc := &caseDoc{
		ID:          nextID,
		Name:        c.Name,
		Description: c.Description,
		UserID:      c.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := r.collection(CollectionCases).Doc(docID(doc.ID)).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create case", goerr.V("id", doc.ID))
	}

	return doc.toModel(), nil
}

func (r *caseRepository) Get(ctx context.Context, id int64) (*model.Case, error) {
	docSnap, err := r.collection(CollectionCases).Doc(docID(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get case", goerr.V("id", id))
	}

	var doc caseDoc
	if err := docSnap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode case", goerr.V("id", id))
	}

	return doc.toModel(), nil
}

func (r *caseRepository) List(ctx context.Context) ([]*model.Case, error) {
	iter := r.collection(CollectionCases).Documents(ctx)
	defer iter.Stop()

	cases := []*model.Case{}
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate cases")
		}

		var doc caseDoc
		if err := docSnap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode case", goerr.V("doc_id", docSnap.Ref.ID))
		}

		cases = append(cases, doc.toModel())
	}

	sort.Slice(cases, func(i, j int) bool { return cases[i].ID < cases[j].ID })
	return cases, nil
}

func (r *caseRepository) Delete(ctx context.Context, id int64) error {
	docRef := r.collection(CollectionCases).Doc(docID(id))

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to check case existence", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete case", goerr.V("id", id))
	}

	for _, name := range []string{CollectionObjectStates, CollectionIOCLinks} {
		if err := r.deleteWhere(ctx, r.collection(name).Where("case_id", "==", id)); err != nil {
			return goerr.Wrap(err, "failed to delete case references",
				goerr.V("id", id),
				goerr.V("collection", name))
		}
	}

	return nil
}

// deleteWhere removes every document matched by q
func (b *base) deleteWhere(ctx context.Context, q firestore.Query) error {
	iter := q.Documents(ctx)
	defer iter.Stop()

	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate documents")
		}
		if _, err := docSnap.Ref.Delete(ctx); err != nil {
			return goerr.Wrap(err, "failed to delete document", goerr.V("doc_id", docSnap.Ref.ID))
		}
	}
}

func (r *caseRepository) BumpState(ctx context.Context, caseID int64, obj types.ObjectType) (*model.ObjectState, error) {
	ref := r.collection(CollectionObjectStates).Doc(stateDocID(caseID, obj))

	var state stateDoc
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		state = stateDoc{CaseID: caseID, Object: string(obj)}

		docSnap, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to get object state")
		}
		if err == nil {
			if err := docSnap.DataTo(&state); err != nil {
				return goerr.Wrap(err, "failed to decode object state")
			}
		}

		state.Revision++
		state.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
		return tx.Set(ref, &state)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to bump object state",
			goerr.V("case_id", caseID),
			goerr.V("object", obj))
	}

	return state.toModel(), nil
}

func (r *caseRepository) GetState(ctx context.Context, caseID int64, obj types.ObjectType) (*model.ObjectState, error) {
	docSnap, err := r.collection(CollectionObjectStates).Doc(stateDocID(caseID, obj)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "object state not found",
				goerr.V("case_id", caseID),
				goerr.V("object", obj))
		}
		return nil, goerr.Wrap(err, "failed to get object state", goerr.V("case_id", caseID))
	}

	var doc stateDoc
	if err := docSnap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode object state", goerr.V("case_id", caseID))
	}
	return doc.toModel(), nil
}
