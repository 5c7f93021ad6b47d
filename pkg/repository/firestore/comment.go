package firestore

import (
	"context"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type commentRepository struct {
	*base
}

// commentDoc stores the parent link inline with the comment
type commentDoc struct {
	ID         int64     `firestore:"id"`
	Text       string    `firestore:"text"`
	UserID     int64     `firestore:"user_id"`
	CaseID     int64     `firestore:"case_id"`
	ObjectType string    `firestore:"object_type"`
	ObjectID   int64     `firestore:"object_id"`
	CreatedAt  time.Time `firestore:"created_at"`
	UpdatedAt  time.Time `firestore:"updated_at"`
}

func (d *commentDoc) toModel() *model.Comment {
	return &model.Comment{
		ID:        d.ID,
		Text:      d.Text,
		UserID:    d.UserID,
		CaseID:    d.CaseID,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func commentNotFound(objType types.ObjectType, objectID, commentID int64) error {
	return goerr.Wrap(ErrNotFound, "comment not found",
		goerr.V("comment_id", commentID),
		goerr.V("object_type", objType),
		goerr.V("object_id", objectID))
}

func (r *commentRepository) Create(ctx context.Context, c *model.Comment, objType types.ObjectType, objectID int64) (*model.Comment, error) {
	nextID, err := r.getNextID(ctx, "comment_counter")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get next ID")
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	doc := &commentDoc{
		ID:         nextID,
		Text:       c.Text,
		UserID:     c.UserID,
		CaseID:     c.CaseID,
		ObjectType: string(objType),
		ObjectID:   objectID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := r.collection(CollectionComments).Doc(docID(doc.ID)).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create comment", goerr.V("id", doc.ID))
	}
	return doc.toModel(), nil
}

func (r *commentRepository) lookup(ctx context.Context, objType types.ObjectType, objectID, commentID int64) (*commentDoc, error) {
	docSnap, err := r.collection(CollectionComments).Doc(docID(commentID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, commentNotFound(objType, objectID, commentID)
		}
		return nil, goerr.Wrap(err, "failed to get comment", goerr.V("comment_id", commentID))
	}

	var doc commentDoc
	if err := docSnap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode comment", goerr.V("comment_id", commentID))
	}
	if doc.ObjectType != string(objType) || doc.ObjectID != objectID {
		return nil, commentNotFound(objType, objectID, commentID)
	}
	return &doc, nil
}

func (r *commentRepository) Get(ctx context.Context, objType types.ObjectType, objectID, commentID int64) (*model.Comment, error) {
	doc, err := r.lookup(ctx, objType, objectID, commentID)
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *commentRepository) List(ctx context.Context, objType types.ObjectType, objectID int64) ([]*model.Comment, error) {
	iter := r.collection(CollectionComments).
		Where("object_type", "==", string(objType)).
		Where("object_id", "==", objectID).
		Documents(ctx)
	defer iter.Stop()

	comments := []*model.Comment{}
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate comments")
		}

		var doc commentDoc
		if err := docSnap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode comment", goerr.V("doc_id", docSnap.Ref.ID))
		}
		comments = append(comments, doc.toModel())
	}

	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, c *model.Comment) (*model.Comment, error) {
	docRef := r.collection(CollectionComments).Doc(docID(c.ID))
	docSnap, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "comment not found", goerr.V("comment_id", c.ID))
		}
		return nil, goerr.Wrap(err, "failed to get comment", goerr.V("comment_id", c.ID))
	}

	var doc commentDoc
	if err := docSnap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode comment", goerr.V("comment_id", c.ID))
	}
	doc.Text = c.Text
	doc.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	if _, err := docRef.Set(ctx, &doc); err != nil {
		return nil, goerr.Wrap(err, "failed to update comment", goerr.V("comment_id", c.ID))
	}
	return doc.toModel(), nil
}

func (r *commentRepository) Delete(ctx context.Context, objType types.ObjectType, objectID, commentID int64) error {
	if _, err := r.lookup(ctx, objType, objectID, commentID); err != nil {
		return err
	}
	if _, err := r.collection(CollectionComments).Doc(docID(commentID)).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete comment", goerr.V("comment_id", commentID))
	}
	return nil
}
