package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
)

type commentRepository struct {
	mu       sync.RWMutex
	comments map[int64]*model.Comment
	links    map[int64]model.CommentLink // key = comment ID
	nextID   int64
}

func newCommentRepository() *commentRepository {
	return &commentRepository{
		comments: make(map[int64]*model.Comment),
		links:    make(map[int64]model.CommentLink),
		nextID:   1,
	}
}

func copyComment(c *model.Comment) *model.Comment {
	copied := *c
	return &copied
}

func (r *commentRepository) Create(ctx context.Context, c *model.Comment, objType types.ObjectType, objectID int64) (*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyComment(c)
	created.ID = r.nextID
	created.CreatedAt = now
	created.UpdatedAt = now
	r.nextID++

	r.comments[created.ID] = created
	r.links[created.ID] = model.CommentLink{CommentID: created.ID, ObjectType: objType, ObjectID: objectID}
	return copyComment(created), nil
}

func (r *commentRepository) lookup(objType types.ObjectType, objectID, commentID int64) (*model.Comment, error) {
	link, exists := r.links[commentID]
	if !exists || link.ObjectType != objType || link.ObjectID != objectID {
		return nil, goerr.Wrap(ErrNotFound, "comment not found",
			goerr.V("comment_id", commentID),
			goerr.V("object_type", objType),
			goerr.V("object_id", objectID))
	}
	return r.comments[commentID], nil
}

func (r *commentRepository) Get(ctx context.Context, objType types.ObjectType, objectID, commentID int64) (*model.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, err := r.lookup(objType, objectID, commentID)
	if err != nil {
		return nil, err
	}
	return copyComment(c), nil
}

func (r *commentRepository) List(ctx context.Context, objType types.ObjectType, objectID int64) ([]*model.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	comments := []*model.Comment{}
	for id, link := range r.links {
		if link.ObjectType == objType && link.ObjectID == objectID {
			comments = append(comments, copyComment(r.comments[id]))
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, c *model.Comment) (*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.comments[c.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "comment not found", goerr.V("comment_id", c.ID))
	}

	updated := copyComment(existing)
	updated.Text = c.Text
	updated.UpdatedAt = time.Now().UTC()
	r.comments[c.ID] = updated
	return copyComment(updated), nil
}

func (r *commentRepository) Delete(ctx context.Context, objType types.ObjectType, objectID, commentID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.lookup(objType, objectID, commentID); err != nil {
		return err
	}
	delete(r.comments, commentID)
	delete(r.links, commentID)
	return nil
}
