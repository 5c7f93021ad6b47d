package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/interfaces"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/model/auth"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
)

const (
	MsgCommentAdded   = "Event commented"
	MsgCommentEdited  = "Comment edited"
	MsgCommentDeleted = "Successfully deleted comment"
)

// IOCComment is the data handed to the commented hook
type IOCComment struct {
	Comment *model.Comment
	IOC     *model.IOC
}

// CommentUseCase manages the comments of IOCs linked to a case
type CommentUseCase struct {
	repo     interfaces.Repository
	hooks    *HookRegistry
	activity *activity
}

func NewCommentUseCase(repo interfaces.Repository, hooks *HookRegistry, act *activity) *CommentUseCase {
	return &CommentUseCase{repo: repo, hooks: hooks, activity: act}
}

func (uc *CommentUseCase) ioc(ctx context.Context, caseID, iocID int64) (*model.IOC, error) {
	linked, err := uc.repo.IOC().IsLinked(ctx, iocID, caseID)
	if err != nil {
		return nil, internal(err, "failed to check IOC link", goerr.V(IOCIDKey, iocID), goerr.V(CaseIDKey, caseID))
	}
	if !linked {
		return nil, model.NotFoundError(MsgInvalidIOCID, nil)
	}

	ioc, err := uc.repo.IOC().Get(ctx, iocID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, model.NotFoundError(MsgInvalidIOCID, err)
	}
	if err != nil {
		return nil, internal(err, "failed to get IOC", goerr.V(IOCIDKey, iocID))
	}
	return ioc, nil
}

// List returns the comments of an IOC of the case, oldest first
func (uc *CommentUseCase) List(ctx context.Context, caseID, iocID int64) ([]*model.Comment, error) {
	if _, err := uc.ioc(ctx, caseID, iocID); err != nil {
		return nil, err
	}

	comments, err := uc.repo.Comment().List(ctx, types.ObjectIOC, iocID)
	if err != nil {
		return nil, internal(err, "failed to list comments", goerr.V(IOCIDKey, iocID))
	}
	return comments, nil
}

// Add attaches a new comment to an IOC of the case
func (uc *CommentUseCase) Add(ctx context.Context, caseID, iocID int64, input map[string]any) (*model.Comment, string, error) {
	ioc, err := uc.ioc(ctx, caseID, iocID)
	if err != nil {
		return nil, "", err
	}

	values, ferrs := model.CommentSchema.Decode(input)
	if ferrs != nil {
		return nil, "", model.ValidationError(MsgDataError, ferrs)
	}

	user := auth.UserFromContext(ctx)
	created, err := uc.repo.Comment().Create(ctx, &model.Comment{
		Text:   values.String("comment_text"),
		UserID: user.ID,
		CaseID: caseID,
	}, types.ObjectIOC, iocID)
	if err != nil {
		return nil, "", internal(err, "failed to create comment", goerr.V(IOCIDKey, iocID))
	}

	hooked := Call(ctx, uc.hooks, types.HookPostloadIOCCommented, &IOCComment{Comment: created, IOC: ioc}, caseID)
	if hooked != nil && hooked.Comment != nil {
		created = hooked.Comment
	}
	uc.activity.track(ctx, caseID, user.ID, fmt.Sprintf("ioc %q commented", ioc.Value))

	return created, MsgCommentAdded, nil
}

// Get returns one comment of an IOC of the case
func (uc *CommentUseCase) Get(ctx context.Context, caseID, iocID, commentID int64) (*model.Comment, error) {
	if _, err := uc.ioc(ctx, caseID, iocID); err != nil {
		return nil, err
	}
	return uc.comment(ctx, iocID, commentID)
}

func (uc *CommentUseCase) comment(ctx context.Context, iocID, commentID int64) (*model.Comment, error) {
	c, err := uc.repo.Comment().Get(ctx, types.ObjectIOC, iocID, commentID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, model.NotFoundError(MsgCommentNotFound, err)
	}
	if err != nil {
		return nil, internal(err, "failed to get comment", goerr.V(CommentIDKey, commentID))
	}
	return c, nil
}

// Update replaces the text of a comment of an IOC of the case
func (uc *CommentUseCase) Update(ctx context.Context, caseID, iocID, commentID int64, input map[string]any) (*model.Comment, string, error) {
	ioc, err := uc.ioc(ctx, caseID, iocID)
	if err != nil {
		return nil, "", err
	}
	c, err := uc.comment(ctx, iocID, commentID)
	if err != nil {
		return nil, "", err
	}

	values, ferrs := model.CommentSchema.Decode(input)
	if ferrs != nil {
		return nil, "", model.ValidationError(MsgDataError, ferrs)
	}
	c.Text = values.String("comment_text")

	updated, err := uc.repo.Comment().Update(ctx, c)
	if err != nil {
		return nil, "", internal(err, "failed to update comment", goerr.V(CommentIDKey, commentID))
	}

	updated = Call(ctx, uc.hooks, types.HookPostloadIOCCommentUpd, updated, caseID)
	uc.activity.track(ctx, caseID, auth.UserFromContext(ctx).ID, fmt.Sprintf("comment %d on ioc %q edited", commentID, ioc.Value))

	return updated, MsgCommentEdited, nil
}

// Delete removes a comment of an IOC of the case
func (uc *CommentUseCase) Delete(ctx context.Context, caseID, iocID, commentID int64) (string, error) {
	if _, err := uc.ioc(ctx, caseID, iocID); err != nil {
		return "", err
	}

	err := uc.repo.Comment().Delete(ctx, types.ObjectIOC, iocID, commentID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return "", model.NotFoundError(MsgCommentNotFound, err)
	}
	if err != nil {
		return "", internal(err, "failed to delete comment", goerr.V(CommentIDKey, commentID))
	}

	Call(ctx, uc.hooks, types.HookPostloadIOCCommentDel, commentID, caseID)
	uc.activity.track(ctx, caseID, auth.UserFromContext(ctx).ID, fmt.Sprintf("comment %d on ioc %d deleted", commentID, iocID))

	return MsgCommentDeleted, nil
}
