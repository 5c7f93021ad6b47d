package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/model/auth"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
	"github.com/secmon-lab/caseflow/pkg/usecase"
)

func TestCommentUseCase(t *testing.T) {
	ctx := auth.ContextWithUser(context.Background(), &auth.User{ID: 5, Name: "responder"})

	setup := func(t *testing.T) (*fixture, *model.IOC) {
		f := newFixture(t)
		ioc, _, err := f.uc.IOC.Create(ctx, f.caseID, iocInput("10.0.0.1", 1))
		gt.NoError(t, err).Required()
		return f, ioc
	}

	t.Run("add, list and get", func(t *testing.T) {
		f, ioc := setup(t)
		var hooked *usecase.IOCComment
		gt.NoError(t, f.hooks.Register(types.HookPostloadIOCCommented, func(_ context.Context, data any, _ int64) (any, error) {
			hooked = data.(*usecase.IOCComment)
			return data, nil
		}))

		c, msg, err := f.uc.Comment.Add(ctx, f.caseID, ioc.ID, map[string]any{"comment_text": "seen on proxy"})
		gt.NoError(t, err).Required()
		gt.Value(t, msg).Equal(usecase.MsgCommentAdded)
		gt.Value(t, c.UserID).Equal(int64(5))
		gt.Value(t, hooked.IOC.ID).Equal(ioc.ID)
		gt.Value(t, hooked.Comment.ID).Equal(c.ID)

		comments, err := f.uc.Comment.List(ctx, f.caseID, ioc.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, comments).Length(1)
		gt.Value(t, comments[0].Text).Equal("seen on proxy")

		got, err := f.uc.Comment.Get(ctx, f.caseID, ioc.ID, c.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(c.ID)

		gt.Value(t, f.tracker.Messages()[len(f.tracker.Messages())-1]).Equal(`ioc "10.0.0.1" commented`)
	})

	t.Run("comment text is required", func(t *testing.T) {
		f, ioc := setup(t)
		_, _, err := f.uc.Comment.Add(ctx, f.caseID, ioc.ID, map[string]any{})
		gt.Value(t, businessKind(t, err)).Equal(model.ErrKindValidation)
	})

	t.Run("IOC of another case", func(t *testing.T) {
		f, ioc := setup(t)
		other := f.newCase(t, "other")

		_, err := f.uc.Comment.List(ctx, other, ioc.ID)
		gt.Value(t, businessKind(t, err)).Equal(model.ErrKindNotFound)
		be, _ := model.AsBusinessError(err)
		gt.Value(t, be.Message()).Equal(usecase.MsgInvalidIOCID)
	})

	t.Run("unknown comment", func(t *testing.T) {
		f, ioc := setup(t)
		_, err := f.uc.Comment.Get(ctx, f.caseID, ioc.ID, 999)
		be, ok := model.AsBusinessError(err)
		gt.Bool(t, ok).True()
		gt.Value(t, be.Message()).Equal(usecase.MsgCommentNotFound)
	})

	t.Run("edit", func(t *testing.T) {
		f, ioc := setup(t)
		c, _, err := f.uc.Comment.Add(ctx, f.caseID, ioc.ID, map[string]any{"comment_text": "first"})
		gt.NoError(t, err).Required()

		updated, msg, err := f.uc.Comment.Update(ctx, f.caseID, ioc.ID, c.ID, map[string]any{"comment_text": "second"})
		gt.NoError(t, err).Required()
		gt.Value(t, msg).Equal(usecase.MsgCommentEdited)
		gt.Value(t, updated.Text).Equal("second")

		got, err := f.uc.Comment.Get(ctx, f.caseID, ioc.ID, c.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Text).Equal("second")
	})

	t.Run("delete", func(t *testing.T) {
		f, ioc := setup(t)
		c, _, err := f.uc.Comment.Add(ctx, f.caseID, ioc.ID, map[string]any{"comment_text": "temporary"})
		gt.NoError(t, err).Required()

		var deleted int64
		gt.NoError(t, f.hooks.Register(types.HookPostloadIOCCommentDel, func(_ context.Context, data any, _ int64) (any, error) {
			deleted = data.(int64)
			return data, nil
		}))

		msg, err := f.uc.Comment.Delete(ctx, f.caseID, ioc.ID, c.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, msg).Equal(usecase.MsgCommentDeleted)
		gt.Value(t, deleted).Equal(c.ID)

		_, err = f.uc.Comment.Delete(ctx, f.caseID, ioc.ID, c.ID)
		gt.Value(t, businessKind(t, err)).Equal(model.ErrKindNotFound)
	})
}
