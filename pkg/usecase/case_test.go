package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/model/auth"
	"github.com/secmon-lab/caseflow/pkg/repository/memory"
	"github.com/secmon-lab/caseflow/pkg/usecase"
)

func TestCaseUseCase(t *testing.T) {
	ctx := auth.ContextWithUser(context.Background(), &auth.User{ID: 7, Name: "analyst"})

	t.Run("create and get", func(t *testing.T) {
		uc := usecase.New(memory.New())
		created, err := uc.Case.Create(ctx, map[string]any{
			"case_name":        "Phishing wave",
			"case_description": "Q3 campaign",
		})
		gt.NoError(t, err).Required()
		gt.Value(t, created.UserID).Equal(int64(7))

		got, err := uc.Case.Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Name).Equal("Phishing wave")
		gt.Value(t, got.Description).Equal("Q3 campaign")
	})

	t.Run("name is required", func(t *testing.T) {
		uc := usecase.New(memory.New())
		_, err := uc.Case.Create(ctx, map[string]any{})
		gt.Value(t, businessKind(t, err)).Equal(model.ErrKindValidation)
	})

	t.Run("unknown case", func(t *testing.T) {
		uc := usecase.New(memory.New())
		_, err := uc.Case.Get(ctx, 999)
		gt.Value(t, businessKind(t, err)).Equal(model.ErrKindNotFound)

		err = uc.Case.Delete(ctx, 999)
		gt.Value(t, businessKind(t, err)).Equal(model.ErrKindNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		uc := usecase.New(memory.New())
		created, err := uc.Case.Create(ctx, map[string]any{"case_name": "short lived"})
		gt.NoError(t, err).Required()
		gt.NoError(t, uc.Case.Delete(ctx, created.ID))

		_, err = uc.Case.Get(ctx, created.ID)
		gt.Value(t, businessKind(t, err)).Equal(model.ErrKindNotFound)
	})

	t.Run("ensure default creates a case only once", func(t *testing.T) {
		uc := usecase.New(memory.New())
		first, err := uc.Case.EnsureDefault(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, first.ID).Equal(model.DefaultCaseID)
		gt.Value(t, first.Name).Equal("Initial Demo")

		second, err := uc.Case.EnsureDefault(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, second.ID).Equal(first.ID)

		cases, err := uc.Case.List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, cases).Length(1)
	})
}
