package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/caseflow/pkg/domain/model/auth"
	"github.com/secmon-lab/caseflow/pkg/usecase"
)

func TestNoAuthnUseCase(t *testing.T) {
	uc := usecase.NewNoAuthnUseCase()

	t.Run("Authenticate returns anonymous user regardless of token", func(t *testing.T) {
		for _, token := range []string{"", "garbage"} {
			user, err := uc.Authenticate(context.Background(), token)
			gt.NoError(t, err).Required()
			gt.Value(t, user.ID).Equal(auth.AnonymousUserID)
			gt.Value(t, user.Name).Equal("administrator")
		}
	})

	t.Run("IsNoAuthn returns true", func(t *testing.T) {
		gt.Bool(t, uc.IsNoAuthn()).True()
	})
}

func TestNoAuthnUseCaseImplementsInterface(t *testing.T) {
	var _ usecase.AuthUseCaseInterface = usecase.NewNoAuthnUseCase()
}
