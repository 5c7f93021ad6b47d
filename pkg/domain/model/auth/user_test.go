package auth_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/caseflow/pkg/domain/model/auth"
)

func TestUserFromContext(t *testing.T) {
	gt.Value(t, auth.UserFromContext(context.Background()).ID).Equal(auth.AnonymousUserID)

	ctx := auth.ContextWithUser(context.Background(), &auth.User{ID: 42, Name: "analyst"})
	user := auth.UserFromContext(ctx)
	gt.Value(t, user.ID).Equal(int64(42))
	gt.Value(t, user.Name).Equal("analyst")
}
