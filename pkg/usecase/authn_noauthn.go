package usecase

import (
	"context"

	"github.com/secmon-lab/caseflow/pkg/domain/model/auth"
)

// NoAuthnUseCase runs every request as the built-in administrator (for development/testing)
type NoAuthnUseCase struct {
	user *auth.User
}

func NewNoAuthnUseCase() *NoAuthnUseCase {
	return &NoAuthnUseCase{user: auth.NewAnonymousUser()}
}

// Authenticate ignores the token and returns the anonymous user
func (uc *NoAuthnUseCase) Authenticate(ctx context.Context, bearer string) (*auth.User, error) {
	copied := *uc.user
	return &copied, nil
}

// IsNoAuthn returns true for NoAuthnUseCase
func (uc *NoAuthnUseCase) IsNoAuthn() bool {
	return true
}
