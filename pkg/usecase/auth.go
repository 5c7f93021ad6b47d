package usecase

import (
	"context"
	"strconv"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/model/auth"
)

// AuthUseCaseInterface resolves the user of a request from its bearer token
type AuthUseCaseInterface interface {
	Authenticate(ctx context.Context, bearer string) (*auth.User, error)
	IsNoAuthn() bool
}

// JWTAuthUseCase verifies HS256 signed bearer tokens. The subject claim carries the numeric
// user ID and the optional name claim the display name.
type JWTAuthUseCase struct {
	key    []byte
	issuer string
	skew   time.Duration
}

type JWTOption func(*JWTAuthUseCase)

// WithIssuer requires the iss claim to match
func WithIssuer(issuer string) JWTOption {
	return func(uc *JWTAuthUseCase) {
		uc.issuer = issuer
	}
}

// WithAcceptableSkew tolerates clock differences when checking exp and nbf
func WithAcceptableSkew(d time.Duration) JWTOption {
	return func(uc *JWTAuthUseCase) {
		uc.skew = d
	}
}

func NewJWTAuthUseCase(secret []byte, opts ...JWTOption) *JWTAuthUseCase {
	uc := &JWTAuthUseCase{key: secret, skew: 10 * time.Second}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *JWTAuthUseCase) Authenticate(ctx context.Context, bearer string) (*auth.User, error) {
	if bearer == "" {
		return nil, goerr.Wrap(ErrMissingToken, "authentication required")
	}

	parseOpts := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, uc.key),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(uc.skew),
	}
	if uc.issuer != "" {
		parseOpts = append(parseOpts, jwt.WithIssuer(uc.issuer))
	}

	token, err := jwt.Parse([]byte(bearer), parseOpts...)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidToken, "failed to verify token", goerr.V("reason", err.Error()))
	}

	id, err := strconv.ParseInt(token.Subject(), 10, 64)
	if err != nil || id <= 0 {
		return nil, goerr.Wrap(ErrInvalidToken, "subject is not a user ID", goerr.V("sub", token.Subject()))
	}

	user := &auth.User{ID: id}
	if name, ok := token.Get("name"); ok {
		if s, ok := name.(string); ok {
			user.Name = s
		}
	}
	return user, nil
}

func (uc *JWTAuthUseCase) IsNoAuthn() bool {
	return false
}

// IssueToken signs a token for a user. Used by the CLI to hand out API tokens.
func (uc *JWTAuthUseCase) IssueToken(user *auth.User, ttl time.Duration) (string, error) {
	now := time.Now()
	builder := jwt.NewBuilder().
		Subject(strconv.FormatInt(user.ID, 10)).
		IssuedAt(now).
		Expiration(now.Add(ttl)).
		Claim("name", user.Name)
	if uc.issuer != "" {
		builder = builder.Issuer(uc.issuer)
	}

	token, err := builder.Build()
	if err != nil {
		return "", goerr.Wrap(err, "failed to build token")
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, uc.key))
	if err != nil {
		return "", goerr.Wrap(err, "failed to sign token")
	}
	return string(signed), nil
}
