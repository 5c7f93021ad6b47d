package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/usecase"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Auth holds the API authentication flags. Without a JWT secret every request runs as the
// anonymous user.
type Auth struct {
	jwtSecret string
	issuer    string
	skew      time.Duration
}

func (x *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "jwt-secret",
			Usage:       "HMAC secret of API bearer tokens. Authentication is disabled when empty",
			Category:    "Authentication",
			Sources:     cli.EnvVars("CASEFLOW_JWT_SECRET"),
			Destination: &x.jwtSecret,
		},
		&cli.StringFlag{
			Name:        "jwt-issuer",
			Usage:       "Expected issuer of API bearer tokens",
			Category:    "Authentication",
			Value:       "caseflow",
			Sources:     cli.EnvVars("CASEFLOW_JWT_ISSUER"),
			Destination: &x.issuer,
		},
		&cli.DurationFlag{
			Name:        "jwt-skew",
			Usage:       "Acceptable clock skew when validating token lifetimes",
			Category:    "Authentication",
			Value:       30 * time.Second,
			Sources:     cli.EnvVars("CASEFLOW_JWT_SKEW"),
			Destination: &x.skew,
		},
	}
}

func (x Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("jwt_secret.len", len(x.jwtSecret)),
		slog.String("issuer", x.issuer),
		slog.Duration("skew", x.skew),
	)
}

// Enabled reports whether bearer tokens are required
func (x *Auth) Enabled() bool {
	return x.jwtSecret != ""
}

// Configure returns the JWT authenticator, or the no-auth implementation without a secret
func (x *Auth) Configure() (usecase.AuthUseCaseInterface, error) {
	if !x.Enabled() {
		logging.Default().Warn("API authentication is disabled, every request runs as the anonymous user")
		return usecase.NewNoAuthnUseCase(), nil
	}
	if len(x.jwtSecret) < 32 {
		return nil, goerr.Wrap(ErrInvalidConfig, "jwt-secret must be at least 32 bytes", goerr.V(FlagKey, "jwt-secret"))
	}

	logging.Default().Info("API authentication enabled", "issuer", x.issuer)
	return x.newJWT(), nil
}

// Issuer returns a token issuer for the configured secret
func (x *Auth) Issuer() (*usecase.JWTAuthUseCase, error) {
	if !x.Enabled() {
		return nil, goerr.Wrap(ErrMissingParameter, "jwt-secret is required to issue tokens", goerr.V(FlagKey, "jwt-secret"))
	}
	return x.newJWT(), nil
}

func (x *Auth) newJWT() *usecase.JWTAuthUseCase {
	return usecase.NewJWTAuthUseCase([]byte(x.jwtSecret),
		usecase.WithIssuer(x.issuer),
		usecase.WithAcceptableSkew(x.skew),
	)
}
