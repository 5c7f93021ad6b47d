package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/cli/config"
	"github.com/secmon-lab/caseflow/pkg/controller/graphql"
	httpctrl "github.com/secmon-lab/caseflow/pkg/controller/http"
	"github.com/secmon-lab/caseflow/pkg/domain/model/auth"
	"github.com/secmon-lab/caseflow/pkg/usecase"
	"github.com/secmon-lab/caseflow/pkg/utils/async"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func cmdServe() *cli.Command {
	var addr string
	var enableGraphiQL bool
	var appCfg appConfig
	var authCfg config.Auth

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("CASEFLOW_ADDR"),
			Destination: &addr,
		},
		&cli.BoolFlag{
			Name:        "graphiql",
			Usage:       "Enable GraphiQL playground",
			Value:       true,
			Sources:     cli.EnvVars("CASEFLOW_GRAPHIQL"),
			Destination: &enableGraphiQL,
		},
	}
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			authUC, err := authCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure authentication")
			}

			metrics := httpctrl.NewMetrics()
			uc, closer, err := appCfg.Configure(ctx,
				usecase.WithAuth(authUC),
				usecase.WithImportObserver(metrics),
			)
			defer closer()
			if err != nil {
				return err
			}

			defaultCase, err := uc.Case.EnsureDefault(auth.ContextWithUser(ctx, auth.NewAnonymousUser()))
			if err != nil {
				return goerr.Wrap(err, "failed to ensure default case")
			}
			logging.Default().Info("Default case is ready", "case_id", defaultCase.ID, "name", defaultCase.Name)

			gqlHandler, err := graphql.NewHandler(uc)
			if err != nil {
				return goerr.Wrap(err, "failed to create GraphQL handler")
			}

			httpHandler, err := httpctrl.New(uc,
				httpctrl.WithGraphQL(gqlHandler),
				httpctrl.WithGraphiQL(enableGraphiQL),
				httpctrl.WithMetrics(metrics),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			return runServer(ctx, server)
		},
	}
}

// runServer serves until SIGINT/SIGTERM, then drains requests and pending async work
func runServer(ctx context.Context, server *http.Server) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logging.Default().Info("Starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return goerr.Wrap(err, "failed to start server", goerr.V("addr", server.Addr))
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logging.Default().Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return goerr.Wrap(err, "failed to shutdown server gracefully")
		}
		if err := async.Wait(shutdownCtx); err != nil {
			return err
		}

		logging.Default().Info("Server shutdown completed")
		return nil
	})

	return g.Wait()
}
