package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/cli/config"
	"github.com/secmon-lab/caseflow/pkg/domain/model/auth"
	"github.com/urfave/cli/v3"
)

func cmdToken() *cli.Command {
	var authCfg config.Auth
	var userID int
	var userName string
	var ttl time.Duration

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "user-id",
			Usage:       "Numeric user ID carried in the token subject",
			Required:    true,
			Destination: &userID,
		},
		&cli.StringFlag{
			Name:        "user-name",
			Usage:       "Display name of the user",
			Destination: &userName,
		},
		&cli.DurationFlag{
			Name:        "ttl",
			Usage:       "Token lifetime",
			Value:       24 * time.Hour,
			Destination: &ttl,
		},
	}
	flags = append(flags, authCfg.Flags()...)

	return &cli.Command{
		Name:  "token",
		Usage: "Issue an API bearer token signed with the JWT secret",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			issuer, err := authCfg.Issuer()
			if err != nil {
				return err
			}

			token, err := issuer.IssueToken(&auth.User{ID: int64(userID), Name: userName}, ttl)
			if err != nil {
				return goerr.Wrap(err, "failed to issue token", goerr.V("user_id", userID))
			}

			_, _ = fmt.Fprintln(os.Stdout, token)
			return nil
		},
	}
}
