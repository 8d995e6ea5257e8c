package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/cli/config"
	"github.com/secmon-lab/pmotracker/pkg/domain/model/auth"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"github.com/secmon-lab/pmotracker/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdToken() *cli.Command {
	var authCfg config.Auth
	var (
		userID      string
		email       string
		name        string
		role        string
		permissions []string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user-id",
			Usage:       "User ID of the token subject",
			Required:    true,
			Destination: &userID,
		},
		&cli.StringFlag{
			Name:        "email",
			Usage:       "Email of the token subject",
			Destination: &email,
		},
		&cli.StringFlag{
			Name:        "name",
			Usage:       "Display name of the token subject",
			Destination: &name,
		},
		&cli.StringFlag{
			Name:        "role",
			Usage:       "Role of the token subject (PMO, PM, Team_Member)",
			Value:       string(types.RoleTeamMember),
			Destination: &role,
		},
		&cli.StringSliceFlag{
			Name:        "permission",
			Usage:       "Capability granted in addition to the role defaults (repeatable)",
			Destination: &permissions,
		},
	}
	flags = append(flags, authCfg.Flags()...)

	return &cli.Command{
		Name:  "token",
		Usage: "Issue a signed access token for the API",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			r, err := types.ParseRole(role)
			if err != nil {
				return goerr.Wrap(err, "invalid role")
			}

			extra := make([]types.Capability, 0, len(permissions))
			for _, p := range permissions {
				capability := types.Capability(p)
				if !capability.IsValid() {
					return goerr.New("unknown permission", goerr.V("permission", p))
				}
				extra = append(extra, capability)
			}

			tokens, err := authCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure authentication")
			}

			principal := auth.NewPrincipal(types.UserID(userID), email, name, r, extra...)
			signed, expireAt, err := tokens.Issue(principal)
			if err != nil {
				return goerr.Wrap(err, "failed to issue token")
			}

			logging.Default().Info("Token issued",
				"user_id", userID,
				"role", r,
				"expires_at", expireAt.Format(time.RFC3339))
			fmt.Fprintln(os.Stdout, signed)
			return nil
		},
	}
}
