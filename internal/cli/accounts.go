package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"
)

func cmdCreateAdmin(rt *runtime) *cli.Command {
	var username, email, password string

	return &cli.Command{
		Name:  "create-admin",
		Usage: "Create an ADMIN account or promote an existing user",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "username",
				Usage:       "Account username (required)",
				Required:    true,
				Destination: &username,
			},
			&cli.StringFlag{
				Name:        "email",
				Usage:       "Account email",
				Destination: &email,
			},
			&cli.StringFlag{
				Name:        "password",
				Usage:       "Account password (required)",
				Required:    true,
				Sources:     cli.EnvVars("HELPDESK_ADMIN_PASSWORD"),
				Destination: &password,
			},
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			c, err := rt.container(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			user, created, err := c.Auth.CreateAdmin(ctx, username, email, password)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(rt.out, "created admin %s (id %d)\n", user.Username, user.ID)
			} else {
				fmt.Fprintf(rt.out, "promoted %s (id %d) to admin\n", user.Username, user.ID)
			}
			return nil
		},
	}
}

func cmdQuarantine(rt *runtime) *cli.Command {
	var userID int

	return &cli.Command{
		Name:  "quarantine",
		Usage: "Deactivate an account and revoke all of its sessions",
		Flags: []cli.Flag{userIDFlag(&userID)},
		Action: func(ctx context.Context, _ *cli.Command) error {
			c, err := rt.container(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			result, err := c.Quarantine.Quarantine(ctx, int64(userID))
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(rt.out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		},
	}
}

func cmdUnfreeze(rt *runtime) *cli.Command {
	var userID int

	return &cli.Command{
		Name:  "unfreeze",
		Usage: "Reactivate a quarantined account",
		Flags: []cli.Flag{userIDFlag(&userID)},
		Action: func(ctx context.Context, _ *cli.Command) error {
			c, err := rt.container(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			user, err := c.Quarantine.Unfreeze(ctx, int64(userID))
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "user %s (id %d) is active\n", user.Username, user.ID)
			return nil
		},
	}
}

func userIDFlag(dest *int) cli.Flag {
	return &cli.IntFlag{
		Name:        "user-id",
		Usage:       "Numeric account id (required)",
		Required:    true,
		Destination: dest,
	}
}
