package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/spec-kit/it-helpdesk/internal/persistence"
)

func cmdMigrate(rt *runtime) *cli.Command {
	var status bool

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Apply pending database migrations",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "status",
				Usage:       "List migrations and whether they are applied",
				Destination: &status,
			},
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			c, err := rt.open(ctx, rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer c.Close()

			if !c.Postgres.Enabled() {
				return errors.New("migrate requires POSTGRES_DSN")
			}

			if status {
				statuses, err := persistence.MigrationStatus(ctx, c.Postgres.Pool)
				if err != nil {
					return err
				}
				for _, s := range statuses {
					fmt.Fprintf(rt.out, "%-8s %s\n", s.State, s.Source.Path)
				}
				return nil
			}
			return persistence.RunMigrations(ctx, c.Postgres.Pool, rt.logger)
		},
	}
}
