package main

import (
	"fmt"

	"agroproposals/internal/db"

	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "Apply or roll back database migrations",
	Subcommands: []*cli.Command{
		{
			Name:  "up",
			Usage: "Apply all pending migrations",
			Action: func(cCtx *cli.Context) error {
				cfg, err := loadConfig(cCtx.String("env-prefix"))
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}

				return db.MigrateUp(cfg.DatabaseURL, newLogger())
			},
		},
		{
			Name:  "down",
			Usage: "Roll back migrations",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "steps",
					Usage: "Number of migrations to roll back",
					Value: 1,
				},
			},
			Action: func(cCtx *cli.Context) error {
				cfg, err := loadConfig(cCtx.String("env-prefix"))
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}

				return db.MigrateDown(cfg.DatabaseURL, cCtx.Int("steps"), newLogger())
			},
		},
	},
}
