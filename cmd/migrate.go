package cmd

import (
	"fmt"

	"newsdesk/db"

	"github.com/urfave/cli/v2"
)

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:        "migrate",
		Usage:       "Run database migrations",
		Description: `Runs database migrations on the configured database.`,
		Flags:       dbFlags(),
		Action: func(ctx *cli.Context) error {
			fmt.Printf("Database configured: %s:%d/%s\n",
				ctx.String("db-host"),
				ctx.Int("db-port"),
				ctx.String("db-name"),
			)
			return db.Migrate(
				ctx.String("db-host"),
				ctx.Int("db-port"),
				ctx.String("db-user"),
				ctx.String("db-password"),
				ctx.String("db-name"),
			)
		},
	}
}

func rollbackCmd() *cli.Command {
	return &cli.Command{
		Name:        "rollback",
		Usage:       "Rollback database migration",
		Description: `Rolls back the last database migration`,
		Flags:       dbFlags(),
		Action: func(ctx *cli.Context) error {
			fmt.Printf("Database configured: %s:%d/%s\n",
				ctx.String("db-host"),
				ctx.Int("db-port"),
				ctx.String("db-name"),
			)
			return db.Rollback(
				ctx.String("db-host"),
				ctx.Int("db-port"),
				ctx.String("db-user"),
				ctx.String("db-password"),
				ctx.String("db-name"),
			)
		},
	}
}
