package db

import (
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var fs embed.FS

func migrator(host string, port int, user, password, dbname string) (*migrate.Migrate, error) {
	d, err := iofs.New(fs, "migrations")
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		user, password, host, port, dbname)

	return migrate.NewWithSourceInstance("iofs", d, url)
}

// Migrate runs the database migrations using golang-migrate
func Migrate(host string, port int, user, password, dbname string) error {
	m, err := migrator(host, port, user, password, dbname)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}

// Rollback rolls back the last migration step
func Rollback(host string, port int, user, password, dbname string) error {
	m, err := migrator(host, port, user, password, dbname)
	if err != nil {
		return err
	}

	if err := m.Steps(-1); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}
