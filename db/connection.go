package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

func buildConnectionString(host string, port int, user, password, dbname string) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname,
	)
}

// Connect opens a pooled connection to PostgreSQL and waits for the
// database to become reachable. Startup frequently races the database
// container, so the initial ping retries with exponential backoff.
func Connect(host string, port int, user, password, dbname string) (*sql.DB, error) {
	connString := buildConnectionString(host, port, user, password, dbname)
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(20)           // Allow multiple concurrent operations
	db.SetMaxIdleConns(10)           // Keep some connections ready
	db.SetConnMaxLifetime(time.Hour) // Recreate connections after an hour
	db.SetConnMaxIdleTime(time.Hour) // Close idle connections after an hour

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(func() error {
		if err := db.Ping(); err != nil {
			log.WithFields(log.Fields{
				"host": host,
				"port": port,
			}).Warn("Database not reachable yet, retrying")
			return err
		}
		return nil
	}, bo); err != nil {
		return nil, fmt.Errorf("database never became reachable: %w", err)
	}

	return db, nil
}
