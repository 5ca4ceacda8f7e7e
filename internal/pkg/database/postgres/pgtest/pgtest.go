// Package pgtest boots a throwaway Postgres for repository tests.
package pgtest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jmoiron/sqlx"

	"github.com/fekuna/omnipos-retail-service/internal/pkg/database/postgres"
)

// Start launches an embedded server on port, applies the schema and returns a
// connected handle. Each test package must use its own port.
func Start(port uint32) (*sqlx.DB, func(), error) {
	runtime := filepath.Join(os.TempDir(), fmt.Sprintf("omnipos-pgtest-%d", port))
	pg := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		Port(port).
		Database("omnipos_test").
		RuntimePath(runtime))
	if err := pg.Start(); err != nil {
		return nil, nil, fmt.Errorf("start embedded postgres: %w", err)
	}

	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            "localhost",
		Port:            fmt.Sprint(port),
		User:            "postgres",
		Password:        "postgres",
		DBName:          "omnipos_test",
		SSLMode:         "disable",
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
	})
	if err != nil {
		_ = pg.Stop()
		return nil, nil, err
	}

	if err := postgres.Migrate(context.Background(), db); err != nil {
		db.Close()
		_ = pg.Stop()
		return nil, nil, err
	}

	stop := func() {
		db.Close()
		_ = pg.Stop()
	}
	return db, stop, nil
}

// Truncate empties the given tables between tests.
func Truncate(db *sqlx.DB, tables ...string) error {
	for _, t := range tables {
		if _, err := db.Exec("TRUNCATE TABLE " + t); err != nil {
			return err
		}
	}
	return nil
}
