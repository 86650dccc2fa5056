package database

import (
	"database/sql"
	"fmt"
	"time"

	"chatstate/pkg/logger"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Connect opens the archive database ("postgres" or "sqlite3") and pings it,
// retrying a few times in case of temporary network blips.
func Connect(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	for i := 0; i < 5; i++ {
		if err = db.Ping(); err == nil {
			logger.Sugar.Infof("Successfully connected to the %s database", driver)
			return db, nil
		}
		logger.Sugar.Infof("Database connection failed, retrying in 2s... (%v)", err)
		time.Sleep(2 * time.Second)
	}
	db.Close()
	return nil, fmt.Errorf("could not connect to %s database after retries: %w", driver, err)
}
