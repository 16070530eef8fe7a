// Package database opens the MariaDB pool and the Redis client the CRM
// shares across plugins, and applies schema migrations at startup.
package database

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "mysql" driver.
	_ "github.com/go-sql-driver/mysql"

	"github.com/ventacrm/crm/internal/config"
)

// NewMariaDB opens the registry database pool and waits until it answers.
// Only called when the MariaDB registry driver is selected.
func NewMariaDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening mariadb connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := pingWithRetry(ctx, "mariadb", db.PingContext); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
