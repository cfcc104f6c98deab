// Package store persists submitted reports and citizen priorities in MySQL
// or SQLite through database/sql.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Store is the SQL-backed repository for reports and priorities.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite, DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	if driver == DriverMySQL {
		var err error
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// SQLite serializes writers; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return New(db, driver), nil
}

// mysqlDSN forces parseTime so DATETIME columns scan into time.Time.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// New wraps an existing connection pool.
func New(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := sqliteSchema
	if s.driver == DriverMySQL {
		stmts = mysqlSchema
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		category_id TEXT NOT NULL,
		category_name TEXT NOT NULL,
		address TEXT NOT NULL,
		postal_code TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		manifestation_type TEXT NOT NULL,
		description TEXT NOT NULL,
		media_references TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_user ON reports (user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS priorities (
		user_id TEXT NOT NULL,
		category_id TEXT NOT NULL,
		priority_rank INTEGER NOT NULL,
		PRIMARY KEY (user_id, category_id)
	)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS reports (
		id CHAR(36) PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		category_id VARCHAR(64) NOT NULL,
		category_name VARCHAR(255) NOT NULL,
		address VARCHAR(512) NOT NULL,
		postal_code CHAR(8) NOT NULL,
		latitude DOUBLE NOT NULL,
		longitude DOUBLE NOT NULL,
		manifestation_type VARCHAR(16) NOT NULL,
		description TEXT NOT NULL,
		media_references JSON NOT NULL,
		status VARCHAR(16) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		INDEX idx_reports_user (user_id, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS priorities (
		user_id VARCHAR(255) NOT NULL,
		category_id VARCHAR(64) NOT NULL,
		priority_rank INT NOT NULL,
		PRIMARY KEY (user_id, category_id)
	)`,
}
