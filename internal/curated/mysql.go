package curated

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"github.com/pegwatch/pkg/config"
)

// MySQLSource serves curated entries from a database so operators can extend
// the dataset without rebuilding. Entries are stored as one JSON document per
// symbol.
type MySQLSource struct {
	db     *sql.DB
	logger *logrus.Entry
}

// NewMySQLSource opens the database and verifies the connection.
func NewMySQLSource(cfg *config.Config, log *logrus.Logger) (*MySQLSource, error) {
	db, err := sql.Open("mysql", cfg.GetMySQLDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	return &MySQLSource{
		db:     db,
		logger: log.WithField("component", "curated-mysql"),
	}, nil
}

// Entry implements Source.
func (s *MySQLSource) Entry(ctx context.Context, symbol string) (*Entry, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT entry FROM curated_entries WHERE symbol = ?",
		strings.ToUpper(symbol),
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query curated entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(doc, &entry); err != nil {
		return nil, fmt.Errorf("corrupt curated entry for %s: %w", symbol, err)
	}
	return &entry, nil
}

// Name implements Source.
func (s *MySQLSource) Name() string { return "mysql" }

// Close releases the connection pool.
func (s *MySQLSource) Close() error { return s.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS curated_entries (
    symbol     VARCHAR(20)  NOT NULL PRIMARY KEY,
    entry      JSON         NOT NULL,
    updated_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`

// Migrate creates the schema and seeds rows from the embedded dataset.
// Existing rows are left untouched so operator edits survive re-runs.
func (s *MySQLSource) Migrate(ctx context.Context, seed *StaticSource) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	seeded := 0
	for _, symbol := range seed.Symbols() {
		entry, _ := seed.Entry(ctx, symbol)
		doc, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to encode entry for %s: %w", symbol, err)
		}
		res, err := s.db.ExecContext(ctx,
			"INSERT IGNORE INTO curated_entries (symbol, entry) VALUES (?, ?)",
			symbol, doc,
		)
		if err != nil {
			return fmt.Errorf("failed to seed entry for %s: %w", symbol, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			seeded++
		}
	}
	s.logger.WithField("seeded", seeded).Info("Curated registry migrated")
	return nil
}
