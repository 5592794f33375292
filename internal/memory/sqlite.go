package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	_ "modernc.org/sqlite"

	"hotelbot/internal/logger"
	"hotelbot/pkg"
)

// SQLiteStore is the normalized long-term backend: one row per preference
// key and one row per interaction, keyed to the user by foreign key.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS Users (
		user_id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS Memory (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		data_type TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		FOREIGN KEY (user_id) REFERENCES Users(user_id)
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_memory_preference
		ON Memory(user_id, key) WHERE data_type = 'preference';
	CREATE INDEX IF NOT EXISTS idx_memory_user ON Memory(user_id, data_type);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ensureUser(ctx context.Context, tx *sql.Tx, userID string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO Users (user_id, created_at) VALUES (?, ?)`,
		userID, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *SQLiteStore) Load(ctx context.Context, userID string) (*pkg.LongTermMemory, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.ensureUser(ctx, tx, userID); err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT data_type, key, value FROM Memory WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query memory rows: %w", err)
	}
	defer rows.Close()

	mem := pkg.NewLongTermMemory(userID)
	for rows.Next() {
		var dataType, key, value string
		if err := rows.Scan(&dataType, &key, &value); err != nil {
			return nil, fmt.Errorf("scan memory row: %w", err)
		}
		switch dataType {
		case "preference":
			mem.Preferences[key] = value
		case "history":
			var rec pkg.InteractionRecord
			if err := sonic.Unmarshal([]byte(value), &rec); err != nil {
				// Malformed rows are skipped, not fatal.
				logger.Warn().Str("user_id", userID).Str("key", key).Msg("skipping malformed history row")
				continue
			}
			mem.History = append(mem.History, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memory rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return mem, nil
}

func (s *SQLiteStore) Save(ctx context.Context, userID string, mem *pkg.LongTermMemory) error {
	if userID == "" {
		return fmt.Errorf("user id cannot be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.ensureUser(ctx, tx, userID); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)

	for key, value := range mem.Preferences {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO Memory (user_id, data_type, key, value, timestamp)
			VALUES (?, 'preference', ?, ?, ?)`,
			userID, key, value, now)
		if err != nil {
			return fmt.Errorf("save preference %s: %w", key, err)
		}
	}

	for i, rec := range mem.History {
		value, err := sonic.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal history entry: %w", err)
		}

		var exists int
		err = tx.QueryRowContext(ctx, `
			SELECT 1 FROM Memory
			WHERE user_id = ? AND data_type = 'history' AND value = ?`,
			userID, string(value)).Scan(&exists)
		if err == nil {
			continue // already persisted
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check history entry: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO Memory (user_id, data_type, key, value, timestamp)
			VALUES (?, 'history', ?, ?, ?)`,
			userID, "interaction_"+strconv.Itoa(i), string(value), now)
		if err != nil {
			return fmt.Errorf("save history entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
