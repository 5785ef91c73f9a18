package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:testbot.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/testbot?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS users (
  user_id INTEGER PRIMARY KEY,
  full_name TEXT NOT NULL,
  username TEXT,
  registered_at INTEGER NOT NULL,
  last_active_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS quizzes (
  code TEXT PRIMARY KEY,
  subject TEXT NOT NULL,
  answer_key TEXT NOT NULL,
  creator_id INTEGER NOT NULL REFERENCES users(user_id),
  created_at INTEGER NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  time_limit_min INTEGER NOT NULL DEFAULT 0,
  max_attempts INTEGER NOT NULL DEFAULT 1,
  description TEXT NOT NULL DEFAULT '',
  difficulty TEXT NOT NULL DEFAULT 'Easy'
);

CREATE TABLE IF NOT EXISTS submissions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL REFERENCES users(user_id),
  quiz_code TEXT NOT NULL,
  answers TEXT NOT NULL,
  correct_count INTEGER NOT NULL,
  total INTEGER NOT NULL,
  percentage REAL NOT NULL,
  attempt_number INTEGER NOT NULL DEFAULT 1,
  completed_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_submissions_user_quiz ON submissions(user_id, quiz_code);
CREATE INDEX IF NOT EXISTS idx_submissions_quiz ON submissions(quiz_code);

CREATE TABLE IF NOT EXISTS conversation_states (
  user_id INTEGER PRIMARY KEY,
  tag TEXT,
  payload TEXT,
  updated_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  user_id BIGINT PRIMARY KEY,
  full_name TEXT NOT NULL,
  username TEXT,
  registered_at BIGINT NOT NULL,
  last_active_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS quizzes (
  code TEXT PRIMARY KEY,
  subject TEXT NOT NULL,
  answer_key TEXT NOT NULL,
  creator_id BIGINT NOT NULL REFERENCES users(user_id),
  created_at BIGINT NOT NULL,
  active BOOLEAN NOT NULL DEFAULT TRUE,
  time_limit_min INTEGER NOT NULL DEFAULT 0,
  max_attempts INTEGER NOT NULL DEFAULT 1,
  description TEXT NOT NULL DEFAULT '',
  difficulty TEXT NOT NULL DEFAULT 'Easy'
);

CREATE TABLE IF NOT EXISTS submissions (
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL REFERENCES users(user_id),
  quiz_code TEXT NOT NULL,
  answers TEXT NOT NULL,
  correct_count INTEGER NOT NULL,
  total INTEGER NOT NULL,
  percentage DOUBLE PRECISION NOT NULL,
  attempt_number INTEGER NOT NULL DEFAULT 1,
  completed_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_submissions_user_quiz ON submissions(user_id, quiz_code);
CREATE INDEX IF NOT EXISTS idx_submissions_quiz ON submissions(quiz_code);

CREATE TABLE IF NOT EXISTS conversation_states (
  user_id BIGINT PRIMARY KEY,
  tag TEXT,
  payload TEXT,
  updated_at BIGINT NOT NULL
);
`
