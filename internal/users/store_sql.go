package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Upsert(ctx context.Context, id int64, displayName, handle string) error {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (user_id, full_name, username, registered_at, last_active_at)
		VALUES ($1,$2,$3,$4,$4)
		ON CONFLICT (user_id) DO UPDATE SET full_name=EXCLUDED.full_name, username=EXCLUDED.username, last_active_at=EXCLUDED.last_active_at`,
		id, displayName, handle, now)
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", id, err)
	}
	return nil
}

func (s *SQLStore) DisplayName(ctx context.Context, id int64) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT full_name FROM users WHERE user_id=$1`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get user %d: %w", id, err)
	}
	return name, nil
}

func (s *SQLStore) TouchActivity(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_active_at=$1 WHERE user_id=$2`, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("touch user %d: %w", id, err)
	}
	return nil
}

func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s *SQLStore) CountActiveSince(ctx context.Context, cutoff time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE last_active_at > $1`, cutoff.Unix()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active users: %w", err)
	}
	return n, nil
}

func (s *SQLStore) Recent(ctx context.Context, limit int) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, full_name, COALESCE(username,''), registered_at, last_active_at
		FROM users ORDER BY registered_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		var reg, act int64
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.Handle, &reg, &act); err != nil {
			return nil, err
		}
		u.RegisteredAt = time.Unix(reg, 0)
		u.LastActiveAt = time.Unix(act, 0)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLStore) AllIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
