package state

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

func (s *SQLStore) Get(ctx context.Context, userID int64) (State, error) {
	var tag, payload sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT tag, payload FROM conversation_states WHERE user_id=$1`, userID).
		Scan(&tag, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Idle{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get state for %d: %w", userID, err)
	}
	return Decode(tag.String, payload.String)
}

func (s *SQLStore) Set(ctx context.Context, userID int64, st State) error {
	tag, payload, err := Encode(st)
	if err != nil {
		return fmt.Errorf("encode state for %d: %w", userID, err)
	}
	if tag == "" {
		_, err := s.db.ExecContext(ctx, `DELETE FROM conversation_states WHERE user_id=$1`, userID)
		if err != nil {
			return fmt.Errorf("clear state for %d: %w", userID, err)
		}
		return nil
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO conversation_states (user_id, tag, payload, updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (user_id) DO UPDATE SET tag=EXCLUDED.tag, payload=EXCLUDED.payload, updated_at=EXCLUDED.updated_at`,
		userID, tag, payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("set state for %d: %w", userID, err)
	}
	return nil
}
