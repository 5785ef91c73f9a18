// Package state persists each user's conversation position between updates.
// A user has exactly one state row, overwritten on every transition; a
// missing row means Idle.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// State is the per-user conversation position. Variants carry only the
// fields their flow needs.
type State interface {
	Tag() string
}

type Idle struct{}

// AwaitingName expects the next text to be a full display name.
type AwaitingName struct{}

// CreatingSimpleQuiz expects a "subject*answers[*description]" definition.
type CreatingSimpleQuiz struct{}

// CreatingTimedQuiz carries the time limit chosen from the submenu.
type CreatingTimedQuiz struct {
	TimeLimitMin int `json:"time_limit_min"`
}

// CreatingMultiAttemptQuiz carries the attempt ceiling chosen from the submenu.
type CreatingMultiAttemptQuiz struct {
	MaxAttempts int `json:"max_attempts"`
}

// SolvingQuiz expects a "code*answers" submission.
type SolvingQuiz struct{}

// AwaitingBroadcast expects the next admin text to be fanned out to all users.
type AwaitingBroadcast struct{}

func (Idle) Tag() string                     { return "" }
func (AwaitingName) Tag() string             { return "awaiting_name" }
func (CreatingSimpleQuiz) Tag() string       { return "creating_simple_quiz" }
func (CreatingTimedQuiz) Tag() string        { return "creating_timed_quiz" }
func (CreatingMultiAttemptQuiz) Tag() string { return "creating_multi_attempt_quiz" }
func (SolvingQuiz) Tag() string              { return "solving_quiz" }
func (AwaitingBroadcast) Tag() string        { return "awaiting_broadcast" }

// Store persists conversation states. Set is a full overwrite; setting Idle
// clears the row.
type Store interface {
	Get(ctx context.Context, userID int64) (State, error)
	Set(ctx context.Context, userID int64, s State) error
}

// Encode flattens a state into its tag and JSON payload. Idle encodes to
// an empty tag and no payload.
func Encode(s State) (tag, payload string, err error) {
	tag = s.Tag()
	if tag == "" {
		return "", "", nil
	}
	switch v := s.(type) {
	case CreatingTimedQuiz:
		b, err := json.Marshal(v)
		if err != nil {
			return "", "", err
		}
		return tag, string(b), nil
	case CreatingMultiAttemptQuiz:
		b, err := json.Marshal(v)
		if err != nil {
			return "", "", err
		}
		return tag, string(b), nil
	default:
		return tag, "", nil
	}
}

// Decode is the inverse of Encode. Unknown tags decode to Idle so stale
// rows from older deployments cannot wedge a user.
func Decode(tag, payload string) (State, error) {
	switch tag {
	case "":
		return Idle{}, nil
	case AwaitingName{}.Tag():
		return AwaitingName{}, nil
	case CreatingSimpleQuiz{}.Tag():
		return CreatingSimpleQuiz{}, nil
	case CreatingTimedQuiz{}.Tag():
		var v CreatingTimedQuiz
		if payload != "" {
			if err := json.Unmarshal([]byte(payload), &v); err != nil {
				return nil, fmt.Errorf("decode %s payload: %w", tag, err)
			}
		}
		return v, nil
	case CreatingMultiAttemptQuiz{}.Tag():
		var v CreatingMultiAttemptQuiz
		if payload != "" {
			if err := json.Unmarshal([]byte(payload), &v); err != nil {
				return nil, fmt.Errorf("decode %s payload: %w", tag, err)
			}
		}
		return v, nil
	case SolvingQuiz{}.Tag():
		return SolvingQuiz{}, nil
	case AwaitingBroadcast{}.Tag():
		return AwaitingBroadcast{}, nil
	default:
		return Idle{}, nil
	}
}

type memoryStore struct {
	mu     sync.RWMutex
	states map[int64]State
}

// NewInMemoryStore is the map-backed state store used by tests.
func NewInMemoryStore() Store {
	return &memoryStore{states: map[int64]State{}}
}

func (m *memoryStore) Get(_ context.Context, userID int64) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[userID]
	if !ok {
		return Idle{}, nil
	}
	return s, nil
}

func (m *memoryStore) Set(_ context.Context, userID int64, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.Tag() == "" {
		delete(m.states, userID)
		return nil
	}
	m.states[userID] = s
	return nil
}
