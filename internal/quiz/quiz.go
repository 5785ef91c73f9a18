// Package quiz owns quiz definitions and submitted results: code generation,
// attempt counting, leaderboards, and the aggregate stats the admin panel
// shows. Storage follows the same Store / SQLStore / memoryStore split as the
// rest of the module.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var (
	ErrNotFound          = errors.New("quiz not found")
	ErrAttemptsExhausted = errors.New("attempts exhausted")

	errCodeExists = errors.New("quiz code exists")
)

// Difficulty is the label shown on quiz previews and result screens. The
// creation flows currently assign DifficultyEasy only; Medium and Hard are
// valid column values kept for the full enum the schema declares.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

type Quiz struct {
	Code         string // 5-digit zero-padded, unique
	Subject      string
	AnswerKey    string // lowercase, 5..50 chars over a-d
	CreatorID    int64
	CreatorName  string
	CreatedAt    time.Time
	Active       bool
	TimeLimitMin int // 0 = unlimited, advisory only
	MaxAttempts  int
	Description  string
	Difficulty   Difficulty
}

type Submission struct {
	UserID        int64
	QuizCode      string
	Answers       string
	CorrectCount  int
	Total         int
	Percentage    float64
	AttemptNumber int
	CompletedAt   time.Time
}

// LeaderboardEntry is a submission joined with the solver's display name.
type LeaderboardEntry struct {
	UserID        int64
	DisplayName   string
	CorrectCount  int
	Total         int
	Percentage    float64
	AttemptNumber int
	CompletedAt   time.Time
}

// Performer is one row of the cross-quiz rating board.
type Performer struct {
	UserID            int64
	DisplayName       string
	AveragePercentage float64
	AttemptCount      int
}

// UserStats backs the per-user statistics screen.
type UserStats struct {
	Created int
	Solved  int
	Average float64
	Best    float64
}

// Summary is a quiz with its participation count, for admin listings.
type Summary struct {
	Quiz         Quiz
	Participants int
}

// DayCount is submissions per calendar day.
type DayCount struct {
	Date  string // YYYY-MM-DD
	Count int
}

type CreateParams struct {
	Subject      string
	AnswerKey    string
	CreatorID    int64
	TimeLimitMin int
	MaxAttempts  int
	Description  string
	Difficulty   Difficulty
}

// NameResolver supplies display names for joined reads. users.Store
// satisfies it.
type NameResolver interface {
	DisplayName(ctx context.Context, id int64) (string, error)
}

type Store interface {
	// Create generates a unique code, persists the quiz, and returns the code.
	// Collisions on the random draw are retried, never stored twice.
	Create(ctx context.Context, p CreateParams) (string, error)
	// GetActive returns the quiz only while active; a deactivated quiz is
	// indistinguishable from a missing one (ErrNotFound).
	GetActive(ctx context.Context, code string) (Quiz, error)
	// CountAttempts returns the highest attempt number recorded for the
	// (user, quiz) pair, 0 if none.
	CountAttempts(ctx context.Context, userID int64, code string) (int, error)
	// RecordSubmission inserts the submission. The insert re-checks the
	// attempt ceiling atomically and returns ErrAttemptsExhausted without
	// writing a row when the ceiling is already reached.
	RecordSubmission(ctx context.Context, sub Submission) error
	// Leaderboard orders by correct count desc, percentage desc, then
	// completion time asc.
	Leaderboard(ctx context.Context, code string) ([]LeaderboardEntry, error)
	// TopPerformers averages across all quizzes, minimum minAttempts
	// submissions, ordered by average desc then attempt count desc.
	TopPerformers(ctx context.Context, minAttempts, limit int) ([]Performer, error)
	// Deactivate flips active off. Idempotent.
	Deactivate(ctx context.Context, code string) error

	StatsForUser(ctx context.Context, userID int64) (UserStats, error)
	CountActive(ctx context.Context) (int, error)
	CountSubmissions(ctx context.Context) (int, error)
	Recent(ctx context.Context, limit int) ([]Summary, error)
	DailyActivity(ctx context.Context, days int) ([]DayCount, error)
}

// newCode draws a candidate 5-digit zero-padded code uniformly over
// [0, 99999]. Uniqueness is the store's job; the draw is retried there.
func newCode() string {
	return fmt.Sprintf("%05d", rand.Intn(100000))
}

// maxCodeRetries bounds the collision-retry loop. The code space is large
// enough that hitting this means the table is effectively full.
const maxCodeRetries = 50
