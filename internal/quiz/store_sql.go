package quiz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) Create(ctx context.Context, p CreateParams) (string, error) {
	for i := 0; i < maxCodeRetries; i++ {
		code := newCode()
		_, err := s.db.ExecContext(ctx, `INSERT INTO quizzes
			(code, subject, answer_key, creator_id, created_at, active, time_limit_min, max_attempts, description, difficulty)
			VALUES ($1,$2,$3,$4,$5,TRUE,$6,$7,$8,$9)`,
			code, p.Subject, p.AnswerKey, p.CreatorID, time.Now().Unix(),
			p.TimeLimitMin, p.MaxAttempts, p.Description, string(p.Difficulty))
		if err == nil {
			return code, nil
		}
		// The primary key is the only constraint on this insert; if the code
		// is taken, draw again. Anything else is a real storage failure.
		var exists int
		if scanErr := s.db.QueryRowContext(ctx, `SELECT 1 FROM quizzes WHERE code=$1`, code).Scan(&exists); scanErr == nil {
			continue
		}
		return "", fmt.Errorf("create quiz: %w", err)
	}
	return "", fmt.Errorf("create quiz: %w", errCodeExists)
}

func (s *SQLStore) GetActive(ctx context.Context, code string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT q.code, q.subject, q.answer_key, q.creator_id, COALESCE(u.full_name,''),
			q.created_at, q.time_limit_min, q.max_attempts, q.description, q.difficulty
		FROM quizzes q JOIN users u ON q.creator_id = u.user_id
		WHERE q.code=$1 AND q.active`, code)
	var q Quiz
	var created int64
	var diff string
	err := row.Scan(&q.Code, &q.Subject, &q.AnswerKey, &q.CreatorID, &q.CreatorName,
		&created, &q.TimeLimitMin, &q.MaxAttempts, &q.Description, &diff)
	if errors.Is(err, sql.ErrNoRows) {
		return Quiz{}, ErrNotFound
	}
	if err != nil {
		return Quiz{}, fmt.Errorf("get quiz %s: %w", code, err)
	}
	q.CreatedAt = time.Unix(created, 0)
	q.Active = true
	q.Difficulty = Difficulty(diff)
	return q, nil
}

func (s *SQLStore) CountAttempts(ctx context.Context, userID int64, code string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(attempt_number), 0)
		FROM submissions WHERE user_id=$1 AND quiz_code=$2`, userID, code).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}

func (s *SQLStore) RecordSubmission(ctx context.Context, sub Submission) error {
	completed := sub.CompletedAt
	if completed.IsZero() {
		completed = time.Now()
	}
	// Conditional insert: the attempt ceiling is re-checked inside the
	// statement so two racing solves cannot both slip under it.
	res, err := s.db.ExecContext(ctx, `INSERT INTO submissions
			(user_id, quiz_code, answers, correct_count, total, percentage, attempt_number, completed_at)
		SELECT $1,$2,$3,$4,$5,$6,$7,$8
		WHERE (SELECT COUNT(*) FROM submissions WHERE user_id=$1 AND quiz_code=$2) <
		      (SELECT max_attempts FROM quizzes WHERE code=$2)`,
		sub.UserID, sub.QuizCode, sub.Answers, sub.CorrectCount, sub.Total,
		sub.Percentage, sub.AttemptNumber, completed.Unix())
	if err != nil {
		return fmt.Errorf("record submission: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record submission: %w", err)
	}
	if n == 0 {
		return ErrAttemptsExhausted
	}
	return nil
}

func (s *SQLStore) Leaderboard(ctx context.Context, code string) ([]LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sub.user_id, COALESCE(u.full_name,''), sub.correct_count, sub.total,
			sub.percentage, sub.attempt_number, sub.completed_at
		FROM submissions sub JOIN users u ON sub.user_id = u.user_id
		WHERE sub.quiz_code=$1
		ORDER BY sub.correct_count DESC, sub.percentage DESC, sub.completed_at ASC`, code)
	if err != nil {
		return nil, fmt.Errorf("leaderboard %s: %w", code, err)
	}
	defer rows.Close()

	var out []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		var completed int64
		if err := rows.Scan(&e.UserID, &e.DisplayName, &e.CorrectCount, &e.Total,
			&e.Percentage, &e.AttemptNumber, &completed); err != nil {
			return nil, err
		}
		e.CompletedAt = time.Unix(completed, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) TopPerformers(ctx context.Context, minAttempts, limit int) ([]Performer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sub.user_id, COALESCE(u.full_name,''),
			AVG(sub.percentage) AS avg_pct, COUNT(*) AS attempts
		FROM submissions sub JOIN users u ON sub.user_id = u.user_id
		GROUP BY sub.user_id, u.full_name
		HAVING COUNT(*) >= $1
		ORDER BY avg_pct DESC, attempts DESC
		LIMIT $2`, minAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("top performers: %w", err)
	}
	defer rows.Close()

	var out []Performer
	for rows.Next() {
		var p Performer
		if err := rows.Scan(&p.UserID, &p.DisplayName, &p.AveragePercentage, &p.AttemptCount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) Deactivate(ctx context.Context, code string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE quizzes SET active=FALSE WHERE code=$1`, code)
	if err != nil {
		return fmt.Errorf("deactivate quiz %s: %w", code, err)
	}
	return nil
}

func (s *SQLStore) StatsForUser(ctx context.Context, userID int64) (UserStats, error) {
	var st UserStats
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quizzes WHERE creator_id=$1 AND active`, userID).Scan(&st.Created)
	if err != nil {
		return st, fmt.Errorf("user stats: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(AVG(percentage),0), COALESCE(MAX(percentage),0)
		FROM submissions WHERE user_id=$1`, userID).Scan(&st.Solved, &st.Average, &st.Best)
	if err != nil {
		return st, fmt.Errorf("user stats: %w", err)
	}
	return st, nil
}

func (s *SQLStore) CountActive(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quizzes WHERE active`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count quizzes: %w", err)
	}
	return n, nil
}

func (s *SQLStore) CountSubmissions(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}

func (s *SQLStore) Recent(ctx context.Context, limit int) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT q.code, q.subject, q.answer_key, q.creator_id, COALESCE(u.full_name,''),
			q.created_at, q.time_limit_min, q.max_attempts, q.description, q.difficulty,
			(SELECT COUNT(*) FROM submissions sub WHERE sub.quiz_code = q.code) AS participants
		FROM quizzes q LEFT JOIN users u ON q.creator_id = u.user_id
		WHERE q.active
		ORDER BY q.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent quizzes: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sm Summary
		var created int64
		var diff string
		if err := rows.Scan(&sm.Quiz.Code, &sm.Quiz.Subject, &sm.Quiz.AnswerKey, &sm.Quiz.CreatorID, &sm.Quiz.CreatorName,
			&created, &sm.Quiz.TimeLimitMin, &sm.Quiz.MaxAttempts, &sm.Quiz.Description, &diff, &sm.Participants); err != nil {
			return nil, err
		}
		sm.Quiz.CreatedAt = time.Unix(created, 0)
		sm.Quiz.Active = true
		sm.Quiz.Difficulty = Difficulty(diff)
		out = append(out, sm)
	}
	return out, rows.Err()
}

func (s *SQLStore) DailyActivity(ctx context.Context, days int) ([]DayCount, error) {
	dateExpr := `date(completed_at, 'unixepoch')`
	if s.driver == "postgres" {
		dateExpr = `to_char(to_timestamp(completed_at), 'YYYY-MM-DD')`
	}
	cutoff := time.Now().AddDate(0, 0, -days).Unix()
	rows, err := s.db.QueryContext(ctx, `SELECT `+dateExpr+` AS day, COUNT(*)
		FROM submissions WHERE completed_at > $1
		GROUP BY day ORDER BY day DESC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("daily activity: %w", err)
	}
	defer rows.Close()

	var out []DayCount
	for rows.Next() {
		var d DayCount
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
