package quiz

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type memoryStore struct {
	mu          sync.RWMutex
	quizzes     map[string]Quiz
	submissions []Submission
	names       NameResolver
}

// NewInMemoryStore is the map-backed repository used by tests. Display
// names in joined reads come from the resolver.
func NewInMemoryStore(names NameResolver) Store {
	return &memoryStore{quizzes: map[string]Quiz{}, names: names}
}

func (m *memoryStore) Create(_ context.Context, p CreateParams) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < maxCodeRetries; i++ {
		code := newCode()
		if _, taken := m.quizzes[code]; taken {
			continue
		}
		m.quizzes[code] = Quiz{
			Code:         code,
			Subject:      p.Subject,
			AnswerKey:    p.AnswerKey,
			CreatorID:    p.CreatorID,
			CreatedAt:    time.Now(),
			Active:       true,
			TimeLimitMin: p.TimeLimitMin,
			MaxAttempts:  p.MaxAttempts,
			Description:  p.Description,
			Difficulty:   p.Difficulty,
		}
		return code, nil
	}
	return "", fmt.Errorf("create quiz: %w", errCodeExists)
}

func (m *memoryStore) GetActive(ctx context.Context, code string) (Quiz, error) {
	m.mu.RLock()
	q, ok := m.quizzes[code]
	m.mu.RUnlock()
	if !ok || !q.Active {
		return Quiz{}, ErrNotFound
	}
	if name, err := m.names.DisplayName(ctx, q.CreatorID); err == nil {
		q.CreatorName = name
	}
	return q, nil
}

func (m *memoryStore) CountAttempts(_ context.Context, userID int64, code string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countAttemptsLocked(userID, code), nil
}

func (m *memoryStore) countAttemptsLocked(userID int64, code string) int {
	max := 0
	for _, s := range m.submissions {
		if s.UserID == userID && s.QuizCode == code && s.AttemptNumber > max {
			max = s.AttemptNumber
		}
	}
	return max
}

func (m *memoryStore) RecordSubmission(_ context.Context, sub Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quizzes[sub.QuizCode]
	if !ok {
		return ErrNotFound
	}
	if m.countAttemptsLocked(sub.UserID, sub.QuizCode) >= q.MaxAttempts {
		return ErrAttemptsExhausted
	}
	if sub.CompletedAt.IsZero() {
		sub.CompletedAt = time.Now()
	}
	m.submissions = append(m.submissions, sub)
	return nil
}

func (m *memoryStore) Leaderboard(ctx context.Context, code string) ([]LeaderboardEntry, error) {
	m.mu.RLock()
	var out []LeaderboardEntry
	for _, s := range m.submissions {
		if s.QuizCode != code {
			continue
		}
		out = append(out, LeaderboardEntry{
			UserID:        s.UserID,
			CorrectCount:  s.CorrectCount,
			Total:         s.Total,
			Percentage:    s.Percentage,
			AttemptNumber: s.AttemptNumber,
			CompletedAt:   s.CompletedAt,
		})
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CorrectCount != out[j].CorrectCount {
			return out[i].CorrectCount > out[j].CorrectCount
		}
		if out[i].Percentage != out[j].Percentage {
			return out[i].Percentage > out[j].Percentage
		}
		return out[i].CompletedAt.Before(out[j].CompletedAt)
	})
	for i := range out {
		if name, err := m.names.DisplayName(ctx, out[i].UserID); err == nil {
			out[i].DisplayName = name
		}
	}
	return out, nil
}

func (m *memoryStore) TopPerformers(ctx context.Context, minAttempts, limit int) ([]Performer, error) {
	m.mu.RLock()
	sums := map[int64]struct {
		total float64
		n     int
	}{}
	for _, s := range m.submissions {
		acc := sums[s.UserID]
		acc.total += s.Percentage
		acc.n++
		sums[s.UserID] = acc
	}
	m.mu.RUnlock()

	var out []Performer
	for id, acc := range sums {
		if acc.n < minAttempts {
			continue
		}
		out = append(out, Performer{UserID: id, AveragePercentage: acc.total / float64(acc.n), AttemptCount: acc.n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AveragePercentage != out[j].AveragePercentage {
			return out[i].AveragePercentage > out[j].AveragePercentage
		}
		return out[i].AttemptCount > out[j].AttemptCount
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		if name, err := m.names.DisplayName(ctx, out[i].UserID); err == nil {
			out[i].DisplayName = name
		}
	}
	return out, nil
}

func (m *memoryStore) Deactivate(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quizzes[code]
	if !ok {
		return nil
	}
	q.Active = false
	m.quizzes[code] = q
	return nil
}

func (m *memoryStore) StatsForUser(_ context.Context, userID int64) (UserStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var st UserStats
	for _, q := range m.quizzes {
		if q.CreatorID == userID && q.Active {
			st.Created++
		}
	}
	var total float64
	for _, s := range m.submissions {
		if s.UserID != userID {
			continue
		}
		st.Solved++
		total += s.Percentage
		if s.Percentage > st.Best {
			st.Best = s.Percentage
		}
	}
	if st.Solved > 0 {
		st.Average = total / float64(st.Solved)
	}
	return st, nil
}

func (m *memoryStore) CountActive(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, q := range m.quizzes {
		if q.Active {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) CountSubmissions(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.submissions), nil
}

func (m *memoryStore) Recent(ctx context.Context, limit int) ([]Summary, error) {
	m.mu.RLock()
	var out []Summary
	for _, q := range m.quizzes {
		if !q.Active {
			continue
		}
		n := 0
		for _, s := range m.submissions {
			if s.QuizCode == q.Code {
				n++
			}
		}
		out = append(out, Summary{Quiz: q, Participants: n})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Quiz.CreatedAt.After(out[j].Quiz.CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		if name, err := m.names.DisplayName(ctx, out[i].Quiz.CreatorID); err == nil {
			out[i].Quiz.CreatorName = name
		}
	}
	return out, nil
}

func (m *memoryStore) DailyActivity(_ context.Context, days int) ([]DayCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cutoff := time.Now().AddDate(0, 0, -days)
	counts := map[string]int{}
	for _, s := range m.submissions {
		if s.CompletedAt.After(cutoff) {
			counts[s.CompletedAt.Format("2006-01-02")]++
		}
	}
	var out []DayCount
	for d, n := range counts {
		out = append(out, DayCount{Date: d, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}
