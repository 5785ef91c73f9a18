package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ollashukur/testbot/internal/grading"
	"github.com/ollashukur/testbot/internal/quiz"
	"github.com/ollashukur/testbot/internal/state"
	"github.com/ollashukur/testbot/internal/users"
)

func (r *Router) handleButton(ctx context.Context, b *ButtonPress) error {
	if err := r.users.TouchActivity(ctx, b.UserID); err != nil {
		return err
	}

	switch data := b.Data; {
	case data == cbMainMenu:
		return r.showMainMenu(ctx, b)
	case data == cbCreateTest:
		return r.edit(ctx, b, msgChooseQuizType, quizCreationKeyboard())
	case data == cbCreateSimple:
		if err := r.states.Set(ctx, b.UserID, state.CreatingSimpleQuiz{}); err != nil {
			return err
		}
		return r.edit(ctx, b, "⚡ <b>Simple quiz</b>\n\n"+msgCreateInstruction, backToMainKeyboard())
	case data == cbCreateTimed:
		return r.edit(ctx, b, "⏱️ <b>Timed quiz</b>\n\nChoose the time limit:", timeLimitKeyboard())
	case data == cbCreateMulti:
		return r.edit(ctx, b, "🔄 <b>Multi-attempt quiz</b>\n\nHow many attempts per participant?", attemptsKeyboard())
	case strings.HasPrefix(data, cbTimePrefix):
		return r.pickTimeLimit(ctx, b, strings.TrimPrefix(data, cbTimePrefix))
	case strings.HasPrefix(data, cbAttemptsPrefix):
		return r.pickAttempts(ctx, b, strings.TrimPrefix(data, cbAttemptsPrefix))
	case data == cbSolveTest:
		if err := r.states.Set(ctx, b.UserID, state.SolvingQuiz{}); err != nil {
			return err
		}
		return r.edit(ctx, b, msgSolveInstruction, backToMainKeyboard())
	case data == cbMyStatistics:
		return r.showMyStatistics(ctx, b)
	case data == cbRatings:
		return r.showRatings(ctx, b)
	case data == cbHelp:
		return r.edit(ctx, b, msgHelp, backToMainKeyboard())
	case data == cbAbout:
		return r.edit(ctx, b, msgAbout, backToMainKeyboard())
	case strings.HasPrefix(data, cbTestInfoPrefix):
		return r.showQuizInfo(ctx, b, strings.TrimPrefix(data, cbTestInfoPrefix))
	case strings.HasPrefix(data, cbDetailedReportPrefix):
		return r.showDetailedReport(ctx, b, strings.TrimPrefix(data, cbDetailedReportPrefix))
	case strings.HasPrefix(data, cbTestSettingsPrefix):
		return r.showQuizSettings(ctx, b, strings.TrimPrefix(data, cbTestSettingsPrefix))
	case strings.HasPrefix(data, cbFinishTestPrefix):
		return r.finishQuiz(ctx, b, strings.TrimPrefix(data, cbFinishTestPrefix))
	case data == cbBotStats:
		return r.adminOnly(ctx, b, r.showBotStats)
	case data == cbUserManagement:
		return r.adminOnly(ctx, b, r.showUserManagement)
	case data == cbAllTests:
		return r.adminOnly(ctx, b, r.showAllQuizzes)
	case data == cbBroadcast:
		return r.adminOnly(ctx, b, r.promptBroadcast)
	default:
		// Stale button from an old message layout.
		return r.gw.AnswerButton(ctx, b.QueryID, "", false)
	}
}

// edit acknowledges the press and rewrites the originating message in place.
func (r *Router) edit(ctx context.Context, b *ButtonPress, text string, buttons [][]Button) error {
	if err := r.gw.AnswerButton(ctx, b.QueryID, "", false); err != nil {
		return err
	}
	return r.gw.EditText(ctx, b.ChatID, b.MessageID, text, buttons)
}

func (r *Router) alert(ctx context.Context, b *ButtonPress, text string) error {
	return r.gw.AnswerButton(ctx, b.QueryID, text, true)
}

// showMainMenu resets to Idle from any state. Safe to press repeatedly.
func (r *Router) showMainMenu(ctx context.Context, b *ButtonPress) error {
	name, err := r.users.DisplayName(ctx, b.UserID)
	if errors.Is(err, users.ErrNotFound) {
		if err := r.states.Set(ctx, b.UserID, state.AwaitingName{}); err != nil {
			return err
		}
		return r.edit(ctx, b, msgNameRequest, nil)
	}
	if err != nil {
		return err
	}
	if err := r.states.Set(ctx, b.UserID, state.Idle{}); err != nil {
		return err
	}
	return r.edit(ctx, b, msgWelcomeBack(name, b.UserID), mainMenuKeyboard())
}

func (r *Router) pickTimeLimit(ctx context.Context, b *ButtonPress, raw string) error {
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes < 0 {
		return r.alert(ctx, b, "❌ Unknown time limit")
	}
	if err := r.states.Set(ctx, b.UserID, state.CreatingTimedQuiz{TimeLimitMin: minutes}); err != nil {
		return err
	}
	head := fmt.Sprintf("⏱️ <b>Timed quiz</b> — %s\n\n", formatDuration(minutes))
	return r.edit(ctx, b, head+msgCreateInstruction, backToMainKeyboard())
}

func (r *Router) pickAttempts(ctx context.Context, b *ButtonPress, raw string) error {
	attempts, err := strconv.Atoi(raw)
	if err != nil || attempts < 1 {
		return r.alert(ctx, b, "❌ Unknown attempt count")
	}
	if err := r.states.Set(ctx, b.UserID, state.CreatingMultiAttemptQuiz{MaxAttempts: attempts}); err != nil {
		return err
	}
	head := fmt.Sprintf("🔄 <b>Multi-attempt quiz</b> — %d attempts\n\n", attempts)
	return r.edit(ctx, b, head+msgCreateInstruction, backToMainKeyboard())
}

func (r *Router) showMyStatistics(ctx context.Context, b *ButtonPress) error {
	stats, err := r.quizzes.StatsForUser(ctx, b.UserID)
	if err != nil {
		return err
	}
	var sb strings.Builder
	sb.WriteString("📊 <b>My statistics</b>\n\n")
	fmt.Fprintf(&sb, "🆕 Quizzes created: <b>%d</b>\n", stats.Created)
	fmt.Fprintf(&sb, "📝 Quizzes solved: <b>%d</b>\n", stats.Solved)
	if stats.Solved > 0 {
		fmt.Fprintf(&sb, "📈 Average result: <b>%.1f%%</b>\n", stats.Average)
		fmt.Fprintf(&sb, "🏅 Best result: <b>%.1f%%</b>\n", stats.Best)
	}
	fmt.Fprintf(&sb, "\n📈 <b>Level:</b> %s", activityLevel(stats.Solved))
	return r.edit(ctx, b, sb.String(), backToMainKeyboard())
}

func activityLevel(solved int) string {
	switch {
	case solved < 5:
		return "Beginner"
	case solved < 15:
		return "Active user"
	default:
		return "Expert"
	}
}

func (r *Router) showRatings(ctx context.Context, b *ButtonPress) error {
	top, err := r.quizzes.TopPerformers(ctx, 3, 10)
	if err != nil {
		return err
	}
	var sb strings.Builder
	sb.WriteString("🏆 <b>Top performers</b>\n")
	sb.WriteString("<i>Solvers with at least 3 attempts</i>\n\n")
	if len(top) == 0 {
		sb.WriteString("Nobody has qualified yet. Solve some quizzes!")
	}
	medals := []string{"🥇", "🥈", "🥉"}
	for i, p := range top {
		mark := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			mark = medals[i]
		}
		fmt.Fprintf(&sb, "%s <b>%s</b> — %.1f%% (%d attempts)\n", mark, p.DisplayName, p.AveragePercentage, p.AttemptCount)
	}
	return r.edit(ctx, b, sb.String(), backToMainKeyboard())
}

func (r *Router) showQuizInfo(ctx context.Context, b *ButtonPress, code string) error {
	q, err := r.quizzes.GetActive(ctx, code)
	if errors.Is(err, quiz.ErrNotFound) {
		return r.alert(ctx, b, "❌ Quiz not found or already finished")
	}
	if err != nil {
		return err
	}
	board, err := r.quizzes.Leaderboard(ctx, code)
	if err != nil {
		return err
	}
	best := dedupeBest(board)

	var sb strings.Builder
	sb.WriteString("📊 <b>Quiz info</b>\n\n")
	fmt.Fprintf(&sb, "📚 Subject: <b>%s</b>\n", q.Subject)
	fmt.Fprintf(&sb, "🔢 Code: <code>%s</code>\n", q.Code)
	fmt.Fprintf(&sb, "❓ Questions: <b>%d</b>\n", len(q.AnswerKey))
	fmt.Fprintf(&sb, "👥 Participants: <b>%d</b> (%d submissions)\n", len(best), len(board))
	if len(board) > 0 {
		var sum float64
		passed := 0
		for _, e := range board {
			sum += e.Percentage
			if e.Percentage >= grading.CertificateThreshold {
				passed++
			}
		}
		fmt.Fprintf(&sb, "📈 Average: <b>%.1f%%</b>\n", sum/float64(len(board)))
		fmt.Fprintf(&sb, "🎯 Pass rate: <b>%.0f%%</b>\n", 100*float64(passed)/float64(len(board)))
		fmt.Fprintf(&sb, "🏅 Best: <b>%s — %.1f%%</b>\n", best[0].DisplayName, best[0].Percentage)
		sb.WriteString("\n🏆 <b>Top results:</b>\n")
		top := best
		if len(top) > 10 {
			top = top[:10]
		}
		for i, e := range top {
			fmt.Fprintf(&sb, "%d. %s — %d/%d (%.1f%%)\n", i+1, e.DisplayName, e.CorrectCount, e.Total, e.Percentage)
		}
	}
	fmt.Fprintf(&sb, "\n🔗 Invite link:\n%s", r.deepLinkURL(code))
	return r.edit(ctx, b, sb.String(), quizManageKeyboard(code))
}

// Score bands for the per-quiz report, mirroring the grade tiers.
func (r *Router) showDetailedReport(ctx context.Context, b *ButtonPress, code string) error {
	q, err := r.quizzes.GetActive(ctx, code)
	if errors.Is(err, quiz.ErrNotFound) {
		return r.alert(ctx, b, "❌ Quiz not found or already finished")
	}
	if err != nil {
		return err
	}
	board, err := r.quizzes.Leaderboard(ctx, code)
	if err != nil {
		return err
	}
	var excellent, great, good, satisfactory, retry int
	for _, e := range board {
		switch {
		case e.Percentage >= 90:
			excellent++
		case e.Percentage >= 80:
			great++
		case e.Percentage >= 60:
			good++
		case e.Percentage >= 40:
			satisfactory++
		default:
			retry++
		}
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📈 <b>Detailed report</b> — %s (<code>%s</code>)\n\n", q.Subject, q.Code)
	fmt.Fprintf(&sb, "🥇 90%%+: <b>%d</b>\n", excellent)
	fmt.Fprintf(&sb, "🥈 80–89%%: <b>%d</b>\n", great)
	fmt.Fprintf(&sb, "🥉 60–79%%: <b>%d</b>\n", good)
	fmt.Fprintf(&sb, "🎗️ 40–59%%: <b>%d</b>\n", satisfactory)
	fmt.Fprintf(&sb, "📜 below 40%%: <b>%d</b>\n\n", retry)
	fmt.Fprintf(&sb, "Total submissions: <b>%d</b>", len(board))
	if len(board) > 0 {
		var sum float64
		for _, e := range board {
			sum += e.Percentage
		}
		switch avg := sum / float64(len(board)); {
		case avg < 40:
			sb.WriteString("\n\n💡 The quiz may be too hard: the average is below the pass mark.")
		case avg > 85:
			sb.WriteString("\n\n💡 The quiz may be too easy: most participants scored very high.")
		}
	}
	return r.edit(ctx, b, sb.String(), quizManageKeyboard(code))
}

func (r *Router) showQuizSettings(ctx context.Context, b *ButtonPress, code string) error {
	q, err := r.quizzes.GetActive(ctx, code)
	if errors.Is(err, quiz.ErrNotFound) {
		return r.alert(ctx, b, "❌ Quiz not found or already finished")
	}
	if err != nil {
		return err
	}
	if q.CreatorID != b.UserID {
		if err := r.alert(ctx, b, "🚫 Only the quiz author can open settings"); err != nil {
			return err
		}
		return ErrPermissionDenied
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "⚙️ <b>Quiz settings</b> — <code>%s</code>\n\n", q.Code)
	fmt.Fprintf(&sb, "📚 Subject: <b>%s</b>\n", q.Subject)
	fmt.Fprintf(&sb, "⏱️ Time limit: <b>%s</b>\n", formatDuration(q.TimeLimitMin))
	fmt.Fprintf(&sb, "🔄 Attempts: <b>%d</b>\n", q.MaxAttempts)
	fmt.Fprintf(&sb, "📈 Difficulty: <b>%s</b>\n", q.Difficulty)
	if q.Description != "" {
		fmt.Fprintf(&sb, "📄 Description: %s\n", q.Description)
	}
	sb.WriteString("\nTo change anything, finish this quiz and create a new one.")
	return r.edit(ctx, b, sb.String(), quizManageKeyboard(code))
}

// finishQuiz deactivates a quiz and fans out one terminal message per
// recorded submission. Pressing finish twice takes the not-found path:
// GetActive no longer sees the quiz.
func (r *Router) finishQuiz(ctx context.Context, b *ButtonPress, code string) error {
	q, err := r.quizzes.GetActive(ctx, code)
	if errors.Is(err, quiz.ErrNotFound) {
		return r.alert(ctx, b, "❌ Quiz not found or already finished")
	}
	if err != nil {
		return err
	}
	if q.CreatorID != b.UserID {
		if err := r.alert(ctx, b, "🚫 Only the quiz author can finish it"); err != nil {
			return err
		}
		return ErrPermissionDenied
	}
	board, err := r.quizzes.Leaderboard(ctx, code)
	if err != nil {
		return err
	}
	if len(board) == 0 {
		return r.alert(ctx, b, "📭 Nobody has solved this quiz yet")
	}
	if err := r.quizzes.Deactivate(ctx, code); err != nil {
		return err
	}

	certBase := r.certBase
	creatorName := q.CreatorName
	for _, e := range board {
		entry := e
		if entry.Percentage >= grading.CertificateThreshold {
			tier := grading.Classify(entry.Percentage)
			certURL := certificateURL(certBase, entry.DisplayName, q.Subject, creatorName, entry.CorrectCount, entry.Percentage, tier)
			caption := msgFinishedCertificate(q, entry, tier)
			r.notify.Submit("final certificate", time.Second, func(ctx context.Context) error {
				return r.gw.SendImage(ctx, entry.UserID, certURL, caption, nil)
			})
		} else {
			body := msgFinishedEncouragement(q, entry)
			r.notify.Submit("final encouragement", time.Second, func(ctx context.Context) error {
				return r.gw.SendText(ctx, entry.UserID, body, nil)
			})
		}
	}
	return r.edit(ctx, b, msgFinishSummary(q, board, len(board)), backToMainKeyboard())
}

// dedupeBest keeps each participant's first entry of an already
// best-first-sorted board.
func dedupeBest(board []quiz.LeaderboardEntry) []quiz.LeaderboardEntry {
	seen := make(map[int64]bool, len(board))
	out := make([]quiz.LeaderboardEntry, 0, len(board))
	for _, e := range board {
		if seen[e.UserID] {
			continue
		}
		seen[e.UserID] = true
		out = append(out, e)
	}
	return out
}

const msgChooseQuizType = `🆕 <b>Create a quiz</b>

Choose the quiz type:

⚡ <b>Simple</b> — one attempt, no time limit
⏱️ <b>Timed</b> — advisory time limit shown to solvers
🔄 <b>Multi-attempt</b> — several tries, best result counts`
