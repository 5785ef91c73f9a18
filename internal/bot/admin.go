package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ollashukur/testbot/internal/state"
)

const msgAdminPanel = `🛠 <b>Admin panel</b>

Pick a section:`

// adminOnly gates a callback behind the configured admin id. Non-admins get
// a bare acknowledgement, indistinguishable from a stale button.
func (r *Router) adminOnly(ctx context.Context, b *ButtonPress, fn func(context.Context, *ButtonPress) error) error {
	if !r.isAdmin(b.UserID) {
		return r.gw.AnswerButton(ctx, b.QueryID, "", false)
	}
	return fn(ctx, b)
}

func (r *Router) handlePanel(ctx context.Context, m *TextMessage) error {
	return r.gw.SendText(ctx, m.ChatID, msgAdminPanel, adminPanelKeyboard())
}

func (r *Router) showBotStats(ctx context.Context, b *ButtonPress) error {
	total, err := r.users.Count(ctx)
	if err != nil {
		return err
	}
	weekAgo := time.Now().AddDate(0, 0, -7)
	active, err := r.users.CountActiveSince(ctx, weekAgo)
	if err != nil {
		return err
	}
	activeQuizzes, err := r.quizzes.CountActive(ctx)
	if err != nil {
		return err
	}
	submissions, err := r.quizzes.CountSubmissions(ctx)
	if err != nil {
		return err
	}
	daily, err := r.quizzes.DailyActivity(ctx, 7)
	if err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString("📊 <b>Bot statistics</b>\n\n")
	fmt.Fprintf(&sb, "👥 Users: <b>%d</b> (%d active this week)\n", total, active)
	fmt.Fprintf(&sb, "📝 Active quizzes: <b>%d</b>\n", activeQuizzes)
	fmt.Fprintf(&sb, "📈 Submissions total: <b>%d</b>\n", submissions)
	if len(daily) > 0 {
		sb.WriteString("\n📅 <b>Last 7 days</b>\n")
		for _, d := range daily {
			fmt.Fprintf(&sb, "%s — %d\n", d.Date, d.Count)
		}
	}
	return r.edit(ctx, b, sb.String(), adminPanelKeyboard())
}

func (r *Router) showUserManagement(ctx context.Context, b *ButtonPress) error {
	total, err := r.users.Count(ctx)
	if err != nil {
		return err
	}
	recent, err := r.users.Recent(ctx, 10)
	if err != nil {
		return err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 <b>Users</b> — %d registered\n\n", total)
	if len(recent) == 0 {
		sb.WriteString("Nobody has registered yet.")
	} else {
		sb.WriteString("<b>Newest registrations:</b>\n")
		for _, u := range recent {
			handle := ""
			if u.Handle != "" {
				handle = " (@" + u.Handle + ")"
			}
			fmt.Fprintf(&sb, "• %s%s — <code>%d</code>, %s\n",
				u.DisplayName, handle, u.ID, u.RegisteredAt.Format("2006-01-02"))
		}
	}
	return r.edit(ctx, b, sb.String(), adminPanelKeyboard())
}

func (r *Router) showAllQuizzes(ctx context.Context, b *ButtonPress) error {
	recent, err := r.quizzes.Recent(ctx, 10)
	if err != nil {
		return err
	}
	var sb strings.Builder
	sb.WriteString("📝 <b>Latest quizzes</b>\n\n")
	if len(recent) == 0 {
		sb.WriteString("No quizzes yet.")
	}
	for _, s := range recent {
		status := "🟢"
		if !s.Quiz.Active {
			status = "🔴"
		}
		fmt.Fprintf(&sb, "%s <code>%s</code> — %s by %s, %d questions, %d participants\n",
			status, s.Quiz.Code, s.Quiz.Subject, s.Quiz.CreatorName, len(s.Quiz.AnswerKey), s.Participants)
	}
	return r.edit(ctx, b, sb.String(), adminPanelKeyboard())
}

func (r *Router) promptBroadcast(ctx context.Context, b *ButtonPress) error {
	if err := r.states.Set(ctx, b.UserID, state.AwaitingBroadcast{}); err != nil {
		return err
	}
	return r.edit(ctx, b, "📢 <b>Broadcast</b>\n\nSend the message to deliver to every registered user:", backToMainKeyboard())
}
