package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ollashukur/testbot/internal/quiz"
)

// handleInline serves the share flow: an inline query "test_<code>" becomes
// a forwardable invitation card. Inline queries are read-only; they never
// touch user records or conversation state.
func (r *Router) handleInline(ctx context.Context, q *InlineQuery) error {
	query := strings.TrimSpace(q.Query)
	code, ok := strings.CutPrefix(query, "test_")
	if !ok {
		return r.gw.AnswerInline(ctx, q.QueryID, []Article{r.promoArticle()})
	}

	found, err := r.quizzes.GetActive(ctx, code)
	if errors.Is(err, quiz.ErrNotFound) {
		return r.gw.AnswerInline(ctx, q.QueryID, []Article{{
			ID:          "notfound_" + code,
			Title:       "❌ Quiz not found",
			Description: fmt.Sprintf("No active quiz with code %s", code),
			Text:        msgQuizNotFound(code),
		}})
	}
	if err != nil {
		return err
	}

	var body strings.Builder
	fmt.Fprintf(&body, "🎯 <b>Quiz invitation</b>\n\n")
	fmt.Fprintf(&body, "📚 <b>Subject:</b> %s\n", found.Subject)
	fmt.Fprintf(&body, "👨‍🏫 <b>Author:</b> %s\n", found.CreatorName)
	fmt.Fprintf(&body, "❓ <b>Questions:</b> %d\n", len(found.AnswerKey))
	fmt.Fprintf(&body, "📈 <b>Difficulty:</b> %s\n", found.Difficulty)
	if found.TimeLimitMin > 0 {
		fmt.Fprintf(&body, "⏱️ <b>Time limit:</b> %s\n", formatDuration(found.TimeLimitMin))
	}
	if found.Description != "" {
		fmt.Fprintf(&body, "📄 %s\n", found.Description)
	}
	fmt.Fprintf(&body, "\n🔢 <b>Code:</b> <code>%s</code>", found.Code)

	return r.gw.AnswerInline(ctx, q.QueryID, []Article{{
		ID:          "test_" + code,
		Title:       fmt.Sprintf("📝 %s (%d questions)", found.Subject, len(found.AnswerKey)),
		Description: fmt.Sprintf("by %s • code %s", found.CreatorName, found.Code),
		Text:        body.String(),
		Buttons: [][]Button{
			{{Text: "🚀 Solve this quiz", URL: r.deepLinkURL(code)}},
		},
	}})
}

func (r *Router) promoArticle() Article {
	return Article{
		ID:          "promo",
		Title:       "🤖 Quiz Bot",
		Description: "Create and share quizzes with automatic grading",
		Text: "🤖 <b>Quiz Bot</b>\n\nCreate quizzes, share them with a code, and get graded instantly.\n\n" +
			"👉 " + r.botURL(),
		Buttons: [][]Button{
			{{Text: "🚀 Open the bot", URL: r.botURL()}},
		},
	}
}
