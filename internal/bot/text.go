package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ollashukur/testbot/internal/grading"
	"github.com/ollashukur/testbot/internal/quiz"
	"github.com/ollashukur/testbot/internal/state"
	"github.com/ollashukur/testbot/internal/users"
)

// Name tokens allow letters from any script plus apostrophes (O'rinboyev).
var nameTokenRe = regexp.MustCompile(`^[\p{L}']+$`)

const (
	maxNameLen        = 50
	maxSubjectLen     = 50
	maxDescriptionLen = 100
	minQuestions      = 5
	maxQuestions      = 50
)

func (r *Router) handleMessage(ctx context.Context, m *TextMessage) error {
	if err := r.users.TouchActivity(ctx, m.UserID); err != nil {
		return err
	}
	text := strings.TrimSpace(m.Text)

	// /start cuts through whatever state the user is in.
	if strings.HasPrefix(text, "/start") {
		return r.handleStart(ctx, m, text)
	}

	st, err := r.currentState(ctx, m.UserID)
	if err != nil {
		return err
	}
	switch s := st.(type) {
	case state.AwaitingName:
		return r.handleNameInput(ctx, m, text)
	case state.CreatingSimpleQuiz:
		return r.handleQuizCreation(ctx, m, text, 0, 1, "📝 Simple")
	case state.CreatingTimedQuiz:
		return r.handleQuizCreation(ctx, m, text, s.TimeLimitMin, 1, "⏱️ Timed")
	case state.CreatingMultiAttemptQuiz:
		return r.handleQuizCreation(ctx, m, text, 0, s.MaxAttempts, "🔄 Multi-attempt")
	case state.SolvingQuiz:
		return r.handleSolve(ctx, m, text)
	case state.AwaitingBroadcast:
		if r.isAdmin(m.UserID) {
			return r.handleBroadcast(ctx, m, text)
		}
		// Stale state from a revoked admin id: fall back to Idle handling.
		if err := r.states.Set(ctx, m.UserID, state.Idle{}); err != nil {
			return err
		}
	}

	// Idle. Admin commands match only for the configured admin; everyone
	// else falls through as if the command did not exist.
	if text == "/panel" && r.isAdmin(m.UserID) {
		return r.handlePanel(ctx, m)
	}
	if text == "/rename" {
		if err := r.states.Set(ctx, m.UserID, state.AwaitingName{}); err != nil {
			return err
		}
		note := msgNameRequest + "\n\n⚠️ <b>Note:</b> new certificates will use the new name."
		return r.gw.SendText(ctx, m.ChatID, note, backToMainKeyboard())
	}

	if _, err := r.users.DisplayName(ctx, m.UserID); errors.Is(err, users.ErrNotFound) {
		if err := r.states.Set(ctx, m.UserID, state.AwaitingName{}); err != nil {
			return err
		}
		return r.gw.SendText(ctx, m.ChatID, msgNameRequest, nil)
	} else if err != nil {
		return err
	}
	return r.gw.SendText(ctx, m.ChatID, msgUnknownCommand, mainMenuKeyboard())
}

func (r *Router) handleStart(ctx context.Context, m *TextMessage, text string) error {
	name, err := r.users.DisplayName(ctx, m.UserID)
	if errors.Is(err, users.ErrNotFound) {
		if err := r.states.Set(ctx, m.UserID, state.AwaitingName{}); err != nil {
			return err
		}
		return r.gw.SendText(ctx, m.ChatID, msgWelcome+"\n\n"+msgNameRequest, nil)
	}
	if err != nil {
		return err
	}

	// Deep link: /start test_<code> drops a known user straight into
	// solving. An unknown or finished code falls through to the plain
	// menu; a storage failure does not.
	payload := strings.TrimSpace(strings.TrimPrefix(text, "/start"))
	if code, ok := strings.CutPrefix(payload, "test_"); ok {
		q, qerr := r.quizzes.GetActive(ctx, code)
		if qerr == nil {
			if err := r.states.Set(ctx, m.UserID, state.SolvingQuiz{}); err != nil {
				return err
			}
			return r.gw.SendText(ctx, m.ChatID, msgDeepLinkQuiz(q), backToMainKeyboard())
		}
		if !errors.Is(qerr, quiz.ErrNotFound) {
			return fmt.Errorf("deep link %s: %w", code, qerr)
		}
	}

	if err := r.states.Set(ctx, m.UserID, state.Idle{}); err != nil {
		return err
	}
	return r.gw.SendText(ctx, m.ChatID, msgWelcomeBack(name, m.UserID), mainMenuKeyboard())
}

func (r *Router) handleNameInput(ctx context.Context, m *TextMessage, text string) error {
	if err := validateName(text); err != nil {
		// State stays AwaitingName; the user retries until the format fits.
		return r.gw.SendText(ctx, m.ChatID, msgNameError, nil)
	}
	if err := r.users.Upsert(ctx, m.UserID, text, m.HandleHint); err != nil {
		return err
	}
	if err := r.states.Set(ctx, m.UserID, state.Idle{}); err != nil {
		return err
	}
	if err := r.gw.SendText(ctx, m.ChatID, msgNameSaved(text), nil); err != nil {
		return err
	}
	chatID := m.ChatID
	userID := m.UserID
	r.notify.Submit("post-registration menu", 2*time.Second, func(ctx context.Context) error {
		return r.gw.SendText(ctx, chatID, msgWelcomeBack(text, userID), mainMenuKeyboard())
	})
	return nil
}

func validateName(text string) error {
	tokens := strings.Fields(text)
	if len(tokens) < 2 {
		return validationErr("name needs at least two words")
	}
	if utf8.RuneCountInString(text) > maxNameLen {
		return validationErr("name too long")
	}
	for _, tok := range tokens {
		if !nameTokenRe.MatchString(tok) {
			return validationErr("name tokens must be letters only")
		}
	}
	return nil
}

func (r *Router) handleQuizCreation(ctx context.Context, m *TextMessage, text string, timeLimit, maxAttempts int, kind string) error {
	p, verr := parseQuizDefinition(text)
	if verr != nil {
		// State unchanged: the user stays in the creation flow and retries.
		return r.gw.SendText(ctx, m.ChatID, creationErrorMessage(verr), nil)
	}

	code, err := r.quizzes.Create(ctx, quiz.CreateParams{
		Subject:      p.subject,
		AnswerKey:    p.answers,
		CreatorID:    m.UserID,
		TimeLimitMin: timeLimit,
		MaxAttempts:  maxAttempts,
		Description:  p.description,
		Difficulty:   quiz.DifficultyEasy,
	})
	if err != nil {
		return err
	}
	if err := r.states.Set(ctx, m.UserID, state.Idle{}); err != nil {
		return err
	}

	created := quiz.Quiz{
		Code:         code,
		Subject:      p.subject,
		AnswerKey:    p.answers,
		TimeLimitMin: timeLimit,
		MaxAttempts:  maxAttempts,
		Description:  p.description,
		Difficulty:   quiz.DifficultyEasy,
	}
	if err := r.gw.SendText(ctx, m.ChatID, msgQuizCreated(created, kind), quizManageKeyboard(code)); err != nil {
		return err
	}
	chatID := m.ChatID
	r.notify.Submit("post-creation status", 3*time.Second, func(ctx context.Context) error {
		return r.gw.SendText(ctx, chatID, msgQuizCreatedStatus(code, r.botUsername), backToMainKeyboard())
	})
	return nil
}

type quizDefinition struct {
	subject     string
	answers     string
	description string
}

// parseQuizDefinition splits "subject*answers[*description]" and validates
// each field. The first failing check wins.
func parseQuizDefinition(text string) (quizDefinition, *ValidationError) {
	parts := strings.SplitN(text, "*", 3)
	if len(parts) < 2 {
		return quizDefinition{}, &ValidationError{Reason: "missing * delimiter"}
	}
	p := quizDefinition{
		subject: strings.TrimSpace(parts[0]),
		answers: strings.ToLower(strings.TrimSpace(parts[1])),
	}
	if len(parts) == 3 {
		p.description = strings.TrimSpace(parts[2])
	}
	if p.subject == "" || utf8.RuneCountInString(p.subject) > maxSubjectLen {
		return quizDefinition{}, &ValidationError{Reason: "subject must be 1-50 characters"}
	}
	if !grading.ValidAnswers(p.answers) {
		return quizDefinition{}, &ValidationError{Reason: "answers must use only a, b, c, d"}
	}
	if len(p.answers) < minQuestions || len(p.answers) > maxQuestions {
		return quizDefinition{}, &ValidationError{Reason: "quiz must have 5-50 questions"}
	}
	if utf8.RuneCountInString(p.description) > maxDescriptionLen {
		return quizDefinition{}, &ValidationError{Reason: "description must not exceed 100 characters"}
	}
	return p, nil
}

func creationErrorMessage(verr *ValidationError) string {
	switch verr.Reason {
	case "missing * delimiter":
		return "❌ <b>Wrong format!</b>\n\n" + msgCreateInstruction
	case "subject must be 1-50 characters":
		return "❌ The subject must be between 1 and 50 characters!"
	case "answers must use only a, b, c, d":
		return msgBadAlphabet
	case "quiz must have 5-50 questions":
		return "❌ The quiz must have between 5 and 50 questions!"
	case "description must not exceed 100 characters":
		return "❌ The description must not exceed 100 characters!"
	default:
		return "❌ <b>Wrong format!</b>\n\n" + msgCreateInstruction
	}
}

func (r *Router) handleSolve(ctx context.Context, m *TextMessage, text string) error {
	parts := strings.Split(text, "*")
	if len(parts) != 2 {
		// All solve-stage validation failures leave the user in SolvingQuiz.
		return r.gw.SendText(ctx, m.ChatID, "❌ <b>Wrong format!</b>\n\n"+msgSolveInstruction, nil)
	}
	code := strings.TrimSpace(parts[0])
	answers := strings.ToLower(strings.TrimSpace(parts[1]))

	q, err := r.quizzes.GetActive(ctx, code)
	if errors.Is(err, quiz.ErrNotFound) {
		return r.gw.SendText(ctx, m.ChatID, msgQuizNotFound(code), nil)
	}
	if err != nil {
		return err
	}
	if len(answers) != len(q.AnswerKey) {
		return r.gw.SendText(ctx, m.ChatID, msgLengthMismatch(code, len(q.AnswerKey), len(answers)), nil)
	}
	if !grading.ValidAnswers(answers) {
		return r.gw.SendText(ctx, m.ChatID, msgBadAlphabet, nil)
	}
	prior, err := r.quizzes.CountAttempts(ctx, m.UserID, code)
	if err != nil {
		return err
	}
	if prior >= q.MaxAttempts {
		return r.gw.SendText(ctx, m.ChatID, msgAttemptsExhausted(q.MaxAttempts), nil)
	}

	res, err := grading.Grade(q.AnswerKey, answers)
	if err != nil {
		return fmt.Errorf("grade %s: %w", code, err)
	}
	attemptNumber := prior + 1
	err = r.quizzes.RecordSubmission(ctx, quiz.Submission{
		UserID:        m.UserID,
		QuizCode:      code,
		Answers:       answers,
		CorrectCount:  res.CorrectCount,
		Total:         res.Total,
		Percentage:    res.Percentage,
		AttemptNumber: attemptNumber,
	})
	if errors.Is(err, quiz.ErrAttemptsExhausted) {
		return r.gw.SendText(ctx, m.ChatID, msgAttemptsExhausted(q.MaxAttempts), nil)
	}
	if err != nil {
		return err
	}
	if err := r.states.Set(ctx, m.UserID, state.Idle{}); err != nil {
		return err
	}

	tier := grading.Classify(res.Percentage)
	solverName, err := r.users.DisplayName(ctx, m.UserID)
	if err != nil {
		solverName = m.DisplayNameHint
	}
	if err := r.gw.SendText(ctx, m.ChatID, msgResult(q, solverName, res, tier, attemptNumber), backToMainKeyboard()); err != nil {
		return err
	}

	chatID := m.ChatID
	solverID := m.UserID
	if res.Percentage >= grading.CertificateThreshold {
		certURL := certificateURL(r.certBase, solverName, q.Subject, q.CreatorName, res.CorrectCount, res.Percentage, tier)
		caption := msgCertificateCaption(solverName, q.Subject, res.Percentage, tier)
		r.notify.Submit("certificate", 2*time.Second, func(ctx context.Context) error {
			return r.gw.SendImage(ctx, chatID, certURL, caption, backToMainKeyboard())
		})
	} else {
		remaining := q.MaxAttempts - attemptNumber
		r.notify.Submit("encouragement", 3*time.Second, func(ctx context.Context) error {
			return r.gw.SendText(ctx, chatID, msgEncouragement(remaining), backToMainKeyboard())
		})
	}
	notif := msgCreatorNotification(q, solverID, solverName, res, tier, attemptNumber)
	creatorID := q.CreatorID
	r.notify.Submit("creator notification", time.Second, func(ctx context.Context) error {
		return r.gw.SendText(ctx, creatorID, notif, quizManageKeyboard(code))
	})
	return nil
}

func (r *Router) handleBroadcast(ctx context.Context, m *TextMessage, text string) error {
	ids, err := r.users.AllIDs(ctx)
	if err != nil {
		return err
	}
	if err := r.states.Set(ctx, m.UserID, state.Idle{}); err != nil {
		return err
	}
	body := "📢 <b>Announcement</b>\n\n" + text
	queued := 0
	for _, id := range ids {
		if id == m.UserID {
			continue
		}
		target := id
		r.notify.Submit("broadcast", 0, func(ctx context.Context) error {
			return r.gw.SendText(ctx, target, body, nil)
		})
		queued++
	}
	confirm := fmt.Sprintf("✅ <b>Broadcast queued</b> to %d user(s).", queued)
	return r.gw.SendText(ctx, m.ChatID, confirm, backToMainKeyboard())
}

func msgDeepLinkQuiz(q quiz.Quiz) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎯 <b>You were invited to a quiz!</b>\n\n")
	fmt.Fprintf(&b, "📚 <b>Subject:</b> %s\n", q.Subject)
	fmt.Fprintf(&b, "👨‍🏫 <b>Author:</b> %s\n", q.CreatorName)
	fmt.Fprintf(&b, "❓ <b>Questions:</b> %d\n", len(q.AnswerKey))
	fmt.Fprintf(&b, "📈 <b>Difficulty:</b> %s\n", q.Difficulty)
	if q.TimeLimitMin > 0 {
		fmt.Fprintf(&b, "⏱️ <b>Time limit:</b> %s\n", formatDuration(q.TimeLimitMin))
	}
	fmt.Fprintf(&b, "\n%s\n\n💡 <b>Reply with:</b> <code>%s*your_answers</code>", msgSolveInstruction, q.Code)
	return b.String()
}
