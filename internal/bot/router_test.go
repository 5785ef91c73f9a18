package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ollashukur/testbot/internal/quiz"
	"github.com/ollashukur/testbot/internal/state"
	"github.com/ollashukur/testbot/internal/users"
)

type sentText struct {
	ChatID  int64
	Text    string
	Buttons [][]Button
}

type sentEdit struct {
	ChatID    int64
	MessageID int
	Text      string
	Buttons   [][]Button
}

type sentAnswer struct {
	QueryID string
	Text    string
	Alert   bool
}

// fakeGateway records outbound traffic. Mutex-guarded because notifier
// workers may deliver concurrently with test assertions.
type fakeGateway struct {
	mu      sync.Mutex
	texts   []sentText
	edits   []sentEdit
	images  []string
	answers []sentAnswer
	inline  map[string][]Article
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{inline: map[string][]Article{}}
}

func (g *fakeGateway) SendText(_ context.Context, chatID int64, text string, buttons [][]Button) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.texts = append(g.texts, sentText{ChatID: chatID, Text: text, Buttons: buttons})
	return nil
}

func (g *fakeGateway) EditText(_ context.Context, chatID int64, messageID int, text string, buttons [][]Button) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edits = append(g.edits, sentEdit{ChatID: chatID, MessageID: messageID, Text: text, Buttons: buttons})
	return nil
}

func (g *fakeGateway) SendImage(_ context.Context, chatID int64, imageURL, caption string, _ [][]Button) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.images = append(g.images, imageURL)
	return nil
}

func (g *fakeGateway) AnswerButton(_ context.Context, queryID, text string, alert bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.answers = append(g.answers, sentAnswer{QueryID: queryID, Text: text, Alert: alert})
	return nil
}

func (g *fakeGateway) AnswerInline(_ context.Context, queryID string, articles []Article) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inline[queryID] = articles
	return nil
}

func (g *fakeGateway) lastText(t *testing.T) sentText {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.texts) == 0 {
		t.Fatal("no text messages sent")
	}
	return g.texts[len(g.texts)-1]
}

func (g *fakeGateway) countTextsTo(chatID int64, substr string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, s := range g.texts {
		if s.ChatID == chatID && strings.Contains(s.Text, substr) {
			n++
		}
	}
	return n
}

func (g *fakeGateway) allImages() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.images...)
}

func (g *fakeGateway) lastEdit(t *testing.T) sentEdit {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.edits) == 0 {
		t.Fatal("no message edits sent")
	}
	return g.edits[len(g.edits)-1]
}

type testEnv struct {
	router  *Router
	gw      *fakeGateway
	quizzes quiz.Store
	users   users.Store
	states  state.Store
	notify  *Notifier
}

const testAdminID = int64(777)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := newFakeGateway()
	userDir := users.NewInMemoryStore()
	quizzes := quiz.NewInMemoryStore(userDir)
	states := state.NewInMemoryStore()
	// Delays skipped so drain() returns without waiting them out.
	notify := newNotifier(log, 1, 64, func(time.Duration) {})
	r := NewRouter(Config{
		AdminID:        testAdminID,
		BotUsername:    "quizbot",
		CertificateURL: "https://certs.example/image.php",
	}, gw, quizzes, userDir, states, notify, log)
	return &testEnv{router: r, gw: gw, quizzes: quizzes, users: userDir, states: states, notify: notify}
}

// drain flushes every queued background send. The notifier is closed
// afterwards, so call it only once all updates are in.
func (e *testEnv) drain() {
	e.notify.Close()
}

func (e *testEnv) message(t *testing.T, userID int64, text string) {
	t.Helper()
	err := e.router.HandleUpdate(context.Background(), Update{Message: &TextMessage{
		ChatID: userID, UserID: userID, Text: text,
	}})
	if err != nil {
		t.Fatalf("message %q: %v", text, err)
	}
}

func (e *testEnv) press(t *testing.T, userID int64, data string) {
	t.Helper()
	err := e.router.HandleUpdate(context.Background(), Update{Button: &ButtonPress{
		ChatID: userID, UserID: userID, MessageID: 1, QueryID: "q1", Data: data,
	}})
	if err != nil {
		t.Fatalf("press %q: %v", data, err)
	}
}

func (e *testEnv) register(t *testing.T, userID int64, name string) {
	t.Helper()
	if err := e.users.Upsert(context.Background(), userID, name, ""); err != nil {
		t.Fatal(err)
	}
}

func (e *testEnv) mustState(t *testing.T, userID int64, wantTag string) {
	t.Helper()
	st, err := e.states.Get(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	if st.Tag() != wantTag {
		t.Fatalf("state = %q, want %q", st.Tag(), wantTag)
	}
}

func (e *testEnv) createQuiz(t *testing.T, creatorID int64, definition string) string {
	t.Helper()
	ctx := context.Background()
	if err := e.states.Set(ctx, creatorID, state.CreatingSimpleQuiz{}); err != nil {
		t.Fatal(err)
	}
	e.message(t, creatorID, definition)
	e.mustState(t, creatorID, "")
	recent, err := e.quizzes.Recent(ctx, 1)
	if err != nil || len(recent) == 0 {
		t.Fatalf("quiz not created: %v", err)
	}
	return recent[0].Quiz.Code
}

func TestRegistrationFlow(t *testing.T) {
	e := newTestEnv(t)

	e.message(t, 1, "/start")
	e.mustState(t, 1, "awaiting_name")
	if !strings.Contains(e.gw.lastText(t).Text, "full name") {
		t.Errorf("expected name prompt, got %q", e.gw.lastText(t).Text)
	}

	e.message(t, 1, "X")
	e.mustState(t, 1, "awaiting_name")

	e.message(t, 1, "Olim Karimov")
	e.mustState(t, 1, "")
	name, err := e.users.DisplayName(context.Background(), 1)
	if err != nil || name != "Olim Karimov" {
		t.Fatalf("DisplayName = %q, %v", name, err)
	}

	e.message(t, 1, "/start")
	if !strings.Contains(e.gw.lastText(t).Text, "Olim Karimov") {
		t.Errorf("welcome back should greet by name: %q", e.gw.lastText(t).Text)
	}
}

func TestNameValidation(t *testing.T) {
	cases := []struct {
		name string
		ok   bool
	}{
		{"Olim Karimov", true},
		{"G'ofur O'rinboyev", true},
		{"Анна Каренина", true},
		{"Olim", false},
		{"Olim Karimov42", false},
		{"Olim  Karimov " + strings.Repeat("a", 50), false},
	}
	for _, c := range cases {
		err := validateName(c.name)
		if (err == nil) != c.ok {
			t.Errorf("validateName(%q) err=%v, want ok=%v", c.name, err, c.ok)
		}
	}
}

func TestQuizCreationSuccess(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, 10, "Aziza Tosheva")

	code := e.createQuiz(t, 10, "Mathematics*abcdA*Algebra basics")

	q, err := e.quizzes.GetActive(context.Background(), code)
	if err != nil {
		t.Fatal(err)
	}
	if q.Subject != "Mathematics" || q.AnswerKey != "abcda" || q.Description != "Algebra basics" {
		t.Errorf("stored quiz = %+v", q)
	}
	if q.MaxAttempts != 1 || q.TimeLimitMin != 0 {
		t.Errorf("simple quiz defaults wrong: %+v", q)
	}
}

func TestQuizCreationValidationKeepsState(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, 10, "Aziza Tosheva")
	ctx := context.Background()
	if err := e.states.Set(ctx, 10, state.CreatingSimpleQuiz{}); err != nil {
		t.Fatal(err)
	}

	for _, bad := range []string{
		"no delimiter here",
		"*abcda",
		"Math*abxda",
		"Math*abc",
		"Math*" + strings.Repeat("abcd", 13), // 52 questions
		"Math*abcda*" + strings.Repeat("x", 101),
	} {
		e.message(t, 10, bad)
		e.mustState(t, 10, "creating_simple_quiz")
	}
	if n, _ := e.quizzes.CountActive(ctx); n != 0 {
		t.Fatalf("no quiz should exist, got %d", n)
	}
}

func TestTimedAndMultiAttemptCreation(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, 10, "Aziza Tosheva")
	ctx := context.Background()

	e.press(t, 10, cbTimePrefix+"15")
	e.mustState(t, 10, "creating_timed_quiz")
	e.message(t, 10, "Physics*abcda")
	recent, _ := e.quizzes.Recent(ctx, 1)
	if got := recent[0].Quiz.TimeLimitMin; got != 15 {
		t.Errorf("TimeLimitMin = %d, want 15", got)
	}

	e.press(t, 10, cbAttemptsPrefix+"3")
	e.mustState(t, 10, "creating_multi_attempt_quiz")
	e.message(t, 10, "Chemistry*abcda")
	recent, _ = e.quizzes.Recent(ctx, 1)
	if got := recent[0].Quiz.MaxAttempts; got != 3 {
		t.Errorf("MaxAttempts = %d, want 3", got)
	}
}

func TestSolveValidationOrder(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, 10, "Aziza Tosheva")
	e.register(t, 20, "Bobur Aliyev")
	code := e.createQuiz(t, 10, "Math*abcda")
	ctx := context.Background()

	if err := e.states.Set(ctx, 20, state.SolvingQuiz{}); err != nil {
		t.Fatal(err)
	}

	e.message(t, 20, "00000*abcda")
	if !strings.Contains(e.gw.lastText(t).Text, "not found") {
		t.Errorf("unknown code: %q", e.gw.lastText(t).Text)
	}
	e.mustState(t, 20, "solving_quiz")

	e.message(t, 20, code+"*abc")
	if !strings.Contains(e.gw.lastText(t).Text, "5") {
		t.Errorf("length mismatch should name expected count: %q", e.gw.lastText(t).Text)
	}
	e.mustState(t, 20, "solving_quiz")

	e.message(t, 20, code+"*abcdx")
	if !strings.Contains(e.gw.lastText(t).Text, "a, b, c, d") {
		t.Errorf("alphabet error: %q", e.gw.lastText(t).Text)
	}
	e.mustState(t, 20, "solving_quiz")

	e.message(t, 20, code+"*ABCDA")
	e.mustState(t, 20, "")
	if !strings.Contains(e.gw.lastText(t).Text, "5/5") {
		t.Errorf("result should report 5/5: %q", e.gw.lastText(t).Text)
	}
}

func TestEightOfTenIsGreat(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, 10, "Aziza Tosheva")
	e.register(t, 20, "Bobur Aliyev")
	code := e.createQuiz(t, 10, "History*abcdabcdab")
	ctx := context.Background()

	if err := e.states.Set(ctx, 20, state.SolvingQuiz{}); err != nil {
		t.Fatal(err)
	}
	// Questions 9 and 10 wrong: 8/10.
	e.message(t, 20, code+"*abcdabcdba")
	got := e.gw.lastText(t).Text
	if !strings.Contains(got, "8/10") || !strings.Contains(got, "80.0%") {
		t.Errorf("score line: %q", got)
	}
	if !strings.Contains(got, "Great") {
		t.Errorf("80%% should grade as Great: %q", got)
	}
}

func TestAttemptCeiling(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, 10, "Aziza Tosheva")
	e.register(t, 20, "Bobur Aliyev")
	code := e.createQuiz(t, 10, "Math*abcda")
	ctx := context.Background()

	if err := e.states.Set(ctx, 20, state.SolvingQuiz{}); err != nil {
		t.Fatal(err)
	}
	e.message(t, 20, code+"*abcda")
	e.mustState(t, 20, "")

	if err := e.states.Set(ctx, 20, state.SolvingQuiz{}); err != nil {
		t.Fatal(err)
	}
	e.message(t, 20, code+"*aaaaa")
	if !strings.Contains(e.gw.lastText(t).Text, "attempt") {
		t.Errorf("second try should be rejected: %q", e.gw.lastText(t).Text)
	}

	board, err := e.quizzes.Leaderboard(ctx, code)
	if err != nil {
		t.Fatal(err)
	}
	if len(board) != 1 {
		t.Fatalf("submissions = %d, want 1", len(board))
	}
}

func TestMainMenuResetsAnyState(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, 10, "Aziza Tosheva")
	ctx := context.Background()

	for _, st := range []state.State{
		state.AwaitingName{},
		state.CreatingSimpleQuiz{},
		state.CreatingTimedQuiz{TimeLimitMin: 5},
		state.SolvingQuiz{},
	} {
		if err := e.states.Set(ctx, 10, st); err != nil {
			t.Fatal(err)
		}
		e.press(t, 10, cbMainMenu)
		e.mustState(t, 10, "")
	}
	// Pressing again from Idle is a no-op reset.
	e.press(t, 10, cbMainMenu)
	e.mustState(t, 10, "")
}

func TestAdminCommandFallthrough(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, 10, "Aziza Tosheva")
	e.register(t, testAdminID, "Admin Adminov")

	e.message(t, 10, "/panel")
	if !strings.Contains(e.gw.lastText(t).Text, "understand") {
		t.Errorf("non-admin /panel should read as unknown text: %q", e.gw.lastText(t).Text)
	}

	e.message(t, testAdminID, "/panel")
	if !strings.Contains(e.gw.lastText(t).Text, "Admin panel") {
		t.Errorf("admin /panel: %q", e.gw.lastText(t).Text)
	}

	// Admin buttons: non-admin gets a bare ack, no edit.
	before := len(e.gw.edits)
	e.press(t, 10, cbBotStats)
	if len(e.gw.edits) != before {
		t.Error("non-admin bot_stats should not edit anything")
	}
	e.press(t, testAdminID, cbBotStats)
	if !strings.Contains(e.gw.lastEdit(t).Text, "Bot statistics") {
		t.Errorf("admin bot_stats: %q", e.gw.lastEdit(t).Text)
	}
}

func TestFinishQuizGuards(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, 10, "Aziza Tosheva")
	e.register(t, 20, "Bobur Aliyev")
	code := e.createQuiz(t, 10, "Math*abcda")
	ctx := context.Background()

	// Not the creator.
	e.press(t, 20, cbFinishTestPrefix+code)
	ans := e.gw.answers[len(e.gw.answers)-1]
	if !ans.Alert || !strings.Contains(ans.Text, "author") {
		t.Errorf("non-creator finish: %+v", ans)
	}

	// No submissions yet.
	e.press(t, 10, cbFinishTestPrefix+code)
	ans = e.gw.answers[len(e.gw.answers)-1]
	if !ans.Alert {
		t.Errorf("zero-submission finish should alert: %+v", ans)
	}
	if _, err := e.quizzes.GetActive(ctx, code); err != nil {
		t.Fatal("quiz must stay active after guarded finish")
	}

	// With a submission the quiz closes and the summary is edited in.
	if err := e.states.Set(ctx, 20, state.SolvingQuiz{}); err != nil {
		t.Fatal(err)
	}
	e.message(t, 20, code+"*abcda")
	e.press(t, 10, cbFinishTestPrefix+code)
	if !strings.Contains(e.gw.lastEdit(t).Text, "Bobur Aliyev") {
		t.Errorf("finish summary should list participants: %q", e.gw.lastEdit(t).Text)
	}
	if _, err := e.quizzes.GetActive(ctx, code); err == nil {
		t.Fatal("quiz must be deactivated after finish")
	}

	// Second press lands on the not-found path.
	e.press(t, 10, cbFinishTestPrefix+code)
	ans = e.gw.answers[len(e.gw.answers)-1]
	if !ans.Alert || !strings.Contains(ans.Text, "not found") {
		t.Errorf("double finish: %+v", ans)
	}
}

func TestDeepLinkStart(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, 10, "Aziza Tosheva")
	e.register(t, 20, "Bobur Aliyev")
	code := e.createQuiz(t, 10, "Math*abcda")

	e.message(t, 20, "/start test_"+code)
	e.mustState(t, 20, "solving_quiz")
	if !strings.Contains(e.gw.lastText(t).Text, "Math") {
		t.Errorf("deep link should preview the quiz: %q", e.gw.lastText(t).Text)
	}

	// Unknown code falls back to the plain menu.
	e.message(t, 20, "/start test_00000")
	e.mustState(t, 20, "")
}

func TestInlineQuery(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, 10, "Aziza Tosheva")
	code := e.createQuiz(t, 10, "Math*abcda")
	ctx := context.Background()

	run := func(id, query string) []Article {
		t.Helper()
		err := e.router.HandleUpdate(ctx, Update{Inline: &InlineQuery{QueryID: id, UserID: 99, Query: query}})
		if err != nil {
			t.Fatal(err)
		}
		return e.gw.inline[id]
	}

	arts := run("i1", "test_"+code)
	if len(arts) != 1 || !strings.Contains(arts[0].Title, "Math") {
		t.Errorf("share article = %+v", arts)
	}
	arts = run("i2", "test_00000")
	if len(arts) != 1 || !strings.Contains(arts[0].Title, "not found") {
		t.Errorf("missing-quiz article = %+v", arts)
	}
	arts = run("i3", "anything else")
	if len(arts) != 1 || arts[0].ID != "promo" {
		t.Errorf("promo article = %+v", arts)
	}

	// Inline queries never mutate state, even for unregistered users.
	st, err := e.states.Get(ctx, 99)
	if err != nil || st.Tag() != "" {
		t.Errorf("inline query touched state: %v %v", st, err)
	}
}

func TestResultMessageTruncation(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, 10, "Aziza Tosheva")
	e.register(t, 20, "Bobur Aliyev")
	key := strings.Repeat("ab", 10) // 20 questions
	code := e.createQuiz(t, 10, fmt.Sprintf("Long*%s", key))
	ctx := context.Background()

	if err := e.states.Set(ctx, 20, state.SolvingQuiz{}); err != nil {
		t.Fatal(err)
	}
	e.message(t, 20, code+"*"+key)
	got := e.gw.lastText(t).Text
	if !strings.Contains(got, "20/20") {
		t.Errorf("expected full score: %q", got)
	}
	if !strings.Contains(got, "and 10 more question(s)") {
		t.Errorf("per-question list should stop at 10 rows: %q", got)
	}
}

func TestCertificateAndEncouragementDelivery(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, 10, "Aziza Tosheva")
	e.register(t, 20, "Bobur Aliyev")
	e.register(t, 30, "Dilnoza Rahimova")
	code := e.createQuiz(t, 10, "Math*abcda")
	ctx := context.Background()

	// 5/5: certificate image. 1/5: encouragement, no image.
	if err := e.states.Set(ctx, 20, state.SolvingQuiz{}); err != nil {
		t.Fatal(err)
	}
	e.message(t, 20, code+"*abcda")
	if err := e.states.Set(ctx, 30, state.SolvingQuiz{}); err != nil {
		t.Fatal(err)
	}
	e.message(t, 30, code+"*bbbbb")
	e.drain()

	images := e.gw.allImages()
	if len(images) != 1 {
		t.Fatalf("images delivered = %d, want 1 (only the passing solver)", len(images))
	}
	if !strings.Contains(images[0], "certs.example/image.php?") {
		t.Errorf("certificate URL base: %q", images[0])
	}
	if !strings.Contains(images[0], "orin=1") {
		t.Errorf("100%% certificate should carry the top tier level: %q", images[0])
	}
	if n := e.gw.countTextsTo(30, "Don't give up"); n != 1 {
		t.Errorf("encouragements to failing solver = %d, want 1", n)
	}
	// Both submissions ping the creator.
	if n := e.gw.countTextsTo(10, "NEW RESULT"); n != 2 {
		t.Errorf("creator notifications = %d, want 2", n)
	}
}

func TestFinishFanOutPerSubmission(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, 10, "Aziza Tosheva")
	e.register(t, 20, "Bobur Aliyev")
	ctx := context.Background()

	if err := e.states.Set(ctx, 10, state.CreatingMultiAttemptQuiz{MaxAttempts: 2}); err != nil {
		t.Fatal(err)
	}
	e.message(t, 10, "Math*abcda")
	recent, err := e.quizzes.Recent(ctx, 1)
	if err != nil || len(recent) == 0 {
		t.Fatalf("quiz not created: %v", err)
	}
	code := recent[0].Quiz.Code

	// Two failing attempts by the same solver: each submission gets its
	// own terminal message when the quiz is finished.
	for i := 0; i < 2; i++ {
		if err := e.states.Set(ctx, 20, state.SolvingQuiz{}); err != nil {
			t.Fatal(err)
		}
		e.message(t, 20, code+"*bbbbb")
	}
	e.press(t, 10, cbFinishTestPrefix+code)
	e.drain()

	if n := e.gw.countTextsTo(20, "QUIZ FINISHED"); n != 2 {
		t.Errorf("terminal messages = %d, want one per submission (2)", n)
	}
	if got := e.gw.lastEdit(t).Text; !strings.Contains(got, "Participants:</b> 2") {
		t.Errorf("finish summary should count submissions: %q", got)
	}
}

// erroringQuizzes fails reads, standing in for a down database.
type erroringQuizzes struct {
	quiz.Store
}

func (erroringQuizzes) GetActive(context.Context, string) (quiz.Quiz, error) {
	return quiz.Quiz{}, errors.New("storage offline")
}

func TestDeepLinkStorageErrorPropagates(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := newFakeGateway()
	userDir := users.NewInMemoryStore()
	quizzes := erroringQuizzes{quiz.NewInMemoryStore(userDir)}
	states := state.NewInMemoryStore()
	notify := newNotifier(log, 1, 16, func(time.Duration) {})
	defer notify.Close()
	r := NewRouter(Config{BotUsername: "quizbot"}, gw, quizzes, userDir, states, notify, log)
	ctx := context.Background()

	if err := userDir.Upsert(ctx, 1, "Olim Karimov", ""); err != nil {
		t.Fatal(err)
	}
	err := r.HandleUpdate(ctx, Update{Message: &TextMessage{ChatID: 1, UserID: 1, Text: "/start test_12345"}})
	if err == nil {
		t.Fatal("storage failure on a deep link must surface, not read as not-found")
	}
	if n := gw.countTextsTo(1, "Something went wrong"); n != 1 {
		t.Errorf("failure acks = %d, want 1", n)
	}
}
