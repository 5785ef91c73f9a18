package bot

import (
	"fmt"
	"strings"

	"github.com/ollashukur/testbot/internal/grading"
	"github.com/ollashukur/testbot/internal/quiz"
)

// Message bodies use Telegram's HTML markup subset: <b>, <i>, <code>, and
// tg://user links.

const msgWelcome = `🎉 <b>Welcome!</b>

Glad to see you in the <b>Quiz Bot</b>! 🤖✨

🌟 <b>What you can do here:</b>
📝 Create multiple-choice quizzes
✅ Solve quizzes and get instant results
📊 Track detailed statistics
🏆 Earn certificates
⏱️ Timed and multi-attempt quizzes

🚀 <b>Pick one of the buttons below to get started!</b>`

const msgNameRequest = `✍️ <b>Please enter your full name:</b>

📝 <b>Format:</b> <code>Firstname Lastname</code>
📋 <b>Example:</b> <code>Ali Valiyev</code>

⚠️ <b>Important:</b>
• This name appears on all your certificates
• At least two words, letters only
• 50 characters at most

🔄 <i>You can change it later with /rename</i>`

const msgNameError = `❌ <b>Wrong format!</b>

🔍 <b>Possible reasons:</b>
• At least two words (first and last name) are required
• Only letters are allowed
• Must not exceed 50 characters

📝 <b>Correct format:</b> <code>Firstname Lastname</code>

🔄 Please try again!`

const msgCreateInstruction = `📋 <b>Format:</b>
<code>Subject*answers*description(optional)</code>

📝 <b>Examples:</b>
<code>Mathematics*abcdabcdabcd</code>
<code>English*abcabcabc*Grammar quiz</code>

📚 <b>Rules:</b>
• Answers use only the letters a, b, c, d
• Between 5 and 50 questions
• Subject up to 50 characters
• Description up to 100 characters (optional)`

const msgSolveInstruction = `📝 <b>How to solve a quiz</b>

🔢 <b>Format:</b>
<code>quiz_code*your_answers</code>

📝 <b>Example:</b>
<code>12345*abcdabcdabcd</code>

📚 <b>Rules:</b>
• Enter the quiz code exactly
• The number of answers must match the number of questions
• Use only the letters a, b, c, d`

const msgHelp = `❓ <b>How to use the bot</b>

🆕 <b>Creating a quiz:</b>
1️⃣ Press "Create quiz"
2️⃣ Pick the quiz type (simple, timed, multi-attempt)
3️⃣ Send the subject and answer key
4️⃣ Share the generated code
5️⃣ Watch the results come in

📝 <b>Solving a quiz:</b>
1️⃣ Press "Solve quiz"
2️⃣ Send the code and your answers
3️⃣ Get your result and certificate

🏆 <b>Certificates:</b>
• 40% and above earns a certificate
• 90%+: gold • 80–89%: silver • 60–79%: bronze`

const msgAbout = `ℹ️ <b>About Quiz Bot</b>

🤖 <b>Version:</b> 2.0
🌟 Unlimited quizzes, instant grading, certificates, and detailed statistics.

🛡️ Your data is stored safely and never shared.

💝 Thanks for using the bot!`

const msgUnknownCommand = `🤔 <b>Sorry, I didn't understand that</b>

💡 <b>Useful commands:</b>
/start — restart the bot
/rename — change your name

📚 Use the buttons below:`

func msgNameSaved(name string) string {
	return fmt.Sprintf(`✅ <b>Congratulations!</b>

👤 <b>Your name has been saved:</b> %s
🎯 <b>All bot features are now available!</b>

🚀 <b>Next steps:</b>
• Create a quiz or solve an existing one
• Track your statistics
• Collect certificates`, name)
}

func msgWelcomeBack(name string, userID int64) string {
	return fmt.Sprintf("%s\n\n👤 <b>Welcome back:</b> %s\n🆔 <b>Your ID:</b> <code>%d</code>", msgWelcome, name, userID)
}

func formatDuration(minutes int) string {
	if minutes == 0 {
		return "♾️ Unlimited"
	}
	if minutes < 60 {
		return fmt.Sprintf("⏱️ %d min", minutes)
	}
	return fmt.Sprintf("⏱️ %dh %dm", minutes/60, minutes%60)
}

func msgQuizCreated(q quiz.Quiz, kind string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ <b>Quiz created!</b>\n\n")
	fmt.Fprintf(&b, "📚 <b>Subject:</b> %s\n", q.Subject)
	fmt.Fprintf(&b, "🔢 <b>Quiz code:</b> <code>%s</code>\n", q.Code)
	fmt.Fprintf(&b, "📊 <b>Questions:</b> %d\n", len(q.AnswerKey))
	fmt.Fprintf(&b, "🎯 <b>Type:</b> %s\n", kind)
	if q.TimeLimitMin > 0 {
		fmt.Fprintf(&b, "⏱️ <b>Time limit:</b> %s\n", formatDuration(q.TimeLimitMin))
	}
	if q.MaxAttempts > 1 {
		fmt.Fprintf(&b, "🔄 <b>Max attempts:</b> %d\n", q.MaxAttempts)
	}
	fmt.Fprintf(&b, "📈 <b>Difficulty:</b> %s\n", q.Difficulty)
	if q.Description != "" {
		fmt.Fprintf(&b, "📝 <b>Description:</b> %s\n", q.Description)
	}
	b.WriteString("\n🚀 <b>The quiz is ready!</b> Share the code with others.")
	return b.String()
}

func msgQuizCreatedStatus(code, botUsername string) string {
	return fmt.Sprintf(`📊 <b>Quiz status:</b>

🆔 Quiz code: <code>%s</code>
📈 Nobody has solved it yet

💡 <b>Tip:</b> share it with the inline button or the @%s test_%s format!`, code, botUsername, code)
}

func msgQuizNotFound(code string) string {
	return fmt.Sprintf(`❌ <b>Quiz not found!</b>

🔍 <b>Possible reasons:</b>
• The code is wrong: <code>%s</code>
• The quiz has been finished or removed
• The quiz has not been created yet

💡 <b>Double-check the code and try again!</b>`, code)
}

func msgLengthMismatch(code string, want, got int) string {
	return fmt.Sprintf(`❌ <b>Wrong number of answers!</b>

📊 <b>Expected answers:</b> %d
📝 <b>You sent:</b> %d

🔄 <b>Correct format:</b> <code>%s*%s</code>`, want, got, code, strings.Repeat("a", want))
}

const msgBadAlphabet = "❌ Answers must use only the letters a, b, c, d!"

func msgAttemptsExhausted(max int) string {
	return fmt.Sprintf(`⛔ <b>No attempts left!</b>

🔄 <b>You have already solved this quiz %d time(s)</b>
❌ No more attempts remain

📊 You can review your results in the statistics.`, max)
}

func msgResult(q quiz.Quiz, solverName string, res grading.Result, tier grading.Tier, attemptNumber int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎯 <b>QUIZ RESULTS</b>\n\n")
	fmt.Fprintf(&b, "📚 <b>Subject:</b> %s\n", q.Subject)
	fmt.Fprintf(&b, "👨‍🏫 <b>Author:</b> <a href=\"tg://user?id=%d\">%s</a>\n", q.CreatorID, q.CreatorName)
	fmt.Fprintf(&b, "🔢 <b>Quiz code:</b> <code>%s</code>\n", q.Code)
	fmt.Fprintf(&b, "📈 <b>Difficulty:</b> %s\n", q.Difficulty)
	if q.Description != "" {
		fmt.Fprintf(&b, "📝 <b>Description:</b> %s\n", q.Description)
	}
	fmt.Fprintf(&b, "\n👤 <b>Participant:</b> %s\n", solverName)
	fmt.Fprintf(&b, "✅ <b>Correct answers:</b> %d/%d\n", res.CorrectCount, res.Total)
	fmt.Fprintf(&b, "📊 <b>Score:</b> %.1f%% %s\n", res.Percentage, tier.Emoji)
	fmt.Fprintf(&b, "🏆 <b>Grade:</b> %s %s\n", tier.Label, tier.Color)
	if attemptNumber > 1 {
		fmt.Fprintf(&b, "🔄 <b>Attempt:</b> %d/%d\n", attemptNumber, q.MaxAttempts)
	}
	b.WriteString("\n📝 <b>Breakdown:</b>\n")
	shown := res.PerQuestion
	if len(shown) > 10 {
		shown = shown[:10]
	}
	for _, pq := range shown {
		if pq.Correct {
			fmt.Fprintf(&b, "%d. ✅ %s\n", pq.Index, pq.Given)
		} else {
			fmt.Fprintf(&b, "%d. ❌ %s (correct: %s)\n", pq.Index, pq.Given, pq.Expected)
		}
	}
	if len(res.PerQuestion) > 10 {
		fmt.Fprintf(&b, "... and %d more question(s)\n", len(res.PerQuestion)-10)
	}
	b.WriteString("\n🎊 <b>Congratulations!</b> Your result has been saved.")
	return b.String()
}

func msgCertificateCaption(solverName, subject string, percentage float64, tier grading.Tier) string {
	return fmt.Sprintf(`🏆 <b>CONGRATULATIONS!</b>

%s, you have earned a <b>"%s"</b> certificate!

%s <b>Your score:</b> %.1f%%
🏅 <b>Grade:</b> %s

💫 <b>Feel free to share this certificate!</b>`, solverName, subject, tier.Emoji, percentage, tier.Label)
}

func msgEncouragement(remaining int) string {
	var b strings.Builder
	b.WriteString("💪 <b>Don't give up!</b>\n\n📚 <b>Advice:</b>\n• Review the topic again\n• Try other study sources\n")
	if remaining > 0 {
		fmt.Fprintf(&b, "• You have %d attempt(s) left\n", remaining)
	}
	b.WriteString("\n🌟 <b>Remember:</b> every mistake is new knowledge!\n🎯 <b>Goal:</b> score at least 40%")
	return b.String()
}

func msgCreatorNotification(q quiz.Quiz, solverID int64, solverName string, res grading.Result, tier grading.Tier, attemptNumber int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>NEW RESULT</b>\n\n")
	fmt.Fprintf(&b, "📚 <b>Subject:</b> %s\n", q.Subject)
	fmt.Fprintf(&b, "🔢 <b>Quiz code:</b> <code>%s</code>\n\n", q.Code)
	fmt.Fprintf(&b, "👤 <b>Participant:</b> <a href=\"tg://user?id=%d\">%s</a>\n", solverID, solverName)
	fmt.Fprintf(&b, "✅ <b>Result:</b> %d/%d (%.1f%%) %s\n", res.CorrectCount, res.Total, res.Percentage, tier.Emoji)
	if attemptNumber > 1 {
		fmt.Fprintf(&b, "🔄 <b>Attempt:</b> %d/%d\n", attemptNumber, q.MaxAttempts)
	}
	return b.String()
}

func msgFinishedCertificate(q quiz.Quiz, e quiz.LeaderboardEntry, tier grading.Tier) string {
	return fmt.Sprintf(`🏁 <b>QUIZ FINISHED!</b>

📚 <b>Subject:</b> %s
👨‍🏫 <b>Author:</b> %s
🔢 <b>Quiz code:</b> <code>%s</code>

🎯 <b>YOUR FINAL RESULT:</b>
✅ Correct answers: %d/%d
📊 Score: %.1f%%
🏆 Grade: %s %s

🎓 <b>YOUR FINAL CERTIFICATE</b>

Congratulations on completing the quiz. Good luck! 🌟`,
		q.Subject, q.CreatorName, q.Code, e.CorrectCount, e.Total, e.Percentage, tier.Label, tier.Emoji)
}

func msgFinishedEncouragement(q quiz.Quiz, e quiz.LeaderboardEntry) string {
	return fmt.Sprintf(`🏁 <b>QUIZ FINISHED!</b>

📚 <b>Subject:</b> %s
👨‍🏫 <b>Author:</b> %s

📊 <b>Your score:</b> %.1f%%

💪 <b>Don't give up!</b>
This is only the first step. Keep going!

🌟 <b>Remember:</b> every mistake is a new opportunity!`, q.Subject, q.CreatorName, e.Percentage)
}

func msgFinishSummary(q quiz.Quiz, board []quiz.LeaderboardEntry, sent int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ <b>QUIZ FINISHED!</b>\n\n")
	fmt.Fprintf(&b, "📚 <b>Subject:</b> %s\n", q.Subject)
	fmt.Fprintf(&b, "🔢 <b>Quiz code:</b> <code>%s</code>\n", q.Code)
	fmt.Fprintf(&b, "👥 <b>Participants:</b> %d\n", len(board))
	fmt.Fprintf(&b, "📤 <b>Notifications queued:</b> %d\n\n", sent)
	b.WriteString("🏆 <b>FINAL TOP RESULTS:</b>\n")
	top := board
	if len(top) > 5 {
		top = top[:5]
	}
	for i, e := range top {
		tier := grading.Classify(e.Percentage)
		fmt.Fprintf(&b, "%d. <a href=\"tg://user?id=%d\">%s</a> - %.1f%% %s\n", i+1, e.UserID, e.DisplayName, e.Percentage, tier.Emoji)
	}
	if len(board) > 5 {
		fmt.Fprintf(&b, "\n... and %d more participant(s)\n", len(board)-5)
	}
	fmt.Fprintf(&b, "\n🎊 <b>Thank you!</b> Your quiz helped %d people.", len(board))
	return b.String()
}
