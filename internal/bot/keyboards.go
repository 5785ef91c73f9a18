package bot

import "fmt"

// Callback data values. Quiz-scoped actions append the quiz code after the
// prefix.
const (
	cbCreateTest   = "create_test"
	cbSolveTest    = "solve_test"
	cbMyStatistics = "my_statistics"
	cbRatings      = "ratings"
	cbHelp         = "help"
	cbAbout        = "about"
	cbMainMenu     = "main_menu"

	cbCreateSimple = "create_simple"
	cbCreateTimed  = "create_timed"
	cbCreateMulti  = "create_multi"

	cbTimePrefix     = "time_"
	cbAttemptsPrefix = "attempts_"

	cbTestInfoPrefix       = "test_info_"
	cbDetailedReportPrefix = "detailed_report_"
	cbTestSettingsPrefix   = "test_settings_"
	cbFinishTestPrefix     = "finish_test_"

	cbBotStats       = "bot_stats"
	cbUserManagement = "user_management"
	cbAllTests       = "all_tests"
	cbBroadcast      = "broadcast"
)

func mainMenuKeyboard() [][]Button {
	return [][]Button{
		{{Text: "🆕 Create quiz", Data: cbCreateTest}},
		{{Text: "📝 Solve quiz", Data: cbSolveTest}},
		{{Text: "📊 My statistics", Data: cbMyStatistics}},
		{{Text: "🏆 Ratings", Data: cbRatings}},
		{{Text: "❓ Help", Data: cbHelp}},
		{{Text: "ℹ️ About", Data: cbAbout}},
	}
}

func backToMainKeyboard() [][]Button {
	return [][]Button{
		{{Text: "🏠 Main menu", Data: cbMainMenu}},
	}
}

func quizCreationKeyboard() [][]Button {
	return [][]Button{
		{{Text: "⚡ Simple quiz", Data: cbCreateSimple}},
		{{Text: "⏱️ Timed quiz", Data: cbCreateTimed}},
		{{Text: "🔄 Multi-attempt quiz", Data: cbCreateMulti}},
		{{Text: "🏠 Main menu", Data: cbMainMenu}},
	}
}

func quizManageKeyboard(code string) [][]Button {
	return [][]Button{
		{{Text: "📊 Quiz info", Data: cbTestInfoPrefix + code}},
		{{Text: "📤 Share quiz", SwitchInline: "test_" + code}},
		{{Text: "📈 Detailed report", Data: cbDetailedReportPrefix + code}},
		{{Text: "⚙️ Quiz settings", Data: cbTestSettingsPrefix + code}},
		{{Text: "🏁 Finish quiz", Data: cbFinishTestPrefix + code}},
		{{Text: "🏠 Main menu", Data: cbMainMenu}},
	}
}

func timeLimitKeyboard() [][]Button {
	return [][]Button{
		{{Text: "⏱️ 5 min", Data: cbTimePrefix + "5"}, {Text: "⏱️ 10 min", Data: cbTimePrefix + "10"}},
		{{Text: "⏱️ 15 min", Data: cbTimePrefix + "15"}, {Text: "⏱️ 30 min", Data: cbTimePrefix + "30"}},
		{{Text: "⏱️ 60 min", Data: cbTimePrefix + "60"}, {Text: "♾️ Unlimited", Data: cbTimePrefix + "0"}},
		{{Text: "🔙 Back", Data: cbCreateTest}},
	}
}

func attemptsKeyboard() [][]Button {
	return [][]Button{
		{{Text: "2️⃣ 2 attempts", Data: cbAttemptsPrefix + "2"}, {Text: "3️⃣ 3 attempts", Data: cbAttemptsPrefix + "3"}},
		{{Text: "5️⃣ 5 attempts", Data: cbAttemptsPrefix + "5"}, {Text: "🔟 10 attempts", Data: cbAttemptsPrefix + "10"}},
		{{Text: "🔙 Back", Data: cbCreateTest}},
	}
}

func adminPanelKeyboard() [][]Button {
	return [][]Button{
		{{Text: "📊 Bot statistics", Data: cbBotStats}},
		{{Text: "👥 Users", Data: cbUserManagement}},
		{{Text: "📝 All quizzes", Data: cbAllTests}},
		{{Text: "📢 Broadcast", Data: cbBroadcast}},
		{{Text: "🏠 Main menu", Data: cbMainMenu}},
	}
}

func (r *Router) deepLinkURL(code string) string {
	return fmt.Sprintf("https://t.me/%s?start=test_%s", r.botUsername, code)
}

func (r *Router) botURL() string {
	return "https://t.me/" + r.botUsername
}
