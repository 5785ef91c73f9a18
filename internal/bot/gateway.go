package bot

import "context"

// Button is one inline keyboard button. Exactly one of Data, URL, or
// SwitchInline should be set.
type Button struct {
	Text         string
	Data         string // callback data
	URL          string
	SwitchInline string // switch_inline_query payload
}

// Article is one inline-query result.
type Article struct {
	ID          string
	Title       string
	Description string
	Text        string // HTML message body sent when the article is picked
	Buttons     [][]Button
}

// Gateway delivers outbound instructions to the messaging platform. The
// router never talks to Telegram directly; internal/telegram implements
// this on telebot.
type Gateway interface {
	SendText(ctx context.Context, chatID int64, text string, buttons [][]Button) error
	EditText(ctx context.Context, chatID int64, messageID int, text string, buttons [][]Button) error
	SendImage(ctx context.Context, chatID int64, imageURL, caption string, buttons [][]Button) error
	// AnswerButton acknowledges a button press, optionally with a toast or
	// a modal alert.
	AnswerButton(ctx context.Context, queryID, text string, alert bool) error
	AnswerInline(ctx context.Context, queryID string, articles []Article) error
}

// Inbound update kinds, a discriminated union: exactly one field is set.
type Update struct {
	Message *TextMessage
	Button  *ButtonPress
	Inline  *InlineQuery
}

type TextMessage struct {
	ChatID int64
	UserID int64
	Text   string
	// Profile hints from the transport, used before the user registers a name.
	DisplayNameHint string
	HandleHint      string
}

type ButtonPress struct {
	ChatID    int64
	UserID    int64
	MessageID int
	QueryID   string
	Data      string
}

type InlineQuery struct {
	QueryID string
	UserID  int64
	Query   string
}
