package telegram

import (
	"context"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/ollashukur/testbot/internal/bot"
)

const handleTimeout = 30 * time.Second

// Bind registers the update handlers and routes everything into the
// conversation engine. Errors are already logged and acknowledged inside
// the router, so handlers report success to telebot.
func (c *Client) Bind(router *bot.Router) {
	onText := func(tc tele.Context) error {
		msg := tc.Message()
		if msg == nil || msg.Sender == nil {
			return nil
		}
		c.dispatch(router, bot.Update{Message: &bot.TextMessage{
			ChatID:          msg.Chat.ID,
			UserID:          msg.Sender.ID,
			Text:            msg.Text,
			DisplayNameHint: displayName(msg.Sender),
			HandleHint:      msg.Sender.Username,
		}})
		return nil
	}
	// Commands registered explicitly still carry the full text, so one
	// translation covers them and free-form input alike.
	c.tb.Handle("/start", onText)
	c.tb.Handle("/panel", onText)
	c.tb.Handle("/rename", onText)
	c.tb.Handle(tele.OnText, onText)

	c.tb.Handle(tele.OnCallback, func(tc tele.Context) error {
		cb := tc.Callback()
		if cb == nil || cb.Sender == nil || cb.Message == nil {
			return nil
		}
		c.dispatch(router, bot.Update{Button: &bot.ButtonPress{
			ChatID:    cb.Message.Chat.ID,
			UserID:    cb.Sender.ID,
			MessageID: cb.Message.ID,
			QueryID:   cb.ID,
			Data:      strings.TrimPrefix(cb.Data, "\f"),
		}})
		return nil
	})

	c.tb.Handle(tele.OnQuery, func(tc tele.Context) error {
		q := tc.Query()
		if q == nil {
			return nil
		}
		c.dispatch(router, bot.Update{Inline: &bot.InlineQuery{
			QueryID: q.ID,
			UserID:  q.Sender.ID,
			Query:   q.Text,
		}})
		return nil
	})
}

func (c *Client) dispatch(router *bot.Router, u bot.Update) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()
	// The router logs and acknowledges its own failures.
	_ = router.HandleUpdate(ctx, u)
}

func displayName(u *tele.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
