// Package telegram adapts the transport-neutral bot.Gateway onto the
// Telegram Bot API via telebot. It owns all wire concerns: markup
// conversion, HTML parse mode, long polling and webhook delivery.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/ollashukur/testbot/internal/bot"
)

type Client struct {
	tb  *tele.Bot
	log *slog.Logger
}

// New connects to the Bot API. With polling=false no poller is attached;
// updates are expected through WebhookHandler instead.
func New(token string, polling bool, log *slog.Logger) (*Client, error) {
	settings := tele.Settings{
		Token: token,
		OnError: func(err error, c tele.Context) {
			log.Error("telegram transport error", "err", err)
		},
	}
	if polling {
		settings.Poller = &tele.LongPoller{Timeout: 10 * time.Second}
	}
	tb, err := tele.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("connect to bot api: %w", err)
	}
	return &Client{tb: tb, log: log}, nil
}

// Start blocks, long-polling for updates. Poll mode only.
func (c *Client) Start() {
	c.tb.Start()
}

func (c *Client) Stop() {
	c.tb.Stop()
}

// Username reports the bot account name Telegram handed back on connect.
func (c *Client) Username() string {
	return c.tb.Me.Username
}

var _ bot.Gateway = (*Client)(nil)

func (c *Client) SendText(ctx context.Context, chatID int64, text string, buttons [][]bot.Button) error {
	_, err := c.tb.Send(tele.ChatID(chatID), text, sendOptions(buttons))
	if err != nil {
		return fmt.Errorf("send to %d: %w", chatID, err)
	}
	return nil
}

func (c *Client) EditText(ctx context.Context, chatID int64, messageID int, text string, buttons [][]bot.Button) error {
	ref := tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}
	_, err := c.tb.Edit(ref, text, sendOptions(buttons))
	if err != nil {
		return fmt.Errorf("edit %d in %d: %w", messageID, chatID, err)
	}
	return nil
}

func (c *Client) SendImage(ctx context.Context, chatID int64, imageURL, caption string, buttons [][]bot.Button) error {
	photo := &tele.Photo{File: tele.FromURL(imageURL), Caption: caption}
	_, err := c.tb.Send(tele.ChatID(chatID), photo, sendOptions(buttons))
	if err != nil {
		return fmt.Errorf("send image to %d: %w", chatID, err)
	}
	return nil
}

func (c *Client) AnswerButton(ctx context.Context, queryID, text string, alert bool) error {
	return c.tb.Respond(&tele.Callback{ID: queryID}, &tele.CallbackResponse{
		Text:      text,
		ShowAlert: alert,
	})
}

func (c *Client) AnswerInline(ctx context.Context, queryID string, articles []bot.Article) error {
	results := make(tele.Results, 0, len(articles))
	for _, a := range articles {
		r := &tele.ArticleResult{
			Title:       a.Title,
			Description: a.Description,
			Text:        a.Text,
		}
		r.SetResultID(a.ID)
		r.SetContent(&tele.InputTextMessageContent{
			Text:      a.Text,
			ParseMode: tele.ModeHTML,
		})
		if len(a.Buttons) > 0 {
			r.SetReplyMarkup(markup(a.Buttons))
		}
		results = append(results, r)
	}
	return c.tb.Answer(&tele.Query{ID: queryID}, &tele.QueryResponse{
		Results:   results,
		CacheTime: 1,
	})
}

func sendOptions(buttons [][]bot.Button) *tele.SendOptions {
	opts := &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		DisableWebPagePreview: true,
	}
	if len(buttons) > 0 {
		opts.ReplyMarkup = markup(buttons)
	}
	return opts
}

func markup(buttons [][]bot.Button) *tele.ReplyMarkup {
	rows := make([][]tele.InlineButton, 0, len(buttons))
	for _, row := range buttons {
		r := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			r = append(r, tele.InlineButton{
				Text:        b.Text,
				Data:        b.Data,
				URL:         b.URL,
				InlineQuery: b.SwitchInline,
			})
		}
		rows = append(rows, r)
	}
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}
