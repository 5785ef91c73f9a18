package telegram

import (
	"encoding/json"
	"fmt"
	"net/http"

	tele "gopkg.in/telebot.v3"
)

// SetWebhook points Telegram at the public URL. Call once at startup in
// webhook mode; Telegram stops long-poll delivery while a webhook is set.
func (c *Client) SetWebhook(publicURL string) error {
	if _, err := c.tb.Raw("setWebhook", map[string]string{"url": publicURL}); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

// DeleteWebhook clears any registered webhook so long polling works again.
func (c *Client) DeleteWebhook() error {
	if _, err := c.tb.Raw("deleteWebhook", map[string]string{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

// WebhookHandler decodes Bot API updates and feeds them through the same
// handler chain long polling uses.
func (c *Client) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var u tele.Update
		if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
			c.log.Warn("undecodable webhook update", "err", err)
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		c.tb.ProcessUpdate(u)
		w.WriteHeader(http.StatusOK)
	}
}
