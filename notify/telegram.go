package notify

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Telegram posts messages to a bot chat.
type Telegram struct {
	BotToken string
	ChatID   string
	Client   *http.Client
}

var _ Notifier = (*Telegram)(nil)

func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		BotToken: botToken,
		ChatID:   chatID,
		Client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (t *Telegram) Send(msg string) error {
	if t.BotToken == "" || t.ChatID == "" {
		return nil
	}

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.BotToken)
	q := url.Values{}
	q.Set("chat_id", t.ChatID)
	q.Set("text", msg)
	q.Set("parse_mode", "Markdown")

	resp, err := t.Client.Get(endpoint + "?" + q.Encode())
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("telegram status=%d", resp.StatusCode)
	}
	return nil
}
