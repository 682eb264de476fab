// Package notify fans a lead summary out to Telegram and email. Both
// channels are best effort: a failure is reported in the returned Result
// and must never affect the fate of the lead itself.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/smtp"
	"time"
)

// Result is the outcome of one delivery attempt.
type Result struct {
	Channel string
	Skipped bool
	Err     error
}

// Telegram credentials for the Bot API sendMessage call.
type Telegram struct {
	BotToken string
	ChatID   string
}

// SMTP settings for the email channel.
type SMTP struct {
	Host string
	Port int
	User string
	Pass string
	To   string
}

// Notifier sends a text summary to every configured channel.
type Notifier struct {
	Telegram Telegram
	SMTP     SMTP
	Subject  string

	// Client used for the Telegram call; defaults to a 10s-timeout client.
	Client *http.Client

	telegramBase string
}

// New builds a notifier with the default HTTP client.
func New(tg Telegram, mail SMTP, subject string) *Notifier {
	return &Notifier{
		Telegram:     tg,
		SMTP:         mail,
		Subject:      subject,
		Client:       &http.Client{Timeout: 10 * time.Second},
		telegramBase: "https://api.telegram.org",
	}
}

// Send delivers text to both channels and reports each outcome.
func (n *Notifier) Send(text string) []Result {
	return []Result{
		{Channel: "telegram", Skipped: n.Telegram.BotToken == "" || n.Telegram.ChatID == "", Err: n.sendTelegram(text)},
		{Channel: "email", Skipped: !n.SMTP.configured(), Err: n.sendEmail(text)},
	}
}

func (n *Notifier) sendTelegram(text string) error {
	if n.Telegram.BotToken == "" || n.Telegram.ChatID == "" {
		return nil
	}
	body, err := json.Marshal(map[string]any{
		"chat_id":                  n.Telegram.ChatID,
		"text":                     text,
		"disable_web_page_preview": true,
	})
	if err != nil {
		return err
	}
	base := n.telegramBase
	if base == "" {
		base = "https://api.telegram.org"
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", base, n.Telegram.BotToken)
	resp, err := n.Client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: status %s", resp.Status)
	}
	return nil
}

func (n *Notifier) sendEmail(body string) error {
	if !n.SMTP.configured() {
		return nil
	}
	addr := fmt.Sprintf("%s:%d", n.SMTP.Host, n.SMTP.Port)
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		n.SMTP.User, n.SMTP.To, n.Subject, body,
	)
	auth := smtp.PlainAuth("", n.SMTP.User, n.SMTP.Pass, n.SMTP.Host)
	if err := smtp.SendMail(addr, auth, n.SMTP.User, []string{n.SMTP.To}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	return nil
}

func (s SMTP) configured() bool {
	return s.Host != "" && s.User != "" && s.Pass != "" && s.To != ""
}
