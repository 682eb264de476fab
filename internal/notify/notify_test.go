package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSkipsUnconfiguredChannels(t *testing.T) {
	n := New(Telegram{}, SMTP{}, "subject")

	results := n.Send("hello")
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Skipped, r.Channel)
		assert.NoError(t, r.Err, r.Channel)
	}
}

func TestSendTelegram(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(Telegram{BotToken: "TOKEN", ChatID: "42"}, SMTP{}, "subject")
	n.telegramBase = srv.URL

	results := n.Send("Новая заявка: callback")
	require.Len(t, results, 2)
	assert.False(t, results[0].Skipped)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "Новая заявка: callback", got["text"])
	assert.Equal(t, true, got["disable_web_page_preview"])
}

func TestSendTelegramReportsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	n := New(Telegram{BotToken: "TOKEN", ChatID: "42"}, SMTP{}, "subject")
	n.telegramBase = srv.URL

	results := n.Send("text")
	assert.Error(t, results[0].Err)
}

func TestSMTPConfigured(t *testing.T) {
	assert.False(t, SMTP{}.configured())
	assert.False(t, SMTP{Host: "smtp.example.com", User: "u", Pass: "p"}.configured())
	assert.True(t, SMTP{Host: "smtp.example.com", User: "u", Pass: "p", To: "to@example.com"}.configured())
}
