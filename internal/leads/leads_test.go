package leads

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crane-catalog/internal/models"
	"crane-catalog/internal/notify"
)

type captureNotifier struct {
	texts chan string
}

func (n *captureNotifier) Send(text string) []notify.Result {
	n.texts <- text
	return []notify.Result{{Channel: "test"}}
}

func newTestStore(t *testing.T, n Notifier) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leads", "leads.csv")
	return NewStore(path, n, func() string { return "2025-01-02 03:04:05" })
}

func TestAppendRejectsMissingPhone(t *testing.T) {
	s := newTestStore(t, nil)

	ok, msg, err := s.Append(models.LeadRequest{Fields: map[string]any{}}, "1.2.3.4", "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, MsgPhoneRequired, msg)
	assert.Empty(t, s.List(), "rejected lead must not be stored")
}

func TestAppendStoresLead(t *testing.T) {
	s := newTestStore(t, nil)

	ok, msg, err := s.Append(models.LeadRequest{
		LeadType: "callback",
		Page:     "/catalog/kmu/palfinger-pk-17502/",
		Fields:   map[string]any{"phone": "+79001234567", "name": "Иван"},
	}, "1.2.3.4", "https://example.com/")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, MsgAccepted, msg)

	rows := s.List()
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "2025-01-02 03:04:05", row["ts"])
	assert.Equal(t, "1.2.3.4", row["ip"])
	assert.Equal(t, "callback", row["lead_type"])
	assert.Equal(t, "https://example.com/", row["referer"])

	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(row["fields_json"]), &fields))
	assert.Equal(t, "+79001234567", fields["phone"])
}

func TestAppendPhoneFromTopLevelField(t *testing.T) {
	s := newTestStore(t, nil)

	ok, _, err := s.Append(models.LeadRequest{Phone: "+79000000000"}, "ip", "")
	require.NoError(t, err)
	require.True(t, ok)

	rows := s.List()
	require.Len(t, rows, 1)
	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(rows[0]["fields_json"]), &fields))
	assert.Equal(t, "+79000000000", fields["phone"], "top-level phone is copied into fields")
}

func TestAppendTruncatesLongValues(t *testing.T) {
	s := newTestStore(t, nil)

	ok, _, err := s.Append(models.LeadRequest{
		LeadType: strings.Repeat("x", 100),
		Page:     strings.Repeat("y", 1000),
		Fields:   map[string]any{"phone": "+7"},
	}, "ip", "")
	require.NoError(t, err)
	require.True(t, ok)

	row := s.List()[0]
	assert.Len(t, row["lead_type"], maxLeadType)
	assert.Len(t, row["page"], maxPage)
}

func TestListNewestFirst(t *testing.T) {
	s := newTestStore(t, nil)

	for _, phone := range []string{"+71", "+72", "+73"} {
		ok, _, err := s.Append(models.LeadRequest{Fields: map[string]any{"phone": phone}}, "ip", "")
		require.NoError(t, err)
		require.True(t, ok)
	}

	rows := s.List()
	require.Len(t, rows, 3)
	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(rows[0]["fields_json"]), &first))
	assert.Equal(t, "+73", first["phone"])
}

func TestListToleratesMissingAndCorruptLog(t *testing.T) {
	s := newTestStore(t, nil)
	assert.Empty(t, s.List())

	require.NoError(t, os.MkdirAll(filepath.Dir(s.path), 0o755))
	require.NoError(t, os.WriteFile(s.path, []byte("ts,ip\n\"broken"), 0o644))
	assert.Empty(t, s.List())
}

func TestAppendNotifiesInBackground(t *testing.T) {
	n := &captureNotifier{texts: make(chan string, 1)}
	s := newTestStore(t, n)

	ok, _, err := s.Append(models.LeadRequest{
		LeadType: "callback",
		Fields:   map[string]any{"phone": "+79001234567", "name": "Иван", "message": "Нужна КМУ"},
	}, "ip", "")
	require.NoError(t, err)
	require.True(t, ok)

	select {
	case text := <-n.texts:
		assert.Contains(t, text, "callback")
		assert.Contains(t, text, "+79001234567")
		assert.Contains(t, text, "Иван")
		assert.Contains(t, text, "Нужна КМУ")
	case <-time.After(2 * time.Second):
		t.Fatal("notification never sent")
	}
}

func TestAppendReportsWriteFailure(t *testing.T) {
	s := newTestStore(t, nil)
	// a directory where the log file should be makes every append fail
	require.NoError(t, os.MkdirAll(s.path, 0o755))

	ok, msg, err := s.Append(models.LeadRequest{Fields: map[string]any{"phone": "+79001234567"}}, "ip", "")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Empty(t, msg, "an I/O failure is not a user-facing validation answer")
}

func TestRawCreatesHeaderOnlyLog(t *testing.T) {
	s := newTestStore(t, nil)

	data, err := s.Raw()
	require.NoError(t, err)

	r := csv.NewReader(strings.NewReader(string(data)))
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, csvHeader, records[0])
}
