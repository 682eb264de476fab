// Package leads owns the append-only lead log.
package leads

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"crane-catalog/internal/models"
	"crane-catalog/internal/notify"
)

// User-facing messages returned by Append.
const (
	MsgPhoneRequired = "Укажите телефон."
	MsgAccepted      = "Заявка отправлена. Мы скоро свяжемся."
)

const (
	maxLeadType = 32
	maxPage     = 512
)

var csvHeader = []string{"ts", "ip", "lead_type", "page", "referer", "utm_json", "fields_json"}

// Notifier is the fan-out collaborator; failures it reports are logged
// and discarded.
type Notifier interface {
	Send(text string) []notify.Result
}

// Clock returns the timestamp written into a lead row. Swappable in tests.
type Clock func() string

// Store appends validated leads to a CSV log and lists them newest first.
type Store struct {
	mu       sync.Mutex
	path     string
	notifier Notifier
	now      Clock
}

// NewStore creates a lead store over path. notifier may be nil.
func NewStore(path string, notifier Notifier, now Clock) *Store {
	return &Store{path: path, notifier: notifier, now: now}
}

// Append validates and stores one submission. The returned bool tells
// whether the lead was accepted; the string is always user-facing. A
// non-nil error means the log itself could not be written — an internal
// failure, not a validation answer. Notification fan-out runs in the
// background and cannot change the result.
func (s *Store) Append(req models.LeadRequest, ip, referer string) (bool, string, error) {
	leadType := strings.TrimSpace(req.LeadType)
	if leadType == "" {
		leadType = strings.TrimSpace(req.Type)
	}
	if leadType == "" {
		leadType = "lead"
	}
	leadType = truncate(leadType, maxLeadType)
	page := truncate(strings.TrimSpace(req.Page), maxPage)

	utm := req.UTM
	if utm == nil {
		utm = map[string]any{}
	}
	fields := req.Fields
	if fields == nil {
		fields = map[string]any{}
	}

	phone := strings.TrimSpace(stringValue(fields["phone"]))
	if phone == "" {
		phone = strings.TrimSpace(req.Phone)
		if phone != "" {
			fields["phone"] = phone
		}
	}
	if phone == "" {
		return false, MsgPhoneRequired, nil
	}

	row := []string{s.now(), ip, leadType, page, referer, jsonString(utm), jsonString(fields)}

	s.mu.Lock()
	err := s.appendRow(row)
	s.mu.Unlock()
	if err != nil {
		return false, "", fmt.Errorf("append lead: %w", err)
	}

	if s.notifier != nil {
		text := fmt.Sprintf(
			"Новая заявка: %s\nСтраница: %s\nТелефон: %s\nИмя: %s\nКомментарий: %s",
			leadType, page, phone, stringValue(fields["name"]), stringValue(fields["message"]),
		)
		go func() {
			for _, r := range s.notifier.Send(text) {
				if r.Err != nil {
					log.Printf("WARN: lead notification via %s failed: %v", r.Channel, r.Err)
				}
			}
		}()
	}

	return true, MsgAccepted, nil
}

// List returns stored leads newest first. A missing or corrupt log reads
// as empty.
func (s *Store) List() []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []map[string]string{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return out
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil || len(records) < 2 {
		return out
	}
	header := records[0]
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		out = append(out, row)
	}
	// newest first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Raw returns the log file verbatim, creating it (header only) first.
func (s *Store) Raw() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensure(); err != nil {
		return nil, err
	}
	return os.ReadFile(s.path)
}

// Ensure creates the log with its header when missing.
func (s *Store) Ensure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensure()
}

func (s *Store) ensure() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(csvHeader)
	w.Flush()
	return os.WriteFile(s.path, buf.Bytes(), 0o644)
}

func (s *Store) appendRow(row []string) error {
	if err := s.ensure(); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func jsonString(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "{}"
	}
	return strings.TrimRight(buf.String(), "\n")
}
