// Package repository persists the product list and the settings singleton.
//
// Both are single JSON documents rewritten whole on every change. Writes go
// to a temporary file that is renamed over the target, so readers never see
// a half-written document; a mutex serializes every read-modify-write so
// two concurrent admin edits cannot drop each other's change.
package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"crane-catalog/internal/models"
	"crane-catalog/internal/normalize"
)

// ErrNotFound is returned when an update or delete names an unknown id.
var ErrNotFound = errors.New("product not found")

// Store owns the on-disk product list and settings document.
type Store struct {
	mu           sync.Mutex
	productsPath string
	settingsPath string
}

// NewStore creates a store over the given document paths.
func NewStore(productsPath, settingsPath string) *Store {
	return &Store{productsPath: productsPath, settingsPath: settingsPath}
}

// Products returns the normalized product list. A missing or unreadable
// document reads as empty.
func (s *Store) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readProducts()
}

// ReplaceProducts swaps the whole product list.
func (s *Store) ReplaceProducts(prods []models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSONAtomic(s.productsPath, prods)
}

// Update runs fn over the current normalized list and persists the result.
// The whole read-modify-write happens under the store lock.
func (s *Store) Update(fn func([]models.Product) ([]models.Product, error)) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prods, err := fn(s.readProducts())
	if err != nil {
		return nil, err
	}
	if err := writeJSONAtomic(s.productsPath, prods); err != nil {
		return nil, err
	}
	return prods, nil
}

// Settings returns the validated settings singleton, falling back to
// defaults field by field.
func (s *Store) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readSettings()
}

// SaveSettings merges a partial update into the stored settings and
// persists the result. Unknown themes are ignored.
func (s *Store) SaveSettings(patch models.SettingsPatch) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.readSettings()
	if patch.ThemeDefault != nil {
		if td := strings.TrimSpace(*patch.ThemeDefault); td == models.ThemeBlue || td == models.ThemeWhite {
			cur.ThemeDefault = td
		}
	}
	if patch.LogoPath != nil {
		cur.LogoPath = strings.TrimSpace(*patch.LogoPath)
	}
	if patch.HeroBgPath != nil {
		cur.HeroBgPath = strings.TrimSpace(*patch.HeroBgPath)
	}
	if err := writeJSONAtomic(s.settingsPath, cur); err != nil {
		return models.Settings{}, err
	}
	return cur, nil
}

func (s *Store) readProducts() []models.Product {
	data, err := os.ReadFile(s.productsPath)
	if err != nil {
		return []models.Product{}
	}
	var prods []models.Product
	if err := json.Unmarshal(data, &prods); err != nil {
		return []models.Product{}
	}
	return normalize.All(prods)
}

func (s *Store) readSettings() models.Settings {
	out := models.DefaultSettings()
	data, err := os.ReadFile(s.settingsPath)
	if err != nil {
		return out
	}
	var raw models.Settings
	if err := json.Unmarshal(data, &raw); err != nil {
		return out
	}
	if td := strings.TrimSpace(raw.ThemeDefault); td == models.ThemeBlue || td == models.ThemeWhite {
		out.ThemeDefault = td
	}
	out.LogoPath = strings.TrimSpace(raw.LogoPath)
	out.HeroBgPath = strings.TrimSpace(raw.HeroBgPath)
	return out
}

func writeJSONAtomic(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
