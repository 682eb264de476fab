package upload

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"crane-catalog/internal/slug"
)

const maxNameLen = 60

// DefaultAllowedExt is the extension allowlist when no purpose narrows it.
var DefaultAllowedExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
	".avif": true, ".jfif": true, ".gif": true,
}

// Saver writes uploaded images under the uploads directory, grouped by a
// purpose subdirectory, with a random suffix to avoid collisions. Files
// are write-once: nothing here ever mutates or deletes them.
type Saver struct {
	Dir string // filesystem uploads dir, served as /assets/uploads
}

// Save stores data and returns the web path of the new file. allowed nil
// means DefaultAllowedExt.
func (s Saver) Save(filename string, data []byte, baseName, subdir string, allowed map[string]bool) (string, error) {
	if filename == "" {
		return "", errors.New("filename missing")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "", errors.New("file extension missing")
	}
	if allowed == nil {
		allowed = DefaultAllowedExt
	}
	if !allowed[ext] {
		return "", fmt.Errorf("недопустимое расширение %s. Разрешено: %s", ext, extList(allowed))
	}

	safeBase := clip(slug.SafeFilename(baseName), maxNameLen)
	outDir := s.Dir
	webDir := "/assets/uploads"
	if subdir != "" {
		safeSubdir := clip(slug.SafeFilename(subdir), maxNameLen)
		outDir = filepath.Join(s.Dir, safeSubdir)
		webDir = path.Join(webDir, safeSubdir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}

	u := uuid.New()
	name := fmt.Sprintf("%s-%x%s", safeBase, u[:5], ext)
	if err := os.WriteFile(filepath.Join(outDir, name), data, 0o644); err != nil {
		return "", err
	}
	return path.Join(webDir, name), nil
}

func extList(allowed map[string]bool) string {
	exts := make([]string, 0, len(allowed))
	for e := range allowed {
		exts = append(exts, e)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
