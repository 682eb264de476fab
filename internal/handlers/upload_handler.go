package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"crane-catalog/internal/upload"
)

const maxFilesPerUpload = 10

var heroAllowedExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
	".avif": true, ".jfif": true,
}

// UploadHandler accepts multipart image uploads for product photos and
// branding assets.
type UploadHandler struct {
	saver     upload.Saver
	maxUpload int64
}

// NewUploadHandler wires the upload endpoint.
func NewUploadHandler(saver upload.Saver, maxUpload int64) *UploadHandler {
	return &UploadHandler{saver: saver, maxUpload: maxUpload}
}

// Upload handles POST /api/upload. The purpose field narrows the target:
// "logo" pins the name/extension for the site logo, "hero"/"background"/"bg"
// for the hero backdrop; anything else lands under the optional category
// subdirectory with the slug/title as base name.
func (h *UploadHandler) Upload(c *gin.Context) {
	ctype := c.GetHeader("Content-Type")
	if !strings.Contains(strings.ToLower(ctype), "multipart/form-data") {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "multipart/form-data required", "details": ctype})
		return
	}
	length := c.Request.ContentLength
	if length <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "empty body"})
		return
	}
	if length > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"ok": false, "error": fmt.Sprintf("file too large (limit %d bytes)", h.maxUpload)})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxUpload))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	fields, files, err := upload.ParseMultipart(body, ctype)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"ok":      false,
			"error":   "file required",
			"details": "No file parts found. Проверь имя поля в FormData: file/files/images",
		})
		return
	}

	purpose := strings.ToLower(strings.TrimSpace(fields["purpose"]))
	baseName := strings.TrimSpace(fields["slug"])
	if baseName == "" {
		baseName = strings.TrimSpace(fields["title"])
	}
	if baseName == "" {
		baseName = "image"
	}
	subdir := strings.TrimSpace(fields["category"])

	var allowed map[string]bool
	switch purpose {
	case "logo":
		baseName, subdir = "logo", "branding"
		allowed = map[string]bool{".png": true}
	case "hero", "background", "bg":
		baseName, subdir = "hero-bg", "branding"
		allowed = heroAllowedExt
	}

	if len(files) > maxFilesPerUpload {
		files = files[:maxFilesPerUpload]
	}
	var paths []string
	for i, f := range files {
		if len(f.Data) == 0 {
			continue
		}
		name := f.Filename
		if name == "" {
			name = "image"
		}
		bn := baseName
		if len(files) > 1 {
			bn = fmt.Sprintf("%s-%d", baseName, i+1)
		}
		p, err := h.saver.Save(name, f.Data, bn, subdir, allowed)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
			return
		}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "empty files", "details": "Файлы пришли, но без содержимого"})
		return
	}

	// path keeps the single-file shape older admin JS expects
	c.JSON(http.StatusOK, gin.H{"ok": true, "path": paths[0], "paths": paths})
}
