package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crane-catalog/internal/models"
	"crane-catalog/internal/repository"
)

// SettingsHandler serves the site-wide settings singleton.
type SettingsHandler struct {
	store   *repository.Store
	maxBody int64
}

// NewSettingsHandler wires the settings endpoints.
func NewSettingsHandler(store *repository.Store, maxBody int64) *SettingsHandler {
	return &SettingsHandler{store: store, maxBody: maxBody}
}

// Get returns the current settings. Served both publicly (theme picker,
// logo, hero background) and on the admin path.
func (h *SettingsHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Settings())
}

// Save merges a partial settings payload and returns the persisted result.
func (h *SettingsHandler) Save(c *gin.Context) {
	var patch models.SettingsPatch
	if err := decodeJSONBody(c, h.maxBody, &patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	saved, err := h.store.SaveSettings(patch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "settings": saved})
}
