package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crane-catalog/internal/leads"
	"crane-catalog/internal/models"
	"crane-catalog/internal/ratelimit"
)

// User-facing messages of the public lead endpoint.
const (
	MsgTooOften    = "Слишком часто. Попробуйте чуть позже."
	MsgServerError = "Ошибка сервера"
)

// LeadHandler serves the public lead submission plus the lead log reads.
type LeadHandler struct {
	store   *leads.Store
	limiter *ratelimit.Limiter
	maxBody int64
}

// NewLeadHandler wires the lead endpoints.
func NewLeadHandler(store *leads.Store, limiter *ratelimit.Limiter, maxBody int64) *LeadHandler {
	return &LeadHandler{store: store, limiter: limiter, maxBody: maxBody}
}

// Submit handles POST /api/lead: throttle, size check, then append.
// Validation answers ride on HTTP 200 so the form JS can show the message.
func (h *LeadHandler) Submit(c *gin.Context) {
	ip := c.ClientIP()
	if !h.limiter.Allow(ip) {
		c.JSON(http.StatusTooManyRequests, gin.H{"ok": false, "msg": MsgTooOften})
		return
	}

	var req models.LeadRequest
	if err := decodeJSONBody(c, h.maxBody, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": err.Error()})
		return
	}

	ok, msg, err := h.store.Append(req, ip, c.GetHeader("Referer"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "msg": MsgServerError, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": ok, "msg": msg})
}

// List returns stored leads newest first.
func (h *LeadHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.List())
}

// ExportCSV streams the raw lead log.
func (h *LeadHandler) ExportCSV(c *gin.Context) {
	data, err := h.store.Raw()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
