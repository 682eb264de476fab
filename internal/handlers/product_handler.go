package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"crane-catalog/internal/models"
	"crane-catalog/internal/normalize"
	"crane-catalog/internal/repository"
	"crane-catalog/internal/site"
)

// ProductHandler serves the product list and the admin CRUD/import surface.
// Every mutation ends with a full static rebuild.
type ProductHandler struct {
	store     *repository.Store
	rebuilder *site.Rebuilder
	csvPath   string
	maxBody   int64
	newID     func() string
}

// NewProductHandler wires the product endpoints.
func NewProductHandler(store *repository.Store, rebuilder *site.Rebuilder, csvPath string, maxBody int64) *ProductHandler {
	return &ProductHandler{
		store:     store,
		rebuilder: rebuilder,
		csvPath:   csvPath,
		maxBody:   maxBody,
		newID: func() string {
			return "p" + strconv.FormatInt(time.Now().UnixMilli(), 10)
		},
	}
}

// List returns the full normalized product list.
func (h *ProductHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Products())
}

type productActionRequest struct {
	Action  string          `json:"action"`
	Product json.RawMessage `json:"product"`
	ID      string          `json:"id"`
}

// Mutate dispatches the create/update/delete admin actions.
func (h *ProductHandler) Mutate(c *gin.Context) {
	var req productActionRequest
	if err := decodeJSONBody(c, h.maxBody, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	switch req.Action {
	case "create":
		h.create(c, req)
	case "update":
		h.update(c, req)
	case "delete":
		h.delete(c, req)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unknown action"})
	}
}

func (h *ProductHandler) create(c *gin.Context, req productActionRequest) {
	var p models.Product
	if len(req.Product) > 0 {
		// malformed product payloads degrade to an empty record
		_ = json.Unmarshal(req.Product, &p)
	}
	p.ID = h.newID()
	normalize.Normalize(&p)

	_, err := h.store.Update(func(prods []models.Product) ([]models.Product, error) {
		return append(prods, p), nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	h.finishMutation(c, gin.H{"ok": true, "id": p.ID})
}

func (h *ProductHandler) update(c *gin.Context, req productActionRequest) {
	var p models.Product
	if len(req.Product) > 0 {
		_ = json.Unmarshal(req.Product, &p)
	}
	if p.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "id required"})
		return
	}
	var present map[string]json.RawMessage
	_ = json.Unmarshal(req.Product, &present)

	_, err := h.store.Update(func(prods []models.Product) ([]models.Product, error) {
		for i := range prods {
			if prods[i].ID != p.ID {
				continue
			}
			mergeAbsent(&p, &prods[i], present)
			normalize.Normalize(&p)
			prods[i] = p
			return prods, nil
		}
		return nil, repository.ErrNotFound
	})
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	h.finishMutation(c, gin.H{"ok": true})
}

func (h *ProductHandler) delete(c *gin.Context, req productActionRequest) {
	if req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "id required"})
		return
	}
	_, err := h.store.Update(func(prods []models.Product) ([]models.Product, error) {
		out := prods[:0]
		found := false
		for _, p := range prods {
			if p.ID == req.ID {
				found = true
				continue
			}
			out = append(out, p)
		}
		if !found {
			return nil, repository.ErrNotFound
		}
		return out, nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	h.finishMutation(c, gin.H{"ok": true})
}

// ImportCSV replaces the whole store from the fixed-path CSV.
func (h *ProductHandler) ImportCSV(c *gin.Context) {
	prods, err := h.store.ImportCSV(h.csvPath)
	if errors.Is(err, repository.ErrCSVMissing) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "products.csv not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	h.finishMutation(c, gin.H{"ok": true, "count": len(prods)})
}

// Rebuild regenerates every static artifact.
func (h *ProductHandler) Rebuild(c *gin.Context) {
	if err := h.rebuilder.Rebuild(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *ProductHandler) finishMutation(c *gin.Context, resp gin.H) {
	if err := h.rebuilder.Rebuild(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// mergeAbsent copies the fields an update may omit from the stored record:
// featured, featured_rank, cta and the discrete spec fields survive a
// partial update.
func mergeAbsent(dst, cur *models.Product, present map[string]json.RawMessage) {
	has := func(k string) bool {
		_, ok := present[k]
		return ok
	}
	if !has("featured") {
		dst.Featured = cur.Featured
	}
	if !has("featured_rank") {
		dst.FeaturedRank = cur.FeaturedRank
	}
	if !has("cta") {
		dst.CTA = cur.CTA
	}
	if !has("cargo") {
		dst.Cargo = cur.Cargo
	}
	if !has("outreach") {
		dst.Outreach = cur.Outreach
	}
	if !has("sections") {
		dst.Sections = cur.Sections
	}
	if !has("control") {
		dst.Control = cur.Control
	}
}
