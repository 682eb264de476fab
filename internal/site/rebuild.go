// Package site regenerates every static artifact from the product store.
package site

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"crane-catalog/internal/models"
	"crane-catalog/internal/render"
	"crane-catalog/internal/repository"
)

// staticRoutes are the hand-made pages always present in the sitemap.
var staticRoutes = []string{
	"/", "/catalog/", "/services/", "/brands/", "/about/", "/contacts/", "/blog/",
	"/services/podbor/", "/services/dostavka/", "/services/ustanovka/", "/services/remont/", "/services/zapchasti/",
	"/admin/", "/admin/leads/",
}

// Rebuilder renders the whole static site: one index per category, one
// detail page per product, sitemap.xml and robots.txt. Every run is a full
// rebuild; with unchanged data the output is byte-identical within a day.
type Rebuilder struct {
	store    *repository.Store
	renderer *render.Renderer
	root     string
	now      func() time.Time
}

// New creates a rebuilder writing under root.
func New(store *repository.Store, renderer *render.Renderer, root string) *Rebuilder {
	return &Rebuilder{store: store, renderer: renderer, root: root, now: time.Now}
}

// Rebuild re-normalizes the store, rewrites it, and regenerates every
// page plus the sitemap and robots file. The re-normalize + rewrite runs
// as one locked store update so a concurrent admin edit is never rewritten
// away with a stale list; pages render from the list that update returned.
func (b *Rebuilder) Rebuild() error {
	prods, err := b.store.Update(func(ps []models.Product) ([]models.Product, error) {
		return ps, nil
	})
	if err != nil {
		return fmt.Errorf("rewrite product store: %w", err)
	}

	cats := categories(prods)
	for _, cat := range cats {
		catDir := filepath.Join(b.root, "catalog", cat)
		if err := writePage(filepath.Join(catDir, "index.html"), b.renderer.CatalogPage(cat, prods)); err != nil {
			return err
		}
		for _, p := range prods {
			if p.Category != cat {
				continue
			}
			page := filepath.Join(catDir, p.Slug, "index.html")
			if err := writePage(page, b.renderer.ProductPage(p, prods)); err != nil {
				return err
			}
		}
	}

	if err := b.writeSitemap(prods, cats); err != nil {
		return err
	}
	return b.writeRobots()
}

func (b *Rebuilder) writeSitemap(prods []models.Product, cats []string) error {
	urls := append([]string{}, staticRoutes...)
	for _, cat := range cats {
		urls = append(urls, fmt.Sprintf("/catalog/%s/", cat))
	}
	for _, p := range prods {
		urls = append(urls, fmt.Sprintf("/catalog/%s/%s/", p.Category, p.Slug))
	}
	urls = append(urls, b.blogPages()...)

	lastmod := b.now().UTC().Format("2006-01-02")
	var xml strings.Builder
	xml.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	xml.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, u := range urls {
		fmt.Fprintf(&xml, "  <url>\n    <loc>%s</loc>\n    <lastmod>%s</lastmod>\n    <changefreq>weekly</changefreq>\n  </url>\n", b.renderer.AbsURL(u), lastmod)
	}
	xml.WriteString("</urlset>")
	return os.WriteFile(filepath.Join(b.root, "sitemap.xml"), []byte(xml.String()), 0o644)
}

func (b *Rebuilder) writeRobots() error {
	robots := "User-agent: *\nAllow: /\nSitemap: /sitemap.xml\n"
	return os.WriteFile(filepath.Join(b.root, "robots.txt"), []byte(robots), 0o644)
}

// blogPages discovers hand-written knowledge-base articles so the sitemap
// keeps listing them.
func (b *Rebuilder) blogPages() []string {
	matches, err := filepath.Glob(filepath.Join(b.root, "blog", "*", "index.html"))
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	var out []string
	for _, m := range matches {
		rel, err := filepath.Rel(b.root, m)
		if err != nil {
			continue
		}
		u := "/" + filepath.ToSlash(rel)
		out = append(out, strings.TrimSuffix(u, "index.html"))
	}
	return out
}

func categories(prods []models.Product) []string {
	seen := map[string]bool{}
	var cats []string
	for _, p := range prods {
		if !seen[p.Category] {
			seen[p.Category] = true
			cats = append(cats, p.Category)
		}
	}
	sort.Strings(cats)
	return cats
}

func writePage(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
