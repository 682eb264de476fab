// Package normalize fills defaults and derives the dependent product
// fields (title, slug, specs table, image list) from a raw record.
//
// Normalize is total and idempotent: it never fails, malformed input
// degrades to defaults, and re-normalizing a normalized product is a no-op.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"crane-catalog/internal/models"
	"crane-catalog/internal/slug"
)

const (
	DefaultCategory = "kmu"
	DefaultStatus   = "В наличии"
	DefaultPrice    = "Цена по запросу"
	DefaultCTA      = "Узнать цену"
	DefaultTitle    = "Товар"

	// MaxImages bounds the gallery of a single product.
	MaxImages = 10
)

var (
	imageSeps = regexp.MustCompile(`[\n\r\t|;,]+`)
	specSeps  = regexp.MustCompile(`[\n\r;|]\s*`)
	wsRuns    = regexp.MustCompile(`\s+`)
)

// Normalize mutates p into its canonical form. Order matters: later steps
// depend on the defaults filled by earlier ones.
func Normalize(p *models.Product) {
	if p == nil {
		return
	}
	if strings.TrimSpace(p.Category) == "" {
		p.Category = DefaultCategory
	}
	if strings.TrimSpace(p.Status) == "" {
		p.Status = DefaultStatus
	}
	if strings.TrimSpace(string(p.Price)) == "" {
		p.Price = DefaultPrice
	}
	if strings.TrimSpace(p.CTA) == "" {
		p.CTA = DefaultCTA
	}

	specsFromDiscreteFields(p)

	if strings.TrimSpace(p.Title) == "" {
		t := strings.TrimSpace(strings.Join(nonEmpty(strings.TrimSpace(p.Brand), strings.TrimSpace(p.Model)), " "))
		if t == "" {
			t = p.ID
		}
		if t == "" {
			t = DefaultTitle
		}
		p.Title = t
	}
	if strings.TrimSpace(p.Slug) == "" {
		base := p.Title
		if base == "" {
			base = p.ID
		}
		p.Slug = slug.Slugify(base)
	}

	if p.SpecsTable == nil || (len(p.SpecsTable) == 0 && strings.TrimSpace(p.Specs) != "") {
		p.SpecsTable = SpecsToTable(p.Specs)
	}

	imgs := ProductImages(p)
	p.Images = imgs
	p.Image = imgs[0]
	p.ExtraImages = nil
}

// All normalizes every product of a list in place and returns it.
func All(prods []models.Product) []models.Product {
	for i := range prods {
		Normalize(&prods[i])
	}
	return prods
}

// ProductImages resolves the bounded gallery: the images field first, then
// legacy imageN/imgN/photoN values, then the cover inserted up front.
// Deduplicated, capped at MaxImages, placeholder when nothing survives.
func ProductImages(p *models.Product) models.ImageList {
	imgs := parseImages(p.Images)
	imgs = append(imgs, parseImages(p.ExtraImages)...)

	if main := strings.TrimSpace(p.Image); main != "" && !contains(imgs, main) {
		imgs = append([]string{main}, imgs...)
	}
	imgs = dedup(imgs, MaxImages)
	if len(imgs) == 0 {
		imgs = []string{models.PlaceholderImage}
	}
	return models.ImageList(imgs)
}

// SpecsToTable splits a free-text spec string into {key, value} rows.
// Segments are separated by newlines, ';' or '|'; the first ':' splits
// key from value, segments without one become a generic parameter row.
func SpecsToTable(specs string) []models.SpecRow {
	rows := []models.SpecRow{}
	for _, part := range specSeps.Split(specs, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if k, v, ok := strings.Cut(part, ":"); ok {
			rows = append(rows, models.SpecRow{K: strings.TrimSpace(k), V: strings.TrimSpace(v)})
		} else {
			rows = append(rows, models.SpecRow{K: "Параметр", V: part})
		}
	}
	return rows
}

// specsFromDiscreteFields builds the specs table from the discrete
// cargo/outreach/sections/control fields, in that fixed order, and
// synthesizes the free-text specs when it is empty.
func specsFromDiscreteFields(p *models.Product) {
	var rows []models.SpecRow
	if v := strings.TrimSpace(p.Cargo); v != "" {
		rows = append(rows, models.SpecRow{K: "Груз", V: v})
	}
	if v := strings.TrimSpace(p.Outreach); v != "" {
		rows = append(rows, models.SpecRow{K: "Вылет", V: v})
	}
	if v := strings.TrimSpace(string(p.Sections)); v != "" {
		rows = append(rows, models.SpecRow{K: "Секций", V: v})
	}
	if v := strings.TrimSpace(p.Control); v != "" {
		rows = append(rows, models.SpecRow{K: "Управление", V: v})
	}
	if len(rows) == 0 {
		return
	}
	p.SpecsTable = rows
	if strings.TrimSpace(p.Specs) == "" {
		lines := make([]string, len(rows))
		for i, r := range rows {
			lines[i] = fmt.Sprintf("%s: %s", r.K, r.V)
		}
		p.Specs = strings.Join(lines, "\n")
	}
}

// parseImages cleans raw image values: delimited strings are split, items
// trimmed, surrounding quotes and brackets stripped, whitespace collapsed.
func parseImages(items []string) []string {
	var out []string
	for _, raw := range items {
		s := strings.TrimSpace(raw)
		if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
			s = s[1 : len(s)-1]
		}
		for _, part := range imageSeps.Split(s, -1) {
			part = strings.Trim(strings.TrimSpace(part), `"'`)
			part = wsRuns.ReplaceAllString(part, " ")
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func dedup(items []string, limit int) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, s := range items {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func contains(items []string, s string) bool {
	for _, x := range items {
		if x == s {
			return true
		}
	}
	return false
}

func nonEmpty(items ...string) []string {
	var out []string
	for _, s := range items {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
