package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strings"

	"crane-catalog/internal/models"
	"crane-catalog/internal/normalize"
	"crane-catalog/internal/slug"
)

var dashRuns = regexp.MustCompile(`-{2,}`)

// ErrCSVMissing is returned when an import is requested but products.csv
// does not exist.
var ErrCSVMissing = errors.New("products.csv not found")

// ImportCSV reads the fixed-path CSV, builds a normalized product per row
// and replaces the entire product store with the result.
func (s *Store) ImportCSV(csvPath string) ([]models.Product, error) {
	prods, err := readProductsCSV(csvPath, false)
	if err != nil {
		return nil, err
	}
	if err := s.ReplaceProducts(prods); err != nil {
		return nil, err
	}
	return prods, nil
}

// Seed makes sure the product store exists. An empty or missing store is
// seeded from products.csv when present, otherwise with one demo listing.
func (s *Store) Seed(csvPath string) error {
	if len(s.Products()) > 0 {
		return nil
	}
	if _, err := os.Stat(csvPath); err == nil {
		prods, err := readProductsCSV(csvPath, true)
		if err == nil && len(prods) > 0 {
			return s.ReplaceProducts(prods)
		}
		if err != nil {
			log.Println("WARN: products seed from CSV failed:", err)
		}
	}
	fallback := models.Product{
		ID:          "kmu-001",
		Slug:        "kmu-001",
		Category:    "kmu",
		Brand:       "Palfinger",
		Model:       "PK 17502",
		Year:        "2006",
		Status:      "В наличии",
		Price:       "Цена по запросу",
		City:        "Санкт-Петербург",
		Short:       "Универсальная КМУ для стройки и погрузки.",
		Description: "Подбор аналогов. Документы. Логистика.",
		Cargo:       "до 7 т",
		Outreach:    "до 14 м",
		Sections:    "5",
		Control:     "пульт",
		Featured:    true,
	}
	normalize.Normalize(&fallback)
	return s.ReplaceProducts([]models.Product{fallback})
}

// readProductsCSV maps every CSV row to a normalized product. Seeding
// derives missing slugs as brand-model-id so seeded URLs keep carrying the
// stable id; an admin import derives them from the title alone.
func readProductsCSV(path string, seedSlugs bool) ([]models.Product, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCSVMissing
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	prods := []models.Product{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[strings.TrimSpace(h)] = strings.TrimSpace(record[i])
			}
		}
		prods = append(prods, productFromRow(row, len(prods)+1, seedSlugs))
	}
	return prods, nil
}

func productFromRow(row map[string]string, n int, seedSlugs bool) models.Product {
	p := models.Product{
		ID:          row["id"],
		Slug:        row["slug"],
		Category:    row["category"],
		Brand:       row["brand"],
		Model:       row["model"],
		Year:        models.LooseString(row["year"]),
		Status:      row["status"],
		Price:       models.LooseString(row["price"]),
		City:        row["city"],
		Title:       row["title"],
		Short:       row["short"],
		Description: row["description"],
		Specs:       row["specs"],
		Image:       row["image"],
		CTA:         row["cta"],
		Cargo:       row["cargo"],
		Outreach:    row["outreach"],
		Sections:    models.LooseString(row["sections"]),
		Control:     row["control"],
	}
	if p.ID == "" {
		p.ID = fmt.Sprintf("kmu-%03d", n)
	}
	if v, ok := row["featured"]; ok && v != "" {
		p.Featured = models.LooseBool(models.Truthy(v))
	} else {
		p.Featured = models.LooseBool(models.Truthy(row["popular"]))
	}
	p.FeaturedRank = models.LooseString(row["featured_rank"])

	if imgs := row["images"]; imgs != "" {
		p.Images = models.ImageList{imgs}
	}
	for i := 2; i <= 10; i++ {
		for _, prefix := range []string{"image", "img", "photo"} {
			if v := row[fmt.Sprintf("%s%d", prefix, i)]; v != "" {
				p.ExtraImages = append(p.ExtraImages, v)
			}
		}
	}

	if p.Title == "" {
		p.Title = strings.TrimSpace(strings.Join(compact(p.Brand, p.Model), " "))
		if p.Title == "" {
			p.Title = p.ID
		}
	}
	if p.Slug == "" {
		if seedSlugs {
			p.Slug = seedSlug(p.Brand, p.Model, p.ID)
		} else {
			p.Slug = slug.Slugify(p.Title)
		}
	}

	normalize.Normalize(&p)
	return p
}

func seedSlug(brand, model, id string) string {
	s := fmt.Sprintf("%s-%s-%s", slug.Slugify(brand), slug.Slugify(model), id)
	return strings.Trim(dashRuns.ReplaceAllString(s, "-"), "-")
}

func compact(items ...string) []string {
	var out []string
	for _, s := range items {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
