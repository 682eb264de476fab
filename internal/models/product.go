package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PlaceholderImage is used when a product has no pictures at all.
const PlaceholderImage = "/assets/img/placeholder.svg"

// SpecRow is one row of the characteristics table.
type SpecRow struct {
	K string `json:"k"`
	V string `json:"v"`
}

// Product represents one catalog item (a crane/manipulator listing).
// Scalar fields that may arrive as numbers from CSV-derived JSON use
// LooseString so a malformed record degrades instead of failing to decode.
type Product struct {
	ID           string      `json:"id"`
	Slug         string      `json:"slug"`
	Category     string      `json:"category"`
	Brand        string      `json:"brand"`
	Model        string      `json:"model"`
	Year         LooseString `json:"year"`
	Status       string      `json:"status"`
	Price        LooseString `json:"price"`
	City         string      `json:"city"`
	Title        string      `json:"title"`
	Short        string      `json:"short"`
	Description  string      `json:"description"`
	Specs        string      `json:"specs"`
	SpecsTable   []SpecRow   `json:"specs_table"`
	Images       ImageList   `json:"images"`
	Image        string      `json:"image"`
	Featured     LooseBool   `json:"featured"`
	FeaturedRank LooseString `json:"featured_rank"`
	CTA          string      `json:"cta"`

	// Discrete spec fields, kept so updates can merge them back in.
	Cargo    string      `json:"cargo,omitempty"`
	Outreach string      `json:"outreach,omitempty"`
	Sections LooseString `json:"sections,omitempty"`
	Control  string      `json:"control,omitempty"`

	// Values of auxiliary image2..image10 / img2..img10 / photo2..photo10
	// keys, collected in key order during decoding. Consumed by the
	// normalizer and never persisted back.
	ExtraImages []string `json:"-"`
}

type productAlias Product

// UnmarshalJSON decodes the known fields and sweeps the legacy imageN /
// imgN / photoN keys into ExtraImages.
func (p *Product) UnmarshalJSON(data []byte) error {
	var a productAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for i := 2; i <= 10; i++ {
		for _, prefix := range []string{"image", "img", "photo"} {
			v, ok := raw[fmt.Sprintf("%s%d", prefix, i)]
			if !ok {
				continue
			}
			var list ImageList
			if err := json.Unmarshal(v, &list); err == nil {
				a.ExtraImages = append(a.ExtraImages, list...)
			}
		}
	}
	*p = Product(a)
	return nil
}

// ImageList accepts either a JSON array or a single delimited string.
// Splitting and deduplication are the normalizer's job; decoding only
// brings both shapes to a flat list of raw strings.
type ImageList []string

func (l *ImageList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			*l = nil
		} else {
			*l = ImageList{s}
		}
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		*l = nil
		return nil
	}
	out := make(ImageList, 0, len(items))
	for _, it := range items {
		var v string
		if err := json.Unmarshal(it, &v); err != nil {
			v = strings.Trim(string(it), `"`)
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

// LooseString is a string that also swallows JSON numbers and booleans.
type LooseString string

func (s *LooseString) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err == nil {
		*s = LooseString(v)
		return nil
	}
	t := strings.TrimSpace(string(data))
	if t == "null" {
		*s = ""
		return nil
	}
	*s = LooseString(t)
	return nil
}

func (s LooseString) String() string { return string(s) }

// LooseBool is a bool that also accepts the truthy strings an admin UI or
// CSV import may send ("1", "true", "yes", "да", "y").
type LooseBool bool

func (b *LooseBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = LooseBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*b = LooseBool(Truthy(s))
		return nil
	}
	*b = false
	return nil
}

// Truthy reports whether a free-text flag value means "yes".
func Truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "да", "y":
		return true
	}
	return false
}
