package render

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Organization constants baked into the structured data.
const (
	orgName  = "Мир манипуляторов"
	orgEmail = "infocrane9@gmail.com"
	orgPhone = "79817105640"
	orgCity  = "Санкт-Петербург"
)

type postalAddress struct {
	Type            string `json:"@type"`
	AddressLocality string `json:"addressLocality"`
	AddressCountry  string `json:"addressCountry"`
}

type organizationLD struct {
	Context   string        `json:"@context"`
	Type      string        `json:"@type"`
	Name      string        `json:"name"`
	URL       string        `json:"url"`
	Email     string        `json:"email"`
	Telephone string        `json:"telephone"`
	Address   postalAddress `json:"address"`
}

type searchAction struct {
	Type       string `json:"@type"`
	Target     string `json:"target"`
	QueryInput string `json:"query-input"`
}

type websiteLD struct {
	Context         string       `json:"@context"`
	Type            string       `json:"@type"`
	Name            string       `json:"name"`
	URL             string       `json:"url"`
	PotentialAction searchAction `json:"potentialAction"`
}

type listItem struct {
	Type     string `json:"@type"`
	Position int    `json:"position"`
	Name     string `json:"name"`
	Item     string `json:"item"`
}

type breadcrumbLD struct {
	Context string     `json:"@context"`
	Type    string     `json:"@type"`
	Items   []listItem `json:"itemListElement"`
}

type brandLD struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

type offerLD struct {
	Type          string `json:"@type"`
	PriceCurrency string `json:"priceCurrency"`
	Price         string `json:"price"`
	Availability  string `json:"availability"`
	URL           string `json:"url"`
}

type productLD struct {
	Context     string   `json:"@context"`
	Type        string   `json:"@type"`
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Image       []string `json:"image"`
	Brand       *brandLD `json:"brand,omitempty"`
	Offers      offerLD  `json:"offers"`
}

type answerLD struct {
	Type string `json:"@type"`
	Text string `json:"text"`
}

type questionLD struct {
	Type           string   `json:"@type"`
	Name           string   `json:"name"`
	AcceptedAnswer answerLD `json:"acceptedAnswer"`
}

type faqLD struct {
	Context    string       `json:"@context"`
	Type       string       `json:"@type"`
	MainEntity []questionLD `json:"mainEntity"`
}

// crumb is one breadcrumb (name, relative URL) pair.
type crumb struct {
	name string
	url  string
}

func (r *Renderer) organizationLD() organizationLD {
	return organizationLD{
		Context:   "https://schema.org",
		Type:      "Organization",
		Name:      orgName,
		URL:       r.AbsURL("/"),
		Email:     orgEmail,
		Telephone: orgPhone,
		Address: postalAddress{
			Type:            "PostalAddress",
			AddressLocality: orgCity,
			AddressCountry:  "RU",
		},
	}
}

func (r *Renderer) websiteLD() websiteLD {
	return websiteLD{
		Context: "https://schema.org",
		Type:    "WebSite",
		Name:    orgName,
		URL:     r.AbsURL("/"),
		PotentialAction: searchAction{
			Type:       "SearchAction",
			Target:     r.AbsURL("/catalog/?q={search_term_string}"),
			QueryInput: "required name=search_term_string",
		},
	}
}

func (r *Renderer) breadcrumbLD(crumbs []crumb) breadcrumbLD {
	items := make([]listItem, len(crumbs))
	for i, c := range crumbs {
		items[i] = listItem{Type: "ListItem", Position: i + 1, Name: c.name, Item: r.AbsURL(c.url)}
	}
	return breadcrumbLD{Context: "https://schema.org", Type: "BreadcrumbList", Items: items}
}

func productFAQ() faqLD {
	return faqLD{
		Context: "https://schema.org",
		Type:    "FAQPage",
		MainEntity: []questionLD{
			{
				Type: "Question",
				Name: "Как узнать цену и наличие?",
				AcceptedAnswer: answerLD{
					Type: "Answer",
					Text: "Оставьте заявку — мы быстро уточним цену, наличие и комплектацию.",
				},
			},
			{
				Type: "Question",
				Name: "Есть доставка и установка?",
				AcceptedAnswer: answerLD{
					Type: "Answer",
					Text: "Да, организуем доставку и при необходимости установку/подключение.",
				},
			},
		},
	}
}

// jsonLD marshals structured data without HTML escaping, the way it is
// embedded inside <script type="application/ld+json"> blocks.
func jsonLD(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "[]"
	}
	return strings.TrimRight(buf.String(), "\n")
}
