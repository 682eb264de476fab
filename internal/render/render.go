// Package render produces the static HTML documents of the site. All
// functions are pure with respect to their inputs: same products, same
// bytes out, which is what makes full rebuilds idempotent.
package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"crane-catalog/internal/models"
	"crane-catalog/internal/normalize"
)

// SimilarLimit caps the "similar products" block on detail pages.
const SimilarLimit = 3

var nonPriceDigits = regexp.MustCompile(`[^0-9.]`)

// Renderer holds the site-wide values pages are derived from.
type Renderer struct {
	SiteURL string
	Now     func() time.Time
}

// New creates a renderer for the given public base URL (no trailing slash).
func New(siteURL string) *Renderer {
	return &Renderer{SiteURL: strings.TrimRight(siteURL, "/"), Now: time.Now}
}

// Esc HTML-escapes free text before interpolation.
func Esc(s string) string {
	return html.EscapeString(s)
}

// AbsURL resolves a site-relative path against the public base URL.
// Already-absolute URLs pass through.
func (r *Renderer) AbsURL(p string) string {
	if p == "" {
		p = "/"
	}
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return r.SiteURL + p
}

// carouselHTML renders the image slider. A single image gets no
// navigation controls.
func carouselHTML(images []string, title string, large bool) string {
	imgs := images
	if len(imgs) > normalize.MaxImages {
		imgs = imgs[:normalize.MaxImages]
	}
	if len(imgs) == 0 {
		imgs = []string{models.PlaceholderImage}
	}

	width, height := "640", "420"
	if large {
		width, height = "1200", "800"
	}

	var slides strings.Builder
	for i, src := range imgs {
		alt := fmt.Sprintf("Фото %d", i+1)
		if title != "" {
			alt = fmt.Sprintf("%s — фото %d", Esc(title), i+1)
		}
		fmt.Fprintf(&slides, `<img src="%s" alt="%s" loading="lazy" width="%s" height="%s">`,
			Esc(src), alt, width, height)
	}

	if len(imgs) <= 1 {
		return fmt.Sprintf(`<div class="carousel" data-carousel><div class="carousel-track">%s</div></div>`, slides.String())
	}

	var dots strings.Builder
	for i := range imgs {
		fmt.Fprintf(&dots, `<button type="button" class="carousel-dot" data-dot="%d" aria-label="Фото %d"></button>`, i, i+1)
	}
	return `<div class="carousel" data-carousel>` +
		`<div class="carousel-track">` + slides.String() + `</div>` +
		`<button type="button" class="carousel-btn" data-prev aria-label="Предыдущее фото">‹</button>` +
		`<button type="button" class="carousel-btn" data-next aria-label="Следующее фото">›</button>` +
		`<div class="carousel-dots">` + dots.String() + `</div>` +
		`</div>`
}

func siteHeader(active string) string {
	nav := []struct{ href, label, key string }{
		{"/catalog/", "Каталог", "catalog"},
		{"/brands/", "Производители", "brands"},
		{"/services/", "Услуги", "services"},
		{"/about/", "О компании", "about"},
		{"/contacts/", "Контакты", "contacts"},
		{"/blog/", "База знаний", "blog"},
	}
	var links, mobile strings.Builder
	for i, n := range nav {
		cls := ""
		if n.href == active {
			cls = "active"
		}
		if i > 0 {
			links.WriteString("\n      ")
		}
		fmt.Fprintf(&links, `<a href="%s" class="%s" data-nav="%s">%s</a>`, n.href, cls, n.key, n.label)
		fmt.Fprintf(&mobile, `<a class="btn sm" href="%s">%s</a>`, n.href, n.label)
	}

	return fmt.Sprintf(`<header class="header">
  <div class="container header-inner">
    <a class="brand" href="/"><span class="logo"><img id="siteLogoImg" class="logo-img" src="" alt="Логотип" style="display:none" /><svg width="18" height="18" viewBox="0 0 24 24" fill="none" xmlns="http://www.w3.org/2000/svg">
<path d="M5 19h14" stroke="white" stroke-opacity=".9" stroke-width="2" stroke-linecap="round"/>
<path d="M7 19V8l8-3v14" stroke="white" stroke-opacity=".9" stroke-width="2" stroke-linecap="round" stroke-linejoin="round"/>
<path d="M15 10l4 2v7" stroke="white" stroke-opacity=".9" stroke-width="2" stroke-linecap="round" stroke-linejoin="round"/>
</svg></span><span><strong>Мир манипуляторов</strong><span>КМУ из Европы • СПб → РФ</span></span></a>

    <nav class="nav" aria-label="Главное меню">
      %s
    </nav>

    <div class="header-cta">
      <a class="btn sm ghost mobile-toggle" id="mobileToggle" href="javascript:void(0)">Меню</a>

      <div class="theme-switch" title="Синяя / Белая">
        <span class="ts-label">Синяя</span>
        <label class="switch">
          <input type="checkbox" id="themeSwitch" aria-label="Переключить тему (синяя/белая)">
          <span class="slider"></span>
        </label>
        <span class="ts-label">Белая</span>
      </div>

      <a class="btn sm" href="tel:+79817105640" data-evt="lead_call">Позвонить</a>
      <a class="btn sm primary" href="/services/podbor/" data-evt="lead_pick">Подобрать КМУ</a>
    </div>
  </div>

  <div class="container" id="mobileNav" data-open="0" style="display:none; padding-bottom:14px;">
    <div class="card pad">
      <div style="display:flex;flex-wrap:wrap;gap:10px">
        %s
      </div>
    </div>
  </div>
</header>`, links.String(), mobile.String())
}

func (r *Renderer) siteFooter() string {
	return fmt.Sprintf(`<footer class="site-footer">
  <div class="container footer-grid">
    <div>
      <div class="brand">Мир манипуляторов</div>
      <p class="muted">КМУ и полуприцепы из Европы: продажа, доставка, установка, сервис.</p>
    </div>
    <div class="footer-col">
      <b>Навигация</b>
      <a href="/catalog/">Каталог</a>
      <a href="/services/">Услуги</a>
      <a href="/contacts/">Контакты</a>
      <a href="/admin/">Админка</a>
    </div>
    <div class="footer-col">
      <b>Связь</b>
      <a href="tel:+79817105640">+7 (981) 710-56-40</a>
      <a href="mailto:infocrane9@gmail.com">infocrane9@gmail.com</a>
    </div>
  </div>
  <div class="container muted small" style="padding:12px 0">© %d Мир манипуляторов</div>
</footer>`, r.Now().UTC().Year())
}

// ProductCard renders one catalog grid card.
func (r *Renderer) ProductCard(p models.Product) string {
	normalize.Normalize(&p)
	href := fmt.Sprintf("/catalog/%s/%s/", Esc(p.Category), Esc(p.Slug))
	title := Esc(p.Title)
	price := Esc(string(p.Price))

	var tags strings.Builder
	if p.Status != "" {
		fmt.Fprintf(&tags, `<span class="tag">%s</span>`, Esc(p.Status))
	}
	if p.City != "" {
		fmt.Fprintf(&tags, `<span class="tag">%s</span>`, Esc(p.City))
	}
	fmt.Fprintf(&tags, `<span class="tag">%s</span>`, price)

	return fmt.Sprintf(`<article class="product">
      <div class="pimg">
        %s
        <a class="pimg-link" href="%s" aria-label="Открыть карточку"></a>
      </div>
      <div class="pbody">
        <h3 class="ptitle"><a href="%s">%s</a></h3>
        <p class="muted">%s</p>
        <div class="meta">%s</div>
        <div class="actions">
          <a class="btn sm" href="%s">Подробнее</a>
          <a class="btn primary sm" href="%s#request">Узнать цену</a>
        </div>
      </div>
    </article>`,
		carouselHTML(p.Images, p.Title, false), href, href, title, Esc(p.Short), tags.String(), href, href)
}

const catalogFilters = `<div class="card pad catalog-filters">
        <div class="filters-grid">
          <label class="field filters-search">
            <span>Поиск</span>
            <input class="input" id="f_q" placeholder="Например: Palfinger, 2018, 12 м..." />
          </label>

          <label class="field">
            <span>Бренд</span>
            <select class="input" id="f_brand"></select>
          </label>

          <label class="field">
            <span>Год</span>
            <select class="input" id="f_year"></select>
          </label>

          <label class="field">
            <span>Груз</span>
            <select class="input" id="f_cargo"></select>
          </label>

          <label class="field">
            <span>Вылет</span>
            <select class="input" id="f_outreach"></select>
          </label>

          <label class="field">
            <span>Секций</span>
            <select class="input" id="f_sections"></select>
          </label>

          <label class="field">
            <span>Сортировка</span>
            <select class="input" id="f_sort">
              <option value="relevance">По релевантности</option>
              <option value="name_asc">По названию (A→Z)</option>
              <option value="year_desc">По году (новые сверху)</option>
              <option value="updated_desc">По обновлению</option>
            </select>
          </label>
        </div>

        <div class="filters-row">
          <div class="muted small" id="f_count"></div>
          <button class="btn btn-ghost" type="button" id="f_clear">Сбросить</button>
        </div>

        <div class="muted small">Фильтры работают на клиенте и не мешают SEO: страницы товаров остаются статическими.</div>
      </div>`

// CatalogPage renders the index document of one category.
func (r *Renderer) CatalogPage(cat string, prods []models.Product) string {
	var cards strings.Builder
	for _, p := range prods {
		if p.Category != cat {
			continue
		}
		if cards.Len() > 0 {
			cards.WriteString("\n")
		}
		cards.WriteString(r.ProductCard(p))
	}
	grid := cards.String()
	if strings.TrimSpace(grid) == "" {
		grid = `<p class="muted">Пока нет товаров в этой категории.</p>`
	}

	catURL := fmt.Sprintf("/catalog/%s/", cat)
	catUp := strings.ToUpper(cat)
	descr := fmt.Sprintf("Каталог %s: товары в наличии и под заказ. Детальные страницы, характеристики и форма запроса цены.", catUp)
	ld := jsonLD([]any{
		r.organizationLD(),
		r.websiteLD(),
		r.breadcrumbLD([]crumb{{"Главная", "/"}, {"Каталог", "/catalog/"}, {catUp, catURL}}),
	})

	return fmt.Sprintf(`<!doctype html>
<html lang="ru">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width,initial-scale=1" />
  <title>Каталог %[1]s — Мир манипуляторов</title>
  <meta name="description" content="%[2]s" />
  <link rel="canonical" href="%[3]s" />
  <meta name="robots" content="index, follow" />
  <meta property="og:title" content="Каталог %[1]s — Мир манипуляторов" />
  <meta property="og:description" content="%[2]s" />
  <meta property="og:type" content="website" />
  <meta property="og:url" content="%[3]s" />
  <meta property="og:image" content="%[4]s" />
  <meta name="twitter:card" content="summary" />
  <script type="application/ld+json">%[5]s</script>
  <link rel="stylesheet" href="/assets/css/styles.css" />
</head>
<body>
  %[6]s
  <main class="container">
    <section class="section">
      <nav class="breadcrumbs" aria-label="breadcrumb">
  <a href="/">Главная</a><span class="bc-sep">/</span>
  <a href="/catalog/">Каталог</a><span class="bc-sep">/</span>
  <span>%[1]s</span>
</nav>
<h1>Каталог: %[1]s</h1>
      <p class="lead">Нажми на карточку, чтобы открыть детальную страницу товара с характеристиками и формой запроса.</p>
      %[7]s
      <div class="products" id="catalogGrid">
        %[8]s
      </div>
    </section>
  </main>
  %[9]s
  <script src="/assets/js/main.js"></script>
  <script>window.__CATALOG_CATEGORY = "%[10]s";</script>
  <script src="/assets/js/catalog-filters.js"></script>
</body>
</html>`,
		catUp, descr, r.AbsURL(catURL), r.AbsURL("/assets/img/favicon.svg"), ld,
		siteHeader("/catalog/"), catalogFilters, grid, r.siteFooter(), cat)
}

const productPageStyle = `<style>
    .specs-table{width:100%;border-collapse:collapse}
    .specs-table td{border-bottom:1px solid rgba(255,255,255,.08);padding:10px 8px;vertical-align:top}
    .specs-table td:first-child{opacity:.85;width:45%}
    .crumbs{font-size:.9rem;opacity:.85;margin:14px 0}
    .crumbs a{color:inherit}
    .product-gallery{border-radius:14px;overflow:hidden;border:1px solid var(--line)}
    .product-gallery .carousel{height:100%}
    .product-gallery .carousel-track{aspect-ratio:16/10}
  </style>`

// ProductPage renders the detail document of one product.
func (r *Renderer) ProductPage(p models.Product, prods []models.Product) string {
	normalize.Normalize(&p)
	title := Esc(p.Title)
	cat := p.Category
	pageURL := fmt.Sprintf("/catalog/%s/%s/", cat, p.Slug)

	cover := p.Image
	ogImage := cover
	if strings.HasPrefix(cover, "/") {
		ogImage = r.AbsURL(cover)
	}

	short := Esc(p.Short)
	metaDescr := short
	if metaDescr == "" {
		metaDescr = title
	}

	descHTML := `<p class="muted">Описание скоро появится.</p>`
	if lines := splitLines(p.Description); len(lines) > 0 {
		esc := make([]string, len(lines))
		for i, l := range lines {
			esc[i] = Esc(l)
		}
		descHTML = "<p>" + strings.Join(esc, "</p><p>") + "</p>"
	}

	specsHTML := `<p class="muted">Характеристики уточняйте у менеджера.</p>`
	if len(p.SpecsTable) > 0 {
		var trs strings.Builder
		for _, row := range p.SpecsTable {
			fmt.Fprintf(&trs, "<tr><td>%s</td><td>%s</td></tr>", Esc(row.K), Esc(row.V))
		}
		specsHTML = fmt.Sprintf(`<table class="specs-table">%s</table>`, trs.String())
	}

	var tags strings.Builder
	writeTag := func(format string, v string) {
		if v != "" {
			fmt.Fprintf(&tags, "\n            "+`<span class="tag">`+format+`</span>`, Esc(v))
		}
	}
	writeTag("%s", p.Brand)
	writeTag("Модель: %s", p.Model)
	writeTag("Год: %s", string(p.Year))
	writeTag("%s", p.Status)
	writeTag("%s", p.City)
	fmt.Fprintf(&tags, "\n            "+`<span class="tag">%s</span>`, Esc(string(p.Price)))

	similarHTML := ""
	if cards := r.similarCards(p, prods); cards != "" {
		similarHTML = fmt.Sprintf(`<section class="section">
  <h2>Похожие товары</h2>
  <div class="products">%s</div>
</section>`, cards)
	}

	ld := jsonLD([]any{
		r.organizationLD(),
		r.websiteLD(),
		r.breadcrumbLD([]crumb{
			{"Главная", "/"},
			{"Каталог", "/catalog/"},
			{strings.ToUpper(cat), fmt.Sprintf("/catalog/%s/", cat)},
			{p.Title, pageURL},
		}),
		r.productLD(p, pageURL),
		productFAQ(),
	})

	cta := p.CTA
	if cta == "" {
		cta = "Узнать цену и наличие"
	}

	return fmt.Sprintf(`<!doctype html>
<html lang="ru">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width,initial-scale=1" />
  <title>%[1]s — Мир манипуляторов</title>
  <meta name="description" content="%[2]s" />
  <link rel="canonical" href="%[3]s" />
  <meta property="og:type" content="product" />
  <meta property="og:title" content="%[1]s" />
  <meta property="og:description" content="%[2]s" />
  <meta property="og:url" content="%[3]s" />
  <meta property="og:image" content="%[4]s" />
  <meta name="twitter:card" content="summary_large_image" />
  <link rel="stylesheet" href="/assets/css/styles.css" />
  <script type="application/ld+json">%[5]s</script>
  %[6]s
</head>
<body>
  %[7]s
  <main class="container">
    <div class="crumbs"><a href="/">Главная</a> · <a href="/catalog/">Каталог</a> · <a href="/catalog/%[8]s/">%[9]s</a> · %[1]s</div>

    <section class="section">
      <div class="grid2">
        <div>
          <h1 style="margin-top:0">%[1]s</h1>
          <div class="meta">%[10]s
          </div>

          <p class="muted">%[11]s</p>
          <div class="actions">
            <a class="btn primary" href="#request">%[12]s</a>
            <a class="btn ghost" href="/catalog/%[8]s/">Назад в каталог</a>
          </div>
          <p class="notice">💡 Наличие и комплектацию уточняем быстро. Возможна доставка и установка.</p>
        </div>
        <div>
          <div class="card pad product-gallery">
            %[13]s
          </div>
        </div>
      </div>
    </section>

    <section class="section">
      <div class="card pad">
        <h2 style="margin-top:0">Описание</h2>
        %[14]s
      </div>
    </section>

    <section class="section">
      <div class="card pad">
        <h2 style="margin-top:0">Характеристики</h2>
        %[15]s
      </div>
    </section>

    <section class="section" id="request">
      <div class="card pad">
        <h2 style="margin-top:0">Запросить цену</h2>
        <form class="lead-form" data-lead-type="price" data-page="%[16]s">
          <div class="grid2">
            <label class="field"><span>Имя</span><input class="input" name="name" required placeholder="Как к вам обращаться?"></label>
            <label class="field"><span>Телефон</span><input class="input" name="phone" required placeholder="+7..." inputmode="tel"></label>
          </div>
          <label class="field"><span>Комментарий</span><textarea class="input" name="message" rows="4" placeholder="Уточните комплектацию, доставку, монтаж..."></textarea></label>
          <button class="btn primary" type="submit">Отправить</button>
        </form>
      </div>
    </section>

    %[17]s
  </main>
  %[18]s
  <script src="/assets/js/main.js"></script>
</body>
</html>`,
		title, metaDescr, r.AbsURL(pageURL), ogImage, ld, productPageStyle,
		siteHeader("/catalog/"), Esc(cat), Esc(strings.ToUpper(cat)), tags.String(),
		short, Esc(cta), carouselHTML(p.Images, p.Title, true), descHTML, specsHTML,
		Esc(pageURL), similarHTML, r.siteFooter())
}

// similarCards renders up to SimilarLimit other products of the same
// category, in list order.
func (r *Renderer) similarCards(p models.Product, prods []models.Product) string {
	var cards strings.Builder
	n := 0
	for _, x := range prods {
		if x.Category != p.Category || x.ID == p.ID {
			continue
		}
		if n > 0 {
			cards.WriteString("\n")
		}
		cards.WriteString(r.ProductCard(x))
		n++
		if n >= SimilarLimit {
			break
		}
	}
	return cards.String()
}

func (r *Renderer) productLD(p models.Product, pageURL string) productLD {
	images := make([]string, 0, len(p.Images))
	for _, im := range p.Images {
		if strings.HasPrefix(im, "/") {
			images = append(images, r.AbsURL(im))
		} else {
			images = append(images, im)
		}
	}
	price := nonPriceDigits.ReplaceAllString(string(p.Price), "")
	if price == "" {
		price = "0"
	}
	ld := productLD{
		Context:     "https://schema.org",
		Type:        "Product",
		Name:        p.Title,
		URL:         r.AbsURL(pageURL),
		Description: p.Short,
		Image:       images,
		Offers: offerLD{
			Type:          "Offer",
			PriceCurrency: "RUB",
			Price:         price,
			Availability:  "https://schema.org/InStock",
			URL:           r.AbsURL(pageURL),
		},
	}
	if p.Brand != "" {
		ld.Brand = &brandLD{Type: "Brand", Name: p.Brand}
	}
	return ld
}

func splitLines(s string) []string {
	var out []string
	for _, l := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
