package routes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crane-catalog/internal/handlers"
	"crane-catalog/internal/leads"
	"crane-catalog/internal/models"
	"crane-catalog/internal/normalize"
	"crane-catalog/internal/ratelimit"
	"crane-catalog/internal/render"
	"crane-catalog/internal/repository"
	"crane-catalog/internal/site"
	"crane-catalog/internal/upload"
)

const (
	testUser = "admin"
	testPass = "secret"
)

type testEnv struct {
	router  *gin.Engine
	siteDir string
	store   *repository.Store
	limiter *ratelimit.Limiter
}

func newTestEnv(t *testing.T, rateWindow time.Duration) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	store := repository.NewStore(filepath.Join(dir, "data", "products.json"), filepath.Join(dir, "data", "settings.json"))
	seed := models.Product{ID: "kmu-001", Brand: "Palfinger", Model: "PK 17502", Category: "kmu", Featured: true}
	normalize.Normalize(&seed)
	require.NoError(t, store.ReplaceProducts([]models.Product{seed}))

	leadStore := leads.NewStore(filepath.Join(dir, "leads", "leads.csv"), nil, func() string { return "2025-01-02 03:04:05" })
	renderer := render.New("https://mircranov.ru")
	renderer.Now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	rebuilder := site.New(store, renderer, dir)

	limiter := ratelimit.New(rateWindow)
	t.Cleanup(limiter.Stop)

	router := gin.New()
	RegisterRoutes(router, Deps{
		Products:  handlers.NewProductHandler(store, rebuilder, filepath.Join(dir, "data", "products.csv"), 5_000_000),
		Leads:     handlers.NewLeadHandler(leadStore, limiter, 5_000_000),
		Settings:  handlers.NewSettingsHandler(store, 5_000_000),
		Uploads:   handlers.NewUploadHandler(upload.Saver{Dir: filepath.Join(dir, "assets", "uploads")}, 25_000_000),
		AdminUser: testUser,
		AdminPass: testPass,
		SiteDir:   dir,
	})
	return &testEnv{router: router, siteDir: dir, store: store, limiter: limiter}
}

func (e *testEnv) do(method, path string, body []byte, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, o := range opts {
		o(req)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func asAdmin(req *http.Request) { req.SetBasicAuth(testUser, testPass) }

func fromIP(ip string) func(*http.Request) {
	return func(req *http.Request) { req.Header.Set("X-Forwarded-For", ip) }
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestPublicEndpointsNeedNoAuth(t *testing.T) {
	e := newTestEnv(t, time.Second)

	for _, path := range []string{"/api/public/products", "/api/products", "/api/public/settings", "/api/leads"} {
		w := e.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestAdminEndpointsRejectMissingOrWrongCredentials(t *testing.T) {
	e := newTestEnv(t, time.Second)
	body := []byte(`{"action":"delete","id":"kmu-001"}`)

	w := e.do(http.MethodPost, "/api/products", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, `Basic realm="Admin"`, w.Header().Get("WWW-Authenticate"))

	w = e.do(http.MethodPost, "/api/products", body, func(req *http.Request) {
		req.SetBasicAuth(testUser, "wrong")
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodGet, "/api/settings", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = e.do(http.MethodGet, "/api/leads.csv", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminEndpointsAcceptCorrectCredentials(t *testing.T) {
	e := newTestEnv(t, time.Second)

	w := e.do(http.MethodGet, "/api/settings", nil, asAdmin)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/api/leads.csv", nil, asAdmin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Body.String(), "ts,ip,lead_type")
}

func TestLeadSubmitAndRateLimit(t *testing.T) {
	e := newTestEnv(t, 300*time.Millisecond)
	body := []byte(`{"lead_type":"callback","fields":{"phone":"+79001234567"}}`)

	w := e.do(http.MethodPost, "/api/lead", body, fromIP("9.9.9.9"))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, leads.MsgAccepted, resp["msg"])

	w = e.do(http.MethodPost, "/api/lead", body, fromIP("9.9.9.9"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, handlers.MsgTooOften, decodeBody(t, w)["msg"])

	// another client is unaffected
	w = e.do(http.MethodPost, "/api/lead", body, fromIP("8.8.8.8"))
	assert.Equal(t, http.StatusOK, w.Code)

	time.Sleep(350 * time.Millisecond)
	w = e.do(http.MethodPost, "/api/lead", body, fromIP("9.9.9.9"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLeadSubmitValidation(t *testing.T) {
	e := newTestEnv(t, time.Millisecond)

	w := e.do(http.MethodPost, "/api/lead", []byte(`{"fields":{}}`), fromIP("1.1.1.1"))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, false, resp["ok"])
	assert.Equal(t, leads.MsgPhoneRequired, resp["msg"])

	w = e.do(http.MethodPost, "/api/lead", nil, fromIP("2.2.2.2"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeadSubmitWriteFailureIsServerError(t *testing.T) {
	e := newTestEnv(t, time.Millisecond)
	// a directory where the log file should be makes the append fail
	require.NoError(t, os.MkdirAll(filepath.Join(e.siteDir, "leads", "leads.csv"), 0o755))

	w := e.do(http.MethodPost, "/api/lead",
		[]byte(`{"fields":{"phone":"+79001234567"}}`), fromIP("3.3.3.3"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, false, resp["ok"])
	assert.Equal(t, handlers.MsgServerError, resp["msg"])
}

func TestProductCRUDRoundTrip(t *testing.T) {
	e := newTestEnv(t, time.Second)

	w := e.do(http.MethodPost, "/api/products",
		[]byte(`{"action":"create","product":{"brand":"Fassi","model":"F215A","featured":true}}`), asAdmin)
	require.Equal(t, http.StatusOK, w.Code)
	id, _ := decodeBody(t, w)["id"].(string)
	require.NotEmpty(t, id)

	// update omitting featured must preserve it
	w = e.do(http.MethodPost, "/api/products",
		[]byte(`{"action":"update","product":{"id":"`+id+`","brand":"Fassi","model":"F215A","year":"2018"}}`), asAdmin)
	require.Equal(t, http.StatusOK, w.Code)

	var updated *models.Product
	for _, p := range e.store.Products() {
		if p.ID == id {
			q := p
			updated = &q
		}
	}
	require.NotNil(t, updated)
	assert.Equal(t, "2018", string(updated.Year))
	assert.True(t, bool(updated.Featured), "featured survives an update that omits it")

	// detail page was generated by the rebuild
	page := filepath.Join(e.siteDir, "catalog", "kmu", updated.Slug, "index.html")
	_, err := os.Stat(page)
	assert.NoError(t, err)

	w = e.do(http.MethodPost, "/api/products", []byte(`{"action":"delete","id":"`+id+`"}`), asAdmin)
	require.Equal(t, http.StatusOK, w.Code)
	for _, p := range e.store.Products() {
		assert.NotEqual(t, id, p.ID, "deleted product must not be listed")
	}

	w = e.do(http.MethodPost, "/api/products", []byte(`{"action":"delete","id":"`+id+`"}`), asAdmin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductMutateRejectsUnknownAction(t *testing.T) {
	e := newTestEnv(t, time.Second)
	w := e.do(http.MethodPost, "/api/products", []byte(`{"action":"drop"}`), asAdmin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportCSVMissingFile(t *testing.T) {
	e := newTestEnv(t, time.Second)
	w := e.do(http.MethodPost, "/api/import_csv", []byte(`{}`), asAdmin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSettingsSaveAndPublicRead(t *testing.T) {
	e := newTestEnv(t, time.Second)

	w := e.do(http.MethodPost, "/api/settings", []byte(`{"theme_default":"white"}`), asAdmin)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, true, resp["ok"])

	w = e.do(http.MethodGet, "/api/public/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "white", decodeBody(t, w)["theme_default"])
}

func TestUploadLogo(t *testing.T) {
	e := newTestEnv(t, time.Second)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("purpose", "logo"))
	fw, err := mw.CreateFormFile("file", "logo.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.SetBasicAuth(testUser, testPass)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody(t, w)
	path, _ := resp["path"].(string)
	assert.True(t, strings.HasPrefix(path, "/assets/uploads/branding/logo-"), path)

	onDisk := filepath.Join(e.siteDir, "assets", "uploads", "branding", filepath.Base(path))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestUploadRejectsNonMultipart(t *testing.T) {
	e := newTestEnv(t, time.Second)
	w := e.do(http.MethodPost, "/api/upload", []byte(`{}`), asAdmin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStaticFallback(t *testing.T) {
	e := newTestEnv(t, time.Second)
	require.NoError(t, os.WriteFile(filepath.Join(e.siteDir, "index.html"), []byte("<html>home</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(e.siteDir, "about.html"), []byte("<html>about</html>"), 0o644))

	w := e.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "home")
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")

	w = e.do(http.MethodGet, "/about.html", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "about")
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
}

func TestAdminStaticPagesRequireAuth(t *testing.T) {
	e := newTestEnv(t, time.Second)
	adminDir := filepath.Join(e.siteDir, "admin")
	require.NoError(t, os.MkdirAll(adminDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(adminDir, "index.html"), []byte("<html>admin</html>"), 0o644))

	w := e.do(http.MethodGet, "/admin/", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, `Basic realm="Admin"`, w.Header().Get("WWW-Authenticate"))

	w = e.do(http.MethodGet, "/admin/", nil, asAdmin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin")
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
}

func TestEmptyAdminPasswordLocksAdminOut(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	store := repository.NewStore(filepath.Join(dir, "data", "products.json"), filepath.Join(dir, "data", "settings.json"))
	router := gin.New()
	RegisterRoutes(router, Deps{
		Products:  handlers.NewProductHandler(store, site.New(store, render.New("https://x"), dir), filepath.Join(dir, "products.csv"), 1024),
		Leads:     handlers.NewLeadHandler(leads.NewStore(filepath.Join(dir, "leads.csv"), nil, func() string { return "" }), ratelimit.New(time.Second), 1024),
		Settings:  handlers.NewSettingsHandler(store, 1024),
		Uploads:   handlers.NewUploadHandler(upload.Saver{Dir: dir}, 1024),
		AdminUser: "admin",
		AdminPass: "",
		SiteDir:   dir,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	req.SetBasicAuth("admin", "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
