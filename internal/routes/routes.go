// Package routes wires the HTTP surface: the public lead/catalog API, the
// Basic-auth admin API and static file serving for everything else.
package routes

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"crane-catalog/internal/handlers"
)

// Deps carries everything route registration needs.
type Deps struct {
	Products *handlers.ProductHandler
	Leads    *handlers.LeadHandler
	Settings *handlers.SettingsHandler
	Uploads  *handlers.UploadHandler

	AdminUser string
	AdminPass string
	SiteDir   string
}

// RegisterRoutes installs every endpoint on router.
func RegisterRoutes(router *gin.Engine, d Deps) {
	auth := adminRequired(d.AdminUser, d.AdminPass)

	// public surface
	router.GET("/api/public/products", d.Products.List)
	router.GET("/api/public/settings", d.Settings.Get)
	// duplicate of the public route, kept for the admin JS
	router.GET("/api/products", d.Products.List)
	router.GET("/api/leads", d.Leads.List)
	router.POST("/api/lead", d.Leads.Submit)

	// admin surface
	admin := router.Group("/api", auth)
	{
		admin.GET("/settings", d.Settings.Get)
		admin.GET("/leads.csv", d.Leads.ExportCSV)
		admin.POST("/products", d.Products.Mutate)
		admin.POST("/settings", d.Settings.Save)
		admin.POST("/rebuild", d.Products.Rebuild)
		admin.POST("/upload", d.Uploads.Upload)
		admin.POST("/import_csv", d.Products.ImportCSV)
	}

	// everything else is the static site
	router.NoRoute(staticSite(d.SiteDir, auth))
}

// adminRequired gates a route behind HTTP Basic credentials, compared in
// constant time. An empty configured password rejects everything.
func adminRequired(user, pass string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, p, ok := c.Request.BasicAuth()
		if !ok || pass == "" || !secureEqual(u, user) || !secureEqual(p, pass) {
			c.Header("WWW-Authenticate", `Basic realm="Admin"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "auth required"})
			return
		}
		c.Next()
	}
}

// secureEqual compares secrets without leaking length or prefix timing.
func secureEqual(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}

// staticSite serves generated pages and assets from the site root. The
// admin pages sit behind the same Basic auth as the admin API, and both
// admin paths and rendered HTML are served uncached so an edit shows up on
// the next reload.
func staticSite(siteDir string, auth gin.HandlerFunc) gin.HandlerFunc {
	fs := http.FileServer(http.Dir(siteDir))
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/admin") {
			auth(c)
			if c.IsAborted() {
				return
			}
		}
		if strings.HasPrefix(path, "/admin") || strings.HasSuffix(path, ".html") || strings.HasSuffix(path, "/") {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
		}
		fs.ServeHTTP(c.Writer, c.Request)
	}
}
