package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"crane-catalog/internal/config"
	"crane-catalog/internal/handlers"
	"crane-catalog/internal/leads"
	"crane-catalog/internal/notify"
	"crane-catalog/internal/ratelimit"
	"crane-catalog/internal/render"
	"crane-catalog/internal/repository"
	"crane-catalog/internal/routes"
	"crane-catalog/internal/site"
	"crane-catalog/internal/upload"
)

func main() {
	cfg := config.LoadConfig()
	if cfg.AdminPass == "" {
		log.Println("WARN: ADMIN_PASS is empty, the admin surface rejects every request")
	}

	store := repository.NewStore(cfg.ProductsJSON(), cfg.SettingsJSON())
	if err := store.Seed(cfg.ProductsCSV()); err != nil {
		log.Fatalln("seed product store:", err)
	}

	notifier := notify.New(
		notify.Telegram{BotToken: cfg.TelegramBotToken, ChatID: cfg.TelegramChatID},
		notify.SMTP{Host: cfg.SMTPHost, Port: cfg.SMTPPort, User: cfg.SMTPUser, Pass: cfg.SMTPPass, To: cfg.SMTPTo},
		"Новая заявка — Мир манипуляторов",
	)
	leadStore := leads.NewStore(cfg.LeadsCSV(), notifier, func() string {
		return time.Now().UTC().Format("2006-01-02T15:04:05Z")
	})
	if err := leadStore.Ensure(); err != nil {
		log.Println("WARN: lead log not writable:", err)
	}

	renderer := render.New(cfg.SiteURL)
	rebuilder := site.New(store, renderer, cfg.SiteDir)
	if err := rebuilder.Rebuild(); err != nil {
		log.Println("WARN: initial rebuild failed:", err)
	}

	limiter := ratelimit.New(time.Duration(cfg.RateLimitSeconds) * time.Second)
	defer limiter.Stop()

	router := gin.Default()
	routes.RegisterRoutes(router, routes.Deps{
		Products:  handlers.NewProductHandler(store, rebuilder, cfg.ProductsCSV(), cfg.MaxBodyBytes),
		Leads:     handlers.NewLeadHandler(leadStore, limiter, cfg.MaxBodyBytes),
		Settings:  handlers.NewSettingsHandler(store, cfg.MaxBodyBytes),
		Uploads:   handlers.NewUploadHandler(upload.Saver{Dir: cfg.UploadsDir()}, cfg.MaxUploadBytes),
		AdminUser: cfg.AdminUser,
		AdminPass: cfg.AdminPass,
		SiteDir:   cfg.SiteDir,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	log.Println("Serving on http://localhost:" + cfg.Port)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalln(err)
	}
}
