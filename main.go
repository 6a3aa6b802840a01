package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/oauth"
	"github.com/promptform/promptform/app"
	"github.com/promptform/promptform/config"
	"github.com/promptform/promptform/database"
	"github.com/promptform/promptform/fieldgen"
	"github.com/promptform/promptform/httpx"
	"github.com/promptform/promptform/log"
	"github.com/promptform/promptform/routes"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	bearerServer := oauth.NewBearerServer(cfg.TokenSecret, cfg.TokenTTL, httpx.CredentialsVerifier(db), nil)

	var fieldGen *fieldgen.Service
	if cfg.GeminiAPIKey != "" {
		generator, err := fieldgen.NewGeminiGenerator(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			log.Fatal("main.gemini:", err)
		}
		fieldGen = fieldgen.NewService(generator)
	} else {
		log.Warn("no GOOGLE_API_KEY/GEMINI_API_KEY set, field generation is disabled")
	}

	app := app.App{
		DB:           db,
		BearerServer: bearerServer,
		Config:       cfg,
		FieldGen:     fieldGen,
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
