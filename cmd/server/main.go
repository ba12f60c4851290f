package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/shehryarbajwa/divar-automation/internal/api"
	"github.com/shehryarbajwa/divar-automation/internal/automation"
	"github.com/shehryarbajwa/divar-automation/internal/browser"
	"github.com/shehryarbajwa/divar-automation/internal/config"
	"github.com/shehryarbajwa/divar-automation/internal/statestore"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using system environment variables")
	}

	cfg := config.FromEnv()
	log.WithFields(logrus.Fields{
		"headless": cfg.Headless,
		"city":     cfg.CitySlug,
		"state":    cfg.StatePath,
	}).Info("starting divar automation service")

	store := statestore.New(cfg.StatePath)
	browsers := browser.NewManager(cfg, store, log)

	// Hosts occasionally ship the driver without the browser binaries;
	// installing at boot avoids a confusing first-request failure.
	log.Info("ensuring playwright chromium is installed")
	if err := browsers.Initialize(); err != nil {
		log.WithError(err).Fatal("failed to initialize browser layer")
	}
	defer func() {
		if err := browsers.Shutdown(); err != nil {
			log.WithError(err).Warn("browser shutdown reported an error")
		}
	}()

	svc := automation.New(cfg, store, browsers, log)

	handler := api.NewHandler(svc, log)
	router := handler.SetupRoutes()

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // browser-bound operations are slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Addr).Info("HTTP facade listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server forced to shut down")
	}

	log.Info("server stopped")
}
