package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/usedcar_market/internal/config"
	"github.com/Skotchmaster/usedcar_market/internal/es"
	"github.com/Skotchmaster/usedcar_market/internal/httpserver"
	"github.com/Skotchmaster/usedcar_market/internal/logging"
	authmw "github.com/Skotchmaster/usedcar_market/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/usedcar_market/internal/middleware/logging"
	"github.com/Skotchmaster/usedcar_market/internal/mykafka"
	"github.com/Skotchmaster/usedcar_market/internal/repo"
	"github.com/Skotchmaster/usedcar_market/internal/service"
	"github.com/Skotchmaster/usedcar_market/internal/upload"
)

const carIndex = "cars"

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("db init: %v", err)
	}

	logger := logging.New(configuration.LOG_LEVEL).With("service", "usedcar_market")
	slog.SetDefault(logger)

	if err := os.MkdirAll(configuration.UPLOAD_DIR, 0o755); err != nil {
		log.Fatalf("upload dir: %v", err)
	}

	prod := mykafka.NewProducer(config.CSV(configuration.KAFKA_ADDRESS))

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatalf("elasticsearch: %v", err)
	}

	gormRepo := &repo.GormRepo{DB: db}
	authSvc := &service.AuthService{
		Repo:          gormRepo,
		JWTSecret:     []byte(configuration.JWT_SECRET),
		RefreshSecret: []byte(configuration.REFRESH_SECRET),
	}
	marketSvc := &service.MarketService{Repo: gormRepo}

	e := echo.New()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover(), echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.BodyLimit(configuration.MAX_UPLOAD_SIZE))

	deps := httpserver.Deps{
		AuthHandler: &httpserver.AuthHandler{Svc: authSvc, Producer: prod},
		CarHandler: &httpserver.CarHandler{
			Svc:      marketSvc,
			Uploads:  upload.NewSaver(configuration.UPLOAD_DIR, configuration.ALLOWED_EXTENSIONS),
			Producer: prod,
			ES:       esClient,
			Index:    carIndex,
		},
		Auth: authmw.New([]byte(configuration.JWT_SECRET), authSvc),
	}
	if esClient != nil {
		deps.SearchHandler = &httpserver.SearchHandler{ES: esClient, Index: carIndex}
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:              ":" + config.EnvDefault("SERVER_PORT", "8080"),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("usedcar_market listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
