package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/edvlasov/blog-backend/internal/config"
	"github.com/edvlasov/blog-backend/internal/db"
	"github.com/edvlasov/blog-backend/internal/es"
	"github.com/edvlasov/blog-backend/internal/handlers"
	"github.com/edvlasov/blog-backend/internal/logging"
	"github.com/edvlasov/blog-backend/internal/middleware/loggingmw"
	"github.com/edvlasov/blog-backend/internal/mykafka"
	"github.com/edvlasov/blog-backend/internal/token"
	httpserver "github.com/edvlasov/blog-backend/internal/transport/http"
	"github.com/edvlasov/blog-backend/internal/validation"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	config.MustNonEmpty(configuration.JWT_SECRET, "JWT_SECRET")
	config.MustNonEmpty(configuration.DSN(), "DATABASE_URL")

	logger := logging.New(configuration.LOG_LEVEL)

	ctx := context.Background()
	database, err := db.Open(ctx, configuration.DSN())
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	prod := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})

	tokens := token.NewService([]byte(configuration.JWT_SECRET), configuration.TOKEN_TTL)

	deps := httpserver.Deps{
		UserHandler:   &handlers.UserHandler{DB: database, Tokens: tokens, Producer: prod},
		BlogHandler:   &handlers.BlogHandler{DB: database, Producer: prod},
		SearchHandler: &handlers.SearchHandler{},
		Tokens:        tokens,
	}

	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		deps.BlogHandler.ES = esClient
		deps.SearchHandler.ES = esClient
	}

	e := echo.New()
	e.Validator = validation.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.CORS())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
