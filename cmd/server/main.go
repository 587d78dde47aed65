package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/project-ranking/internal/config"
	"github.com/iliyamo/project-ranking/internal/database"
	"github.com/iliyamo/project-ranking/internal/handler"
	"github.com/iliyamo/project-ranking/internal/logger"
	"github.com/iliyamo/project-ranking/internal/queue"
	"github.com/iliyamo/project-ranking/internal/repository"
	"github.com/iliyamo/project-ranking/internal/router"
	queue_publisher "github.com/iliyamo/project-ranking/internal/service"
)

// shutdownTimeout bounds how long in-flight requests get after a stop.
const shutdownTimeout = 10 * time.Second

func main() {
	// a missing .env is fine; the environment may already be set
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", "dev")
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init(cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

// run serves the API until ctx is cancelled or the listener fails.  Every
// resource it opens is released before it returns, so the caller may exit
// right after.
func run(ctx context.Context, cfg config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	log.Info().Str("dialect", string(db.Dialect)).Msg("database connected")

	projects := repository.NewProjectRepo(db)
	history := repository.NewRatingHistoryRepo(db)

	e := router.New(cfg.CORSOrigins)
	router.RegisterRoutes(e, &handler.ReadyHandler{DB: db})
	router.RegisterProjects(e, handler.NewProjectHandler(projects, history))

	workCtx, stopWork := context.WithCancel(ctx)
	defer stopWork()

	consumerDone := make(chan struct{})
	if cfg.Consumer.Enabled {
		pub := queue_publisher.New(cfg.Consumer.BrokerURL())
		defer pub.Close()
		c := &queue.Consumer{
			URL:      cfg.Consumer.BrokerURL(),
			Store:    projects,
			Notifier: pub,
			LogDir:   cfg.Consumer.LogDir,
			Prefetch: cfg.Consumer.Prefetch,
		}
		go func() {
			defer close(consumerDone)
			_ = c.Run(workCtx)
		}()
	} else {
		close(consumerDone)
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-serverErr:
		runErr = fmt.Errorf("serve %s: %w", cfg.Addr(), err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	stopWork()
	<-consumerDone
	return runErr
}
