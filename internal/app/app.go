package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/soundmesh/device/internal/channel/redis"
	"github.com/soundmesh/device/internal/connection"
	"github.com/soundmesh/device/internal/controller"
	"github.com/soundmesh/device/internal/player/silent"
	syncsvc "github.com/soundmesh/device/internal/service/sync"
	"github.com/soundmesh/device/pkg/ctxlogger"
	"github.com/soundmesh/device/pkg/redisclient"
	"github.com/soundmesh/device/pkg/validator"
)

type AppConfig struct {
	DeviceID   string `json:"device_id" validate:"required"`
	DeviceName string `json:"device_name" validate:"required,max=64"`
	Username   string `json:"username" validate:"required"`

	Host     string `json:"host"`
	Port     int    `json:"port" validate:"min=1,max=65535"`
	LogLevel string `json:"log_level"`

	RedisHost     string `json:"redis_host" validate:"required"`
	RedisPort     int    `json:"redis_port" validate:"min=1,max=65535"`
	RedisPassword string `json:"-"`

	// TrackLengthSec is how long the silent placeholder player runs each
	// track before reporting it ended.
	TrackLengthSec int `json:"track_length_sec" validate:"min=1"`
}

func (cfg *AppConfig) Validate() error {
	if validationErrors, ok := validator.NewValidator().Validate(cfg); !ok {
		return fmt.Errorf("invalid config: %v", validationErrors)
	}

	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	rc, err := redisclient.NewRedisClient(&redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	serverCtx, serverStopCtx := context.WithCancel(ctx)
	defer serverStopCtx()

	watcher := connection.NewWatcher(rc, cfg.Username, 5*time.Second, logger)
	go watcher.Run(serverCtx)

	pl := silent.NewPlayer(time.Duration(cfg.TrackLengthSec)*time.Second, time.Second, logger)
	go pl.Run(serverCtx)

	ctrl := controller.NewController(logger)

	orch := syncsvc.New(&syncsvc.Config{
		Ident:      cfg.DeviceID,
		DeviceName: cfg.DeviceName,
		Provider:   redis.NewChannel(rc, logger),
		ConnSource: watcher.Events(),
		Player:     pl,
		Policy:     syncsvc.RetryPolicy{Attempts: 3, Backoff: 200 * time.Millisecond, Logger: logger},
		OnChange:   ctrl.Update,
		Logger:     logger,
	})

	orchErr := make(chan error, 1)
	go func() {
		orchErr <- orch.Run(serverCtx)
	}()

	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: ctrl.GetMux()}

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		select {
		case <-sig:
			logger.InfoContext(serverCtx, "shutdown signal received")
		case err := <-orchErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.ErrorContext(serverCtx, "orchestrator failed", "error", err)
			}
		}

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr, "device_id", cfg.DeviceID)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
