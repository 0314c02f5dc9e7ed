package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/watchalong/server/internal/controller"
	chatredis "github.com/watchalong/server/internal/repository/chat/redis"
	connectioninmemory "github.com/watchalong/server/internal/repository/connection/inmemory"
	roominmemory "github.com/watchalong/server/internal/repository/room/inmemory"
	"github.com/watchalong/server/internal/service/room"
	"github.com/watchalong/server/pkg/ctxlogger"
	"github.com/watchalong/server/pkg/redisclient"
	"github.com/watchalong/server/pkg/ytsearch"
)

type AppConfig struct {
	Host             string        `json:"host"`
	Port             int           `json:"port"`
	AllowedOrigin    string        `json:"allowed_origin"`
	MaxGuestsLimit   int           `json:"max_guests_limit"`
	LogLevel         string        `json:"log_level"`
	YoutubeApiKey    string        `json:"-"`
	SearchMaxResults int           `json:"search_max_results"`
	RedisHost        string        `json:"redis_host"`
	RedisPort        int           `json:"redis_port"`
	RedisPassword    string        `json:"-"`
	ChatHistoryTtl   time.Duration `json:"chat_history_ttl"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.MaxGuestsLimit < 1 {
		return fmt.Errorf("max guests limit must be greater than 0")
	}
	if cfg.YoutubeApiKey == "" {
		return fmt.Errorf("youtube api key is required")
	}
	if cfg.ChatHistoryTtl <= 0 {
		return fmt.Errorf("chat history ttl must be positive")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

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
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	chatRepo := chatredis.NewRepo(rc, cfg.ChatHistoryTtl, logger)
	roomRepo := roominmemory.NewRepo()
	connectionRepo := connectioninmemory.NewRepo()
	roomService := room.NewService(roomRepo, connectionRepo, chatRepo, cfg.MaxGuestsLimit, logger)
	searchClient := ytsearch.New(cfg.YoutubeApiKey, cfg.SearchMaxResults)
	controller := controller.NewController(roomService, searchClient, cfg.AllowedOrigin, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
