package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/api"
	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/auth"
	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/config"
	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/message"
	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/metrics"
	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/redis"
	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/store"
	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// lastSeenStore is where offline timestamps live: Redis when configured,
// the users table otherwise.
type lastSeenStore interface {
	ws.LastSeenRecorder
	message.LastSeenReader
}

func newServeCmd() *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and websocket server",
		Example: `  JWT_SECRET=change-me msgly serve
  msgly serve --port 9000 --db /var/lib/msgly/msgly.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			setupLogging(cfg.LogLevel, cfg.LogFormat)
			return runServe(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("port", "", "listen port (PORT)")
	flags.String("db", "", "SQLite database path (DB_PATH)")
	flags.String("redis", "", "Redis URL for last-seen storage (REDIS_URL)")
	_ = v.BindPFlag("PORT", flags.Lookup("port"))
	_ = v.BindPFlag("DB_PATH", flags.Lookup("db"))
	_ = v.BindPFlag("REDIS_URL", flags.Lookup("redis"))

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	slog.Info("Starting msgly", "version", version, "commit", commit, "port", cfg.Port, "db", cfg.DBPath)

	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	var lastSeen lastSeenStore = st
	if cfg.RedisURL != "" {
		rdb, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		lastSeen = rdb
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	// Create hub
	hub := ws.NewHub(lastSeen, m)
	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		hub.Run(hubCtx)
		close(hubDone)
	}()

	messages := message.NewService(st, hub, hub, lastSeen)
	authn := auth.NewAuthenticator(auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL), cfg.CookieName, st)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.Options{
		Accounts:     st,
		Messages:     messages,
		Auth:         authn,
		Socket:       ws.NewServer(hub, authn, messages, m, cfg.ClientURL),
		Health:       st.Ping,
		CookieSecure: cfg.CookieSecure,
		ClientURL:    cfg.ClientURL,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-errCh:
		stopHub()
		<-hubDone
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown; the hub
	// closes them.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}
	stopHub()
	<-hubDone

	slog.Info("Server stopped")
	return nil
}
