package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/vncsmyrnk/livepoll/internal/adapters/handler/http"
	"github.com/vncsmyrnk/livepoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/livepoll/internal/adapters/session"
	"github.com/vncsmyrnk/livepoll/internal/config"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
	"github.com/vncsmyrnk/livepoll/internal/core/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)
	if cfg.SessionSecretGenerated {
		logger.Warn("LIVEPOLL_SESSION_SECRET not set, sessions will not survive a restart")
	}

	pollRepo := memory.NewPollRepository()
	ranker := services.NewRanker(services.RankingLimits{
		Top:    cfg.TopLimit,
		Latest: cfg.LatestLimit,
		Mine:   cfg.MineLimit,
	})
	hub := services.NewHub(pollRepo, ranker, logger)

	pollSvc := services.NewPollService(pollRepo)
	actionSvc := services.NewActionService(pollRepo, hub, logger)

	var resolver ports.IdentityResolver
	if cfg.IPLookup {
		resolver = services.NewIPResolver(cfg.TrustForwarded)
	} else {
		resolver = services.NewSessionResolver(session.NewJWTCodec(cfg.SessionSecret, cfg.SessionTTL), logger)
	}

	identity := http.NewIdentity(resolver, http.CookieConfig{
		Path:   cfg.RootURL.Path,
		Secure: cfg.SecureCookies(),
		MaxAge: cfg.SessionTTL,
	})
	pollHandler := http.NewPollHandler(pollSvc)
	wsHandler := http.NewWSHandler(pollSvc, actionSvc, hub, http.ConnOptions{
		IdleTimeout:     cfg.IdleTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		NoticeBuffer:    cfg.SendBuffer,
		MaxMessageBytes: cfg.MaxMessageBytes,
	}, logger)

	handler := http.NewHandler(pollHandler, wsHandler, identity)
	server := &stdhttp.Server{Addr: cfg.ListenAddr, Handler: handler}
	// hijacked websocket connections are not tracked by Shutdown
	server.RegisterOnShutdown(hub.Close)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr, "root", cfg.RootURL.String(), "ip_lookup", cfg.IPLookup)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	logger.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}
