package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	piiHandler "github.com/quipper/poc/aitutor/be/internal/controller/http/pii"
	"github.com/quipper/poc/aitutor/be/internal/lms"
	groupsSqlite "github.com/quipper/poc/aitutor/be/internal/repositories/groups/sqlite"
	rosterSqlite "github.com/quipper/poc/aitutor/be/internal/repositories/roster/sqlite"
	"github.com/quipper/poc/aitutor/be/pkg/common/config"
	"github.com/quipper/poc/aitutor/be/pkg/common/ctxcache"
	"github.com/quipper/poc/aitutor/be/pkg/common/jwkscache"
	"github.com/quipper/poc/aitutor/be/pkg/common/logger"
)

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Owner-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config: %v", err)
		os.Exit(1)
	}
	logger.Initialize(cfg.LogLevel)
	defer logger.Sync()
	logger.Info("starting server")

	rosterRepo, err := rosterSqlite.NewSQLiteRepo(cfg.SQLitePath)
	if err != nil {
		logger.Error("init roster repo: %v", err)
		os.Exit(1)
	}
	// Groups share the roster database file; the schemas are disjoint.
	groupsRepo, err := groupsSqlite.NewSQLiteRepo(cfg.SQLitePath)
	if err != nil {
		logger.Error("init groups repo: %v", err)
		os.Exit(1)
	}

	feed := lms.NewClient(cfg.LMSBaseURL, cfg.LMSAPIToken)
	cache := ctxcache.New(cfg.CacheTTL, ctxcache.RepoLoader(rosterRepo, groupsRepo))
	jwks := jwkscache.New(10*time.Minute, time.Hour)

	if cfg.AuthDisabled {
		logger.Warn("auth disabled; trusting X-Owner-Id header")
	}
	h := piiHandler.NewHandler(rosterRepo, groupsRepo, feed, cache, jwks, piiHandler.Options{
		JWKSURL:      cfg.OAuthJWKSURL,
		AuthDisabled: cfg.AuthDisabled,
		MaxUpload:    cfg.MaxUploadBytes,
	})

	router := chi.NewRouter()
	router.Use(middleware.RequestSize(cfg.MaxUploadBytes + 1<<20))
	router.Use(middleware.Recoverer)
	router.Mount("/", h.Router())

	addr := ":" + cfg.Port
	server := &http.Server{Addr: addr, Handler: withCORS(router)}

	go func() {
		logger.Info("listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown: %v", err)
	}
	rosterRepo.Disconnect()
	groupsRepo.Disconnect()
	logger.Info("server stopped")
}
