package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/config"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/logging"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/server"
)

func main() {
	logger := logging.New("server")

	cfg, err := config.Load(context.Background())
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := logging.SetLogLevel(cfg.LogLevel); err != nil {
		logger.Fatalf("%v", err)
	}
	gin.SetMode(cfg.GinMode)

	s, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatalf("could not start server: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("server starting on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("could not run server: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
	logger.Info("server stopped")
}
