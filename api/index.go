package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/config"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/logging"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/server"
)

var (
	engine  http.Handler
	initErr error
)

func init() {
	logger := logging.New("vercel")

	cfg, err := config.Load(context.Background())
	if err != nil {
		initErr = err
		return
	}
	_ = logging.SetLogLevel(cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	s, err := server.New(cfg, logger)
	if err != nil {
		initErr = err
		return
	}
	engine = s.Engine
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, r *http.Request) {
	if initErr != nil {
		http.Error(w, initErr.Error(), http.StatusInternalServerError)
		return
	}
	engine.ServeHTTP(w, r)
}
