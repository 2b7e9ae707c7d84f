// Package server assembles the HTTP engine shared by the standalone server
// and the serverless entry point.
package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/config"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/database"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/handlers"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/logging"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/metrics"
)

// Version is reported by the root endpoint
const Version = "1.0.0"

// Server bundles the engine with the resources it owns
type Server struct {
	Engine  *gin.Engine
	DB      *gorm.DB
	Handler *handlers.Handler
	Metrics *metrics.Manager
}

// New opens the database, ensures the admin user exists and builds the router
func New(cfg *config.Config, logger logging.Logger) (*Server, error) {
	db, err := database.InitDB(database.Options{
		DatabaseURL: cfg.DatabaseURL,
		DataPath:    cfg.DataPath,
		Verbose:     cfg.LogLevel == "debug",
	})
	if err != nil {
		return nil, err
	}
	return NewWithDB(db, cfg, logger)
}

// NewWithDB builds the router over an already opened database
func NewWithDB(db *gorm.DB, cfg *config.Config, logger logging.Logger) (*Server, error) {
	m := metrics.NewManager()
	h, err := handlers.New(db, cfg, m, logger)
	if err != nil {
		return nil, fmt.Errorf("build handlers: %w", err)
	}

	created, err := h.Auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return nil, err
	}
	if created {
		logger.Infof("default admin user created: %s", cfg.AdminUsername)
	}

	return &Server{
		Engine:  NewRouter(h, m, cfg),
		DB:      db,
		Handler: h,
		Metrics: m,
	}, nil
}

// NewRouter registers the service routes, the metrics endpoint and the
// informational root on a fresh engine
func NewRouter(h *handlers.Handler, m *metrics.Manager, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.RequestLogger())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Capacity Tracker API",
			"version": Version,
		})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if m != nil && cfg.MetricsPath != "" {
		r.GET(cfg.MetricsPath, gin.WrapH(m.Handler()))
	}

	h.Routes(r)
	return r
}
