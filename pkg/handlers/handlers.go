package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/auth"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/config"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/database"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/logging"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/metrics"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/models"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/planner"
)

// RequestIDHeader carries the id assigned to each request
const RequestIDHeader = "X-Request-ID"

// Handler contains dependencies for the route handlers
type Handler struct {
	DB      *gorm.DB
	Store   *database.Store
	Planner *planner.Planner
	Syncer  *planner.Syncer
	Auth    *auth.Authenticator
	Metrics *metrics.Manager
	Logger  logging.Logger
	Config  *config.Config

	// Now supplies the current time; "today" is derived from it unless a
	// request pins a date.
	Now func() time.Time
}

// New wires a handler over db using cfg. m may be nil.
func New(db *gorm.DB, cfg *config.Config, m *metrics.Manager, logger logging.Logger) (*Handler, error) {
	table, err := cfg.StoryPointTable()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Nop()
	}

	store := database.NewStore(db)
	return &Handler{
		DB:    db,
		Store: store,
		Planner: planner.New(store, store,
			planner.WithWorkers(cfg.Workers),
			planner.WithUtilizationWindow(cfg.UtilizationWindowDays),
			planner.WithMetrics(m),
			planner.WithLogger(logger.Named("planner")),
		),
		Syncer: planner.NewSyncer(store,
			planner.WithStoryPointHours(table),
			planner.WithDefaultHoursPerDay(cfg.DefaultHoursPerDay),
			planner.WithEmailDomain(cfg.EmailDomain),
			planner.WithSyncMetrics(m),
			planner.WithSyncLogger(logger.Named("sync")),
		),
		Auth:    auth.New(cfg.JWTSecret, cfg.APIMasterSecret, cfg.TokenTTL),
		Metrics: m,
		Logger:  logger,
		Config:  cfg,
		Now:     time.Now,
	}, nil
}

// Routes registers every endpoint on r
func (h *Handler) Routes(r gin.IRouter) {
	r.POST("/admin/login", h.Login)

	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
	}

	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.POST("/validate", h.ValidateInput)
		api.GET("/usage", h.GetMyUsage)

		capacity := api.Group("/capacity")
		capacity.GET("/team-summary", h.TeamSummary)
		capacity.GET("/resource-availability", h.ResourceAvailability)
		capacity.GET("/workload-forecast/:name", h.WorkloadForecast)
		capacity.GET("/team-stats", h.TeamStats)
		capacity.GET("/overdue", h.OverdueTasks)
		capacity.GET("/blocked", h.BlockedTasks)
		capacity.GET("/export/csv", h.ExportCSV)
		capacity.POST("/evaluate", h.Evaluate)
		capacity.POST("/sync", h.Sync)

		members := api.Group("/team-members")
		members.GET("", h.ListMembers)
		members.GET("/available", h.AvailableMembers)
		members.POST("", h.CreateMember)
		members.PUT("/:id", h.UpdateMember)

		assignments := api.Group("/assignments")
		assignments.GET("", h.ListAssignments)
		assignments.GET("/assignee/:name", h.AssignmentsByAssignee)
		assignments.POST("", h.CreateAssignment)
		assignments.PUT("/:id", h.UpdateAssignment)
	}
}

// RequestLogger assigns a request id, logs the request and records HTTP metrics
func (h *Handler) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(RequestIDHeader, id)

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		elapsed := time.Since(start)
		if h.Metrics != nil {
			h.Metrics.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), elapsed)
		}
		h.Logger.Infow("request",
			"id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", elapsed,
		)
	}
}

func bearer(c *gin.Context) string {
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

// AuthMiddleware verifies the JWT token for admin routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// APIKeyMiddleware verifies the HMAC API key for capacity routes and
// enforces the key's daily request limit
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearer(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
			return
		}

		userID, err := h.Auth.VerifyHMACKey(key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
			return
		}

		// Fetch or create API key record to track usage
		var apiKey database.APIKey
		err = h.DB.Where(database.APIKey{Key: key}).
			Attrs(database.APIKey{Name: userID, KeyPreview: auth.Preview(key), RateLimit: 10000}).
			FirstOrCreate(&apiKey).Error
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not load API key"})
			return
		}

		var usage database.APIUsage
		err = h.DB.Where("key_id = ? AND date = ?", apiKey.ID, h.Now().Format(models.DateLayout)).First(&usage).Error
		if err == nil && apiKey.RateLimit > 0 && usage.RequestCount >= apiKey.RateLimit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Daily rate limit exceeded"})
			return
		}

		if err := h.Store.TouchAPIKey(c.Request.Context(), &apiKey, h.Now()); err != nil {
			h.Logger.Warnf("touch api key %d: %v", apiKey.ID, err)
		}

		c.Set("apiKey", &apiKey)
		c.Set("userID", userID)
		c.Next()
	}
}

// RecordUsage records API usage in the database using an efficient upsert
func (h *Handler) RecordUsage(c *gin.Context, people, items int) {
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	today := h.Now().Format(models.DateLayout)

	// Use OnConflict for a single-query upsert (supported by both Postgres and SQLite)
	err := h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count":   gorm.Expr("request_count + ?", 1),
			"people_reported": gorm.Expr("people_reported + ?", people),
			"items_evaluated": gorm.Expr("items_evaluated + ?", items),
		}),
	}).Create(&database.APIUsage{
		KeyID:          apiKey.ID,
		Date:           today,
		RequestCount:   1,
		PeopleReported: people,
		ItemsEvaluated: items,
	}).Error
	if err != nil {
		h.Logger.Warnf("record usage of key %d: %v", apiKey.ID, err)
	}
}

// today resolves the evaluation date from the "date" query parameter,
// falling back to the handler clock
func (h *Handler) today(c *gin.Context) (models.Date, error) {
	if raw := c.Query("date"); raw != "" {
		return models.ParseDate(raw)
	}
	return models.DateOf(h.Now()), nil
}

// daysAhead reads the "days_ahead" query parameter
func daysAhead(c *gin.Context, fallback int) (int, error) {
	raw := c.Query("days_ahead")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("days_ahead must be a non-negative integer, got %q", raw)
	}
	return n, nil
}

func paramID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", c.Param("id"))
	}
	return uint(id), nil
}

// fail writes err as a JSON error with a status derived from its kind
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.Logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Login handles admin login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user database.MasterUser
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.Auth.CreateToken(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// GenerateKey creates a new API key using the HMAC strategy
func (h *Handler) GenerateKey(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required"`
		RateLimit int    `json:"rate_limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.Contains(req.Name, ".") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name must not contain '.'"})
		return
	}

	if req.RateLimit == 0 {
		req.RateLimit = 10000
	}

	key := h.Auth.GenerateHMACKey(req.Name)
	apiKey := database.APIKey{
		Key:        key,
		Name:       req.Name,
		KeyPreview: auth.Preview(key),
		RateLimit:  req.RateLimit,
	}

	if err := h.DB.Create(&apiKey).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create key record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":   apiKey.ID,
		"name": req.Name,
		"key":  key,
	})
}

// ListKeys returns all API keys
func (h *Handler) ListKeys(c *gin.Context) {
	var keys []database.APIKey
	if err := h.DB.Order("id").Find(&keys).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list keys"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// RevokeKey deletes an API key
func (h *Handler) RevokeKey(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.DB.Delete(&database.APIKey{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Key revoked"})
}

// UpdateKeyLimit updates the rate limit for a key
func (h *Handler) UpdateKeyLimit(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var req struct {
		RateLimit int `json:"rate_limit" form:"rate_limit"`
	}

	// Try JSON first, then Form/Query
	if err := c.ShouldBindJSON(&req); err != nil {
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rate_limit is required"})
			return
		}
	}

	if req.RateLimit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rate limit"})
		return
	}

	if err := h.DB.Model(&database.APIKey{}).Where("id = ?", id).Update("rate_limit", req.RateLimit).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update key limit"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rate limit updated successfully"})
}
