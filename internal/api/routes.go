package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"caelus/backend/internal/ai"
	"caelus/backend/internal/logging"
	"caelus/backend/internal/metrics"
	"caelus/backend/internal/profile"
	"caelus/backend/internal/store"
	"caelus/backend/internal/synth"
)

// Config defines server dependencies.
type Config struct {
	DB                 store.Options
	AllowedOrigins     []string
	AIConfig           ai.Config
	FallbackImageModel string
	FallbackChatModel  string
	DisableAI          bool
	ServiceName        string

	// Optional overrides, mainly for tests. When nil the defaults are built
	// from the fields above.
	Text           ai.TextGenerator
	Images         ai.ImageGenerator
	Bank           *profile.Bank
	Styles         *synth.StyleTable
	Metrics        *metrics.Registry
	InitialBackoff time.Duration
}

// Server wires HTTP handlers with persistence, the personalization core and
// the generative collaborators.
type Server struct {
	db             *store.Database
	bank           *profile.Bank
	styles         *synth.StyleTable
	text           ai.TextGenerator
	images         ai.ImageGenerator
	metrics        *metrics.Registry
	allowedOrigins []string
	serviceName    string
	initialBackoff time.Duration
}

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	db, err := store.Open(cfg.DB)
	if err != nil {
		return nil, err
	}

	server := &Server{
		db:             db,
		bank:           cfg.Bank,
		styles:         cfg.Styles,
		text:           cfg.Text,
		images:         cfg.Images,
		metrics:        cfg.Metrics,
		allowedOrigins: cfg.AllowedOrigins,
		serviceName:    cfg.ServiceName,
		initialBackoff: cfg.InitialBackoff,
	}
	if server.bank == nil {
		server.bank = profile.DefaultBank()
	}
	if server.styles == nil {
		server.styles = synth.DefaultStyles()
	}
	if server.metrics == nil {
		server.metrics = metrics.NewRegistry()
	}
	if server.serviceName == "" {
		server.serviceName = "caelus"
	}
	if server.initialBackoff <= 0 {
		server.initialBackoff = aiInitialBackoff
	}

	if server.text == nil && server.images == nil {
		if cfg.DisableAI {
			logrus.Info("AI generation disabled via configuration")
		} else if err := server.buildGenerators(cfg); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	logrus.WithFields(logrus.Fields{
		"db_driver":    db.Driver(),
		"bank_version": server.bank.Version,
		"questions":    server.bank.Len(),
		"styles":       len(server.styles.Keys()),
		"ai_enabled":   server.aiEnabled(),
	}).Info("server configured")
	return server, nil
}

func (s *Server) buildGenerators(cfg Config) error {
	primary, err := ai.NewClient(cfg.AIConfig)
	if errors.Is(err, ai.ErrDisabled) {
		logrus.Warn("AI generation disabled - no OpenAI API key configured")
		return nil
	}
	if err != nil {
		return fmt.Errorf("ai client: %w", err)
	}
	s.text = primary
	s.images = primary

	if model := strings.TrimSpace(cfg.FallbackImageModel); model != "" {
		fallbackCfg := cfg.AIConfig
		fallbackCfg.ImageModel = model
		fallback, err := ai.NewClient(fallbackCfg)
		if err != nil {
			return fmt.Errorf("fallback image client: %w", err)
		}
		s.images = ai.WithImageFallback(primary, fallback)
		logrus.WithField("model", model).Info("fallback image model configured")
	}
	if model := strings.TrimSpace(cfg.FallbackChatModel); model != "" {
		fallbackCfg := cfg.AIConfig
		fallbackCfg.ChatModel = model
		fallback, err := ai.NewClient(fallbackCfg)
		if err != nil {
			return fmt.Errorf("fallback chat client: %w", err)
		}
		s.text = ai.WithTextFallback(primary, fallback)
		logrus.WithField("model", model).Info("fallback chat model configured")
	}
	return nil
}

// Close releases the database handle.
func (s *Server) Close() error {
	return s.db.Close()
}

// Metrics exposes the counter registry.
func (s *Server) Metrics() *metrics.Registry {
	return s.metrics
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(s.serviceName))
	r.Use(logging.RequestLogger(s.metrics))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", logging.RequestIDHeader}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsCfg.ExposeHeaders = []string{logging.RequestIDHeader}
	r.Use(cors.New(corsCfg))

	api := r.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)
		api.GET("/config", s.handleConfig)
		api.GET("/questions", s.handleQuestions)
		api.GET("/styles", s.handleStyles)
		api.GET("/metrics", s.metrics.HandleText)
		api.GET("/metrics.json", s.metrics.HandleJSON)

		api.POST("/profile/assess", s.handleAssess)
		api.POST("/profile", s.handleSaveProfile)
		api.GET("/profile/stats", s.handleProfileStats)
		api.GET("/profile/stream", s.handleProfileStream)
		api.GET("/profile/:id", s.handleGetProfile)

		api.POST("/prompts/image", s.handleImagePrompt)
		api.POST("/prompts/sketch", s.handleSketchPrompt)

		api.POST("/generate/image", s.handleGenerateImage)
		api.POST("/generate/sketch", s.handleGenerateSketch)
		api.POST("/generate/suggestions", s.handleGenerateSuggestions)
		api.POST("/generate/analysis", s.handleGenerateAnalysis)
		api.GET("/generations", s.handleListGenerations)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.db.Ping(); err != nil {
		s.renderError(c, http.StatusServiceUnavailable, fmt.Errorf("database: %w", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"bank_version":   s.bank.Version,
		"question_count": s.bank.Len(),
		"style_count":    len(s.styles.Keys()),
		"default_style":  s.styles.DefaultKey(),
		"sketch_styles":  synth.SketchStyles(),
		"ai_enabled":     s.aiEnabled(),
		"text_enabled":   s.text != nil && s.text.Enabled(),
		"images_enabled": s.images != nil && s.images.Enabled(),
		"db_driver":      s.db.Driver(),
	})
}

func (s *Server) handleStyles(c *gin.Context) {
	category, err := parseCategory(c.Query("category"))
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	resp := StylesResponse{
		Category: category,
		Default:  s.styles.DefaultKey(),
		Options:  s.styles.Options(category),
	}
	if category == synth.CategorySketch {
		resp.SketchTemplates = synth.SketchStyles()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) aiEnabled() bool {
	return (s.text != nil && s.text.Enabled()) || (s.images != nil && s.images.Enabled())
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// parseCategory maps the category query/body value, defaulting to garment.
func parseCategory(value string) (synth.Category, error) {
	if strings.TrimSpace(value) == "" {
		return synth.CategoryGarment, nil
	}
	category, ok := synth.ParseCategory(value)
	if !ok {
		return "", fmt.Errorf("unknown category %q", value)
	}
	return category, nil
}

func parsePaging(c *gin.Context) (offset, limit int) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 0 {
		page = 0
	}
	limit, _ = strconv.Atoi(c.Query("pageSize"))
	if limit <= 0 {
		limit = 25
	}
	if limit > 200 {
		limit = 200
	}
	return page * limit, limit
}
