package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"econ-observer/src/analysis"
	"econ-observer/src/helpers"
	"econ-observer/src/interfaces"
	"econ-observer/src/logger"
	"econ-observer/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

type APIServer struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Engine   *analysis.Engine
	Provider interfaces.ISeriesProvider
	Sink     interfaces.IArtifactSink
	engine   *gin.Engine

	// WebSocket clients. The hub goroutine mutates the map; clientsMu
	// guards reads from request handlers.
	clientsMu  sync.Mutex
	clients    map[*Client]struct{}
	broadcast  chan *models.MRunEvent
	register   chan *Client
	unregister chan *Client
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(cfg *models.MConfig, log *logger.Logger, provider interfaces.ISeriesProvider, sink interfaces.IArtifactSink) *APIServer {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config:     cfg,
		Logger:     log,
		Provider:   provider,
		Sink:       sink,
		engine:     gin.Default(),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan *models.MRunEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
	s.Engine = analysis.NewEngine(cfg, log, s)

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	v1 := s.engine.Group("/api/v1")
	v1.POST("/analyze", s.postAnalyze)
	v1.GET("/runs", s.getRuns)
	v1.GET("/runs/:id", s.getRun)
	v1.GET("/series", s.getSeries)

	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/api/health", s.getHealth)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *APIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	go s.handleWebsockets()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

func (s *APIServer) Stop() error {
	close(s.broadcast)
	close(s.register)
	close(s.unregister)
	return nil
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

type analyzeRequest struct {
	SeriesIDs []string                `json:"series_ids" binding:"required"`
	From      string                  `json:"from,omitempty"` // 2006-01-02
	To        string                  `json:"to,omitempty"`
	Overrides *models.MAnalysisConfig `json:"config,omitempty"`
}

// postAnalyze fetches the requested series, runs the full pipeline and
// stores the bundle before returning it.
func (s *APIServer) postAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	from, to, err := parseRange(req.From, req.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	series, err := s.Provider.Fetch(req.SeriesIDs, from, to)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	engine := s.Engine
	if req.Overrides != nil {
		// Per-request overrides run on a config copy; the shared engine
		// keeps the defaults.
		cfg := *s.Config
		cfg.Analysis = *req.Overrides
		cfg.Analysis.ApplyDefaults()
		engine = analysis.NewEngine(&cfg, s.Logger, s)
	}

	bundle, err := engine.Run(c.Request.Context(), series)
	if err != nil {
		status := http.StatusInternalServerError
		if helpers.IsStructural(err) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	location, err := s.Sink.SaveResultBundle(bundle)
	if err != nil {
		s.Logger.Error("Failed to persist bundle %s: %v", bundle.RunID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"location": location,
		"bundle":   bundle,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := s.Sink.ListRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getRun(c *gin.Context) {
	bundle, err := s.Sink.LoadResultBundle(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, bundle)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getSeries(c *gin.Context) {
	ids, err := s.Provider.Available()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": ids})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"analysis": s.Config.Analysis,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": s.clientCount(),
	})
}

// -----------------------------------------------------------------------------

func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if fromStr != "" {
		from, err = time.Parse("2006-01-02", fromStr)
		if err != nil {
			return from, to, fmt.Errorf("invalid from date %q", fromStr)
		}
	}
	if toStr != "" {
		to, err = time.Parse("2006-01-02", toStr)
		if err != nil {
			return from, to, fmt.Errorf("invalid to date %q", toStr)
		}
	}
	return from, to, nil
}
