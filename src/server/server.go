package server

import (
	"fmt"
	"sync"

	"stock-market-api/src/collector"
	"stock-market-api/src/interfaces"
	"stock-market-api/src/logger"
	"stock-market-api/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

type APIServer struct {
	Config    *models.MConfig
	Logger    *logger.Logger
	Store     interfaces.IStockStore
	Collector *collector.Collector
	engine    *gin.Engine

	// WebSocket clients
	clients     map[*Client]struct{}
	broadcast   chan *models.MPriceUpdate // Strongly typed and buffered queue
	register    chan *Client
	unregister  chan *Client
	done        chan struct{} // Closed on Stop, never send after
	stopOnce    sync.Once
	clientMutex sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(cfg *models.MConfig, store interfaces.IStockStore, coll *collector.Collector) *APIServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config:    cfg,
		Logger:    logger.NewLogger(cfg.LogLevel, "APIServer"),
		Store:     store,
		Collector: coll,
		engine:    gin.Default(),
		clients:   make(map[*Client]struct{}),
		// Buffered channel so scheduler broadcasts never block on slow clients
		broadcast:  make(chan *models.MPriceUpdate, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if s.originAllowed(origin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

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

func (s *APIServer) originAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range s.Config.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	s.engine.GET("/", s.getRoot)
	s.engine.GET("/health", s.getHealth)
	s.engine.GET("/api/v1/health", s.getHealth)

	stocks := s.engine.Group("/api/v1/stocks")
	{
		stocks.POST("", s.createStock)
		stocks.GET("", s.listStocks)
		stocks.GET("/search", s.searchStocks)
		stocks.GET("/symbol/:symbol", s.getStockBySymbol)
		stocks.POST("/fetch/:symbol", s.fetchStock)
		stocks.GET("/:id", s.getStock)
		stocks.PUT("/:id", s.updateStock)
		stocks.DELETE("/:id", s.deleteStock)
	}

	prices := s.engine.Group("/api/v1/prices")
	{
		prices.POST("/fetch", s.fetchPrices)
		prices.GET("/symbol/:symbol", s.getPricesBySymbol)
		prices.GET("/:id", s.getPrices)
		prices.GET("/:id/stats", s.getPriceStats)
		prices.GET("/:id/moving-average", s.getMovingAverage)
		prices.GET("/:id/projection", s.getProjection)
		prices.GET("/:id/volatility", s.getVolatility)
	}

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

// Stop signals the hub loop to exit. The channels themselves are never
// closed: client goroutines may still be sending on them during shutdown.
func (s *APIServer) Stop() error {
	s.stopOnce.Do(func() { close(s.done) })
	return nil
}

// -----------------------------------------------------------------------------
// Health
// -----------------------------------------------------------------------------

func (s *APIServer) getRoot(c *gin.Context) {
	c.JSON(200, gin.H{
		"app":     s.Config.Name,
		"version": "1.0.0",
		"docs":    "/api/v1",
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	s.clientMutex.RLock()
	connections := len(s.clients)
	s.clientMutex.RUnlock()

	c.JSON(200, gin.H{
		"status":      "ok",
		"app":         s.Config.Name,
		"connections": connections,
	})
}
