package api

import (
	"fmt"
	"log"
	"net/http"

	"flightdeck/internal/cache"
	"flightdeck/internal/config"
	"flightdeck/internal/database"
	"flightdeck/internal/engine"
	"flightdeck/internal/handlers"
	"flightdeck/internal/messaging"
	"flightdeck/internal/middleware"
	"flightdeck/internal/repository"
	"flightdeck/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server представляет HTTP сервер API
type Server struct {
	router    *gin.Engine
	config    *config.Config
	db        *database.DB
	nats      *messaging.NATSClient
	authCache *cache.AuthCache
	engine    *engine.Engine
}

// NewServer создает новый экземпляр сервера
func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.EnsureSchema(); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	server := &Server{
		config: cfg,
		db:     db,
	}

	opts := []engine.Option{}

	if cfg.NATS.Enabled {
		natsClient, err := messaging.NewNATSClient(cfg.NATS)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		server.nats = natsClient
		opts = append(opts, engine.WithPublisher(natsClient))
	}

	if cfg.Redis.Enabled {
		authCache, err := cache.NewAuthCache(cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		server.authCache = authCache
		opts = append(opts, engine.WithAuthCache(authCache))
	}

	server.engine = engine.New(
		store.New(db),
		repository.NewFlightRepository(),
		repository.NewReservationRepository(),
		repository.NewUserRepository(),
		repository.NewResetRepository(),
		opts...,
	)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())

	server.router = router
	server.setupRoutes()

	return server
}

// setupRoutes настраивает все API роуты
func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.engine)

	api := s.router.Group("/api")
	{
		api.POST("/users", h.CreateUser)
		api.POST("/login", h.Login)
		api.GET("/search", h.Search)
		api.POST("/book", h.Book)
		api.POST("/pay", h.Pay)
		api.GET("/reservations", h.Reservations)
		api.POST("/cancel", h.Cancel)
		api.POST("/reset", h.Reset)
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// healthCheck обрабатывает health check запросы
func (s *Server) healthCheck(c *gin.Context) {
	check := s.db.HealthCheck(c.Request.Context())
	status := http.StatusOK
	if check.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":   check.Status,
		"service":  "flightdeck-api",
		"database": check,
	})
}

// Run запускает HTTP сервер
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter возвращает роутер для тестирования
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup закрывает соединения
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			log.Printf("Error closing NATS connection: %v", err)
		}
	}

	if s.authCache != nil {
		if err := s.authCache.Close(); err != nil {
			log.Printf("Error closing redis connection: %v", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
			return err
		}
	}

	return nil
}
