package api

import (
	"fmt"
	"log"
	"net/http"

	"turnstile/internal/broadcast"
	"turnstile/internal/cache"
	"turnstile/internal/config"
	"turnstile/internal/database"
	"turnstile/internal/external"
	"turnstile/internal/handlers"
	"turnstile/internal/holds"
	"turnstile/internal/inventory"
	"turnstile/internal/messaging"
	"turnstile/internal/metrics"
	"turnstile/internal/middleware"
	"turnstile/internal/queue"
	"turnstile/internal/repository"
	"turnstile/internal/ticketing"

	"github.com/gin-gonic/gin"
)

type Server struct {
	router      *gin.Engine
	config      *config.Config
	db          *database.DB
	nats        *messaging.NATSClient
	cacheClient *cache.Client
	repos       *repository.Repositories

	hub       *broadcast.Hub
	inventory *inventory.Service
	holds     *holds.Manager
	queue     *queue.Queue
	ticketing *ticketing.Service
	sweeper   *ticketing.Sweeper
}

func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}

	// Redis is an accelerator, not a dependency; run without it if down.
	cacheClient, err := cache.NewClient(cfg.Redis)
	if err != nil {
		log.Printf("Redis unavailable, continuing without cache: %v", err)
		cacheClient = nil
	}

	repos := repository.NewRepositories(db)

	hub := broadcast.NewHub()
	inv := inventory.NewService(repos.Seats, hub, natsClient)
	if cacheClient != nil {
		inv.SetSnapshotCache(cacheClient)
	}
	holdMgr := holds.NewManager(inv, natsClient, cfg.HoldTTL)
	admission := queue.New(cfg.Queue, natsClient)

	tossClient := external.NewTossClient(cfg.Toss)
	tkService := ticketing.NewService(repos.Reservations, inv, holdMgr, tossClient, natsClient, cfg.PaymentTimeout)
	sweeper := ticketing.NewSweeper(tkService, cfg.SweepInterval)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	server := &Server{
		router:      router,
		config:      cfg,
		db:          db,
		nats:        natsClient,
		cacheClient: cacheClient,
		repos:       repos,
		hub:         hub,
		inventory:   inv,
		holds:       holdMgr,
		queue:       admission,
		ticketing:   tkService,
		sweeper:     sweeper,
	}

	server.setupRoutes()
	sweeper.Start()

	return server
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.queue, s.holds, s.inventory, s.ticketing, s.hub, s.cacheClient)

	var tokens middleware.TokenCache
	if s.cacheClient != nil {
		tokens = s.cacheClient
	}

	api := s.router.Group("/api")
	api.Use(middleware.BearerAuth(s.repos.Users, tokens))
	{
		queueGroup := api.Group("/queue")
		{
			queueGroup.POST("/events/:eventId/enter", h.EnterQueue)
			queueGroup.GET("/status", h.QueueStatus)
		}

		seats := api.Group("/seats")
		{
			seats.GET("/venue/:venueId", h.VenueSeats)
			seats.GET("/stream/:showtimeId", h.StreamSeats)
			seats.POST("/hold", h.HoldSeat)
			seats.POST("/release", h.ReleaseSeat)
		}

		tk := api.Group("/ticketing")
		{
			tk.POST("/reserve", h.Reserve)
			tk.GET("/reservations", h.ListReservations)
			tk.POST("/cancel", h.CancelReservation)
		}

		payments := api.Group("/payments")
		{
			payments.POST("/toss/confirm", h.TossConfirm)
			payments.GET("/toss/fail", h.TossFail)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))
}

func (s *Server) healthCheck(c *gin.Context) {
	if err := s.db.HealthCheck(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "turnstile-api",
		"version": "1.0.0",
	})
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter returns the router for testing.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

func (s *Server) Cleanup() error {
	if s.sweeper != nil {
		s.sweeper.Stop()
	}

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			log.Printf("Error closing NATS connection: %v", err)
		}
	}

	if s.cacheClient != nil {
		if err := s.cacheClient.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
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
