package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/chachabrian/tripshare-backend/internal/config"
	"github.com/chachabrian/tripshare-backend/internal/database"
	"github.com/chachabrian/tripshare-backend/internal/handlers"
	"github.com/chachabrian/tripshare-backend/internal/ingest"
	"github.com/chachabrian/tripshare-backend/internal/middleware"
	"github.com/chachabrian/tripshare-backend/internal/services"
	"github.com/chachabrian/tripshare-backend/internal/storage"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	store := storage.NewGormStore(db)

	cache, err := services.NewRedisCache(cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}

	// Firebase is optional; push notifications are skipped when it is not
	// configured.
	if err := services.InitFirebase(); err != nil {
		log.Warnf("Firebase initialization warning: %v", err)
	}

	var mirror services.LocationMirror
	if len(cfg.KafkaBrokers) > 0 {
		producer := ingest.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		mirror = producer
		log.WithField("brokers", cfg.KafkaBrokers).Info("Kafka location mirror enabled")
	}

	hub := services.NewHub(store, log)
	estimator := services.NewEstimator(cfg.OSRMEndpoint, cfg.RouteTimeout, cfg.FallbackSpeedKmh, log)
	locks := services.NewTripLocks()

	tripSvc := services.NewTripService(store, hub, estimator, cache, mirror, locks, log)
	requestSvc := services.NewRequestService(store, hub, locks, log)

	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = []string{"*"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.Metrics())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		// WebSocket connection for live trip events
		api.GET("/ws/trips/:tripId", middleware.AuthMiddleware(), handlers.TripWebSocket(hub))

		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			trips := protected.Group("/trips")
			{
				trips.POST("", handlers.CreateTrip(tripSvc))
				trips.GET("", handlers.ListTrips(tripSvc))
				trips.GET("/:tripId", handlers.GetTrip(tripSvc))
				trips.POST("/:tripId/start", handlers.StartTrip(tripSvc))
				trips.POST("/:tripId/complete", handlers.CompleteTrip(tripSvc))
				trips.POST("/:tripId/cancel", handlers.CancelTrip(tripSvc))
				trips.POST("/:tripId/location", handlers.UpdateTripLocation(tripSvc))

				trips.POST("/:tripId/requests", handlers.CreateRideRequest(requestSvc))
				trips.GET("/:tripId/requests", handlers.ListTripRequests(requestSvc))
			}

			requests := protected.Group("/requests")
			{
				requests.POST("/:requestId/approve", handlers.ApproveRequest(requestSvc))
				requests.POST("/:requestId/reject", handlers.RejectRequest(requestSvc))
				requests.POST("/:requestId/cancel", handlers.CancelRideRequest(requestSvc))
				requests.POST("/:requestId/pickup", handlers.MarkPickedUp(requestSvc))
				requests.POST("/:requestId/dropoff", handlers.MarkDroppedOff(requestSvc))
			}
		}
	}

	log.WithField("port", cfg.Port).Info("Starting server")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
