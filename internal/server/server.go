package server

import (
	"github.com/Tah5721312/gps-tracking/internal/auth"
	"github.com/Tah5721312/gps-tracking/internal/config"
	"github.com/Tah5721312/gps-tracking/internal/driver"
	"github.com/Tah5721312/gps-tracking/internal/ingest"
	"github.com/Tah5721312/gps-tracking/internal/report"
	"github.com/Tah5721312/gps-tracking/internal/stream"
	"github.com/Tah5721312/gps-tracking/internal/trip"
	"github.com/Tah5721312/gps-tracking/internal/vehicle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub

	// Processor is shared with the AMQP consumer so queued samples follow
	// the exact same path as device HTTP requests.
	Processor *ingest.Processor
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	vehicles := vehicle.NewService(s.DB, vehicle.NewCache(s.Redis), s.Stream)
	trips := trip.NewService(s.DB)
	s.Processor = ingest.NewProcessor(vehicles, trips)

	ingest.RegisterRoutes(s.App.Group("/gps"), s.Processor)
	vehicle.RegisterRoutes(s.App.Group("/vehicles"), vehicles, jwtMiddleware)
	vehicle.RegisterTrackingRoutes(s.App.Group("/tracking"), vehicles)
	trip.RegisterRoutes(s.App.Group("/trips"), trips, jwtMiddleware)
	driver.RegisterRoutes(s.App.Group("/drivers"), driver.NewService(s.DB), jwtMiddleware)
	report.RegisterRoutes(s.App.Group("/reports"), report.NewService(s.DB), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
