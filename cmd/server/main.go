package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/starburger/order-service/config"
	"github.com/starburger/order-service/internal/database"
	"github.com/starburger/order-service/internal/geocoder"
	"github.com/starburger/order-service/internal/handlers"
	httpclient "github.com/starburger/order-service/internal/http"
	"github.com/starburger/order-service/internal/middleware"
	"github.com/starburger/order-service/internal/ranking"
	"github.com/starburger/order-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting order service")

	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.GetConfigFromEnv())
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize telemetry")
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	if err := database.Connect(
		ctx,
		dbURL,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		cfg.Database.MaxConnLifetime,
		cfg.Database.MaxConnIdleTime,
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("Database connected")

	if cfg.Geocoder.APIKey == "" {
		logger.Warn().Msg("Geocoder API key not set; all distances will be unknown")
	}

	placeStore := database.NewPlaceStore(database.Pool())
	orderStore := database.NewOrderStore(database.Pool())
	restaurantStore := database.NewRestaurantStore(database.Pool())

	geoClient := geocoder.NewClient(
		httpclient.NewClient(httpclient.Config{
			Timeout:           cfg.Geocoder.Timeout,
			RequestsPerSecond: cfg.Geocoder.RequestsPerSecond,
			Burst:             cfg.Geocoder.Burst,
		}),
		geocoder.Config{
			BaseURL: cfg.Geocoder.BaseURL,
			APIKey:  cfg.Geocoder.APIKey,
		},
	)
	resolver := geocoder.NewResolver(placeStore, geoClient)

	distanceCache := ranking.NewDistanceCache(cfg.DistanceCache.TTL)
	go distanceCache.StartSweeper(ctx, cfg.DistanceCache.SweepInterval)

	engine := ranking.NewEngine(restaurantStore, resolver, distanceCache)

	handlers.InitOrderAPI(orderStore, restaurantStore)
	handlers.InitDashboard(engine, resolver, distanceCache)

	if cfg.Warmup.Enabled {
		go warmPlaces(ctx, resolver, restaurantStore, cfg.Warmup.Concurrency, logger)
	}

	gin.SetMode(ginModeFor(cfg.Logging.Level))

	router := gin.New()
	router.Use(gin.Recovery())
	setupMiddleware(router, logger)

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(middleware.RateLimitMiddleware())
	{
		api.POST("/order", handlers.RegisterOrder)
		api.GET("/products", handlers.ListProducts)
	}

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware())
	internal.Use(middleware.ServiceRateLimitMiddleware(50, 100))
	{
		internal.GET("/health", handlers.HealthCheck)
		internal.GET("/orders", handlers.ListOrders)

		admin := internal.Group("/admin")
		{
			admin.POST("/places/resolve", handlers.ResolvePlace)
			admin.GET("/cache/stats", handlers.DistanceCacheStats)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	distanceCache.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to shut down telemetry")
	}

	logger.Info().Msg("Server exited")
}

// warmPlaces resolves every restaurant address ahead of the first dashboard
// render. Best effort: failures are logged and ignored.
func warmPlaces(ctx context.Context, resolver *geocoder.Resolver, restaurants *database.RestaurantStore, concurrency int, logger *zerolog.Logger) {
	list, err := restaurants.List(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Place warmup skipped: failed to list restaurants")
		return
	}

	addresses := make([]string, 0, len(list))
	for _, r := range list {
		if r.Address != "" {
			addresses = append(addresses, r.Address)
		}
	}

	warmer := geocoder.NewWarmer(resolver, concurrency)
	if err := warmer.Warm(ctx, addresses); err != nil {
		logger.Warn().Err(err).Msg("Place warmup aborted")
	}
}

// ginModeFor maps the log level to a gin mode. Only an explicit debug level
// turns on gin's debug output; the stock configuration runs in release mode.
func ginModeFor(level string) string {
	if level == "debug" {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "order-service").Logger()
	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
