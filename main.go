package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vidfetch/config"
	"vidfetch/ffmpeg"
	"vidfetch/files"
	"vidfetch/handlers"
	"vidfetch/logger"
	"vidfetch/metrics"
	"vidfetch/repository/sqlite"
	"vidfetch/services/download"
	"vidfetch/storage"
	"vidfetch/validation"
	"vidfetch/ytdlp"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	accessLogConfig, err := logger.Setup(cfg.LogDir, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Resolve external binaries. A misconfigured FFMPEG_LOCATION is fatal;
	// an absent ffmpeg on PATH only disables mp3 conversion.
	binaries, err := ffmpeg.Resolve(cfg.Download.FFmpegLocation)
	if err != nil {
		if cfg.Download.FFmpegLocation != "" {
			log.Fatalf("Failed to resolve ffmpeg: %v", err)
		}
		log.Printf("ffmpeg unavailable, mp3 conversion disabled: %v", err)
		binaries = &ffmpeg.Binaries{}
	}
	verifyBinaries(binaries)

	// Initialize database
	db, err := sqlite.InitDB(cfg.Database.Path, sqlite.DBConfig{
		MaxConnections:     cfg.Database.MaxConnections,
		MaxIdleConnections: cfg.Database.MaxIdleConnections,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize repository
	repo, err := sqlite.NewRepository(db)
	if err != nil {
		log.Fatalf("Failed to initialize repository: %v", err)
	}
	defer repo.Close()

	// Initialize yt-dlp runner
	runner, err := ytdlp.NewRunner(ytdlp.Config{
		Path:           cfg.Download.YTDLPPath,
		FFmpegLocation: binaries.Location,
		AudioQuality:   cfg.Download.AudioQuality,
	})
	if err != nil {
		log.Fatalf("Failed to initialize yt-dlp runner: %v", err)
	}

	// Initialize file store and expiry janitor
	store, err := files.NewStore(cfg.DownloadDir, cfg.Download.FileTTL)
	if err != nil {
		log.Fatalf("Failed to initialize file store: %v", err)
	}

	janitorQuit := make(chan struct{})
	go store.Janitor(time.Hour, janitorQuit)

	// Optional object storage archive
	var archiver download.Archiver
	if cfg.Archive.Enabled {
		client, err := storage.NewClient(cfg.Archive)
		if err != nil {
			log.Fatalf("Failed to initialize archive client: %v", err)
		}
		archiver = client
	}

	// Initialize validator
	validator := validation.NewValidator(cfg)

	// Initialize download service
	downloadService := download.NewService(
		repo,
		runner,
		binaries,
		store,
		validator,
		archiver,
		cfg.TempDir,
		download.Config{
			ProcessTimeout:       cfg.Download.ProcessTimeout,
			Workers:              cfg.Download.Workers,
			MaxQueueSize:         cfg.Download.MaxQueueSize,
			SubmissionsPerMinute: cfg.RateLimit.RequestsPerMinute,
			SubmissionBurst:      cfg.RateLimit.BurstSize,
		},
	)

	metrics.Initialize()

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		IdleTimeout:           cfg.IdleTimeout,
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: !cfg.Debug,
		StrictRouting:         false,
		CaseSensitive:         true,
		AppName:               "vidfetch " + cfg.Version,
	})

	// Setup middleware
	setupMiddleware(app, cfg, accessLogConfig)

	// Setup routes
	downloadHandler := handlers.NewDownloadHandler(downloadService, store)
	fileHandler := handlers.NewFileHandler(store)
	healthHandler := handlers.NewHealthHandler(binaries, runner, cfg.Version)

	app.Get("/", handlers.Root)

	// API routes
	app.Post("/api/download", downloadHandler.Start)
	app.Get("/api/progress/:id", downloadHandler.Progress)
	app.Get("/api/download/:filename", fileHandler.Serve)
	app.Get("/api/files", fileHandler.List)
	app.Delete("/api/files/:filename", fileHandler.Delete)

	// Synchronous form endpoint
	app.Post("/download/", downloadHandler.Sync)

	// Health check
	app.Get("/health", healthHandler.Check)

	// Metrics
	if cfg.Middleware.EnableMetrics {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	// Graceful shutdown setup
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdownChan
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}

		close(janitorQuit)
		downloadService.Shutdown()

		if err := db.Close(); err != nil {
			log.Printf("Database shutdown error: %v", err)
		}
	}()

	// Start server
	serverAddr := ":" + cfg.ServerPort
	if cfg.Debug {
		log.Printf("Server starting on http://localhost%s", serverAddr)
	}

	if err := app.Listen(serverAddr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

// verifyBinaries logs the versions of the resolved external binaries.
func verifyBinaries(binaries *ffmpeg.Binaries) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for name, path := range map[string]string{
		"ffmpeg":  binaries.FFmpeg,
		"ffprobe": binaries.FFprobe,
	} {
		if path == "" {
			continue
		}
		v, err := ffmpeg.Version(ctx, path)
		if err != nil {
			log.Printf("%s version check failed: %v", name, err)
			continue
		}
		log.Printf("%s: %s", name, v)
	}
}

func setupMiddleware(app *fiber.App, cfg *config.Config, logConfig *fiberLogger.Config) {
	if cfg.Middleware.EnableRecover {
		app.Use(recover.New(recover.Config{
			EnableStackTrace: cfg.Debug,
		}))
	}

	if cfg.Middleware.EnableRequestID {
		app.Use(requestid.New(requestid.Config{
			Header: "X-Request-ID",
			Generator: func() string {
				return uuid.New().String()
			},
		}))
	}

	if cfg.Middleware.EnableLogger {
		app.Use(fiberLogger.New(*logConfig))
	}

	if cfg.Middleware.EnableCORS {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(cfg.CORS.AllowedOrigins, ","),
			AllowMethods:     strings.Join(cfg.CORS.AllowedMethods, ","),
			AllowHeaders:     strings.Join(cfg.CORS.AllowedHeaders, ","),
			ExposeHeaders:    strings.Join(cfg.CORS.ExposedHeaders, ","),
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           cfg.CORS.MaxAge,
		}))
	}

	if cfg.Middleware.EnableRateLimit && cfg.RateLimit.Enabled {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit.RequestsPerMinute,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Rate limit exceeded",
				})
			},
		}))
	}

	if cfg.Middleware.EnableCompress {
		app.Use(compress.New(compress.Config{
			Level: compress.LevelDefault,
		}))
	}

	if cfg.Middleware.EnableETag {
		app.Use(etag.New())
	}
}
