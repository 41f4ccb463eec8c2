package httpapi

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/weather-records/internal/weather"
)

// Options configures the fiber app shared by both deployment shapes.
type Options struct {
	AppName string

	// StaticDir is served at "/" with an index.html fallback. Empty or
	// missing disables static serving.
	StaticDir string

	// AccessLog enables the fiber request logger.
	AccessLog bool

	Logger *slog.Logger
}

// NewApp builds the long-running server: REST routes, health, metrics and
// the static client.
func NewApp(service *weather.Service, opts Options) *fiber.App {
	app := newFiberApp(opts)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": opts.AppName,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	RegisterRoutes(app, service)
	registerStatic(app, opts)

	return app
}

func newFiberApp(opts Options) *fiber.App {
	if opts.AppName == "" {
		opts.AppName = "weather-records"
	}
	app := fiber.New(fiber.Config{
		AppName:               opts.AppName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          ErrorHandler(opts.Logger),
	})

	app.Use(cors.New())
	if opts.AccessLog {
		app.Use(logger.New())
	}
	app.Use(recover.New())
	return app
}

// ErrorHandler renders every error as {"error": message}. Errors that are
// not *fiber.Error become 500s.
func ErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	if log == nil {
		log = slog.Default()
	}
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("request failed", "method", c.Method(), "path", c.Path(), "status", code, "error", err)
		}
		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}

func registerStatic(app *fiber.App, opts Options) {
	if opts.StaticDir == "" {
		return
	}
	info, err := os.Stat(opts.StaticDir)
	if err != nil || !info.IsDir() {
		if opts.Logger != nil {
			opts.Logger.Warn("static directory not found, client not served", "dir", opts.StaticDir)
		}
		return
	}

	app.Static("/", opts.StaticDir)

	index := filepath.Join(opts.StaticDir, "index.html")
	app.Get("/*", func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/") {
			return fiber.ErrNotFound
		}
		return c.SendFile(index)
	})
}
