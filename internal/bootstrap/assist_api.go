package bootstrap

import (
	"strings"

	"assist_server/adapter/in/http"
	"assist_server/config"
	"assist_server/infra/middleware"
	"assist_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	logLevel := logger.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = logger.LevelDebug
	}
	logger.Init(logger.Config{
		Level:   logLevel,
		Service: "assistify-api",
	})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		StrictRouting:         false,
		CaseSensitive:         false,

		// go-json over encoding/json
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		BodyLimit:       1 * 1024 * 1024,
		ReadBufferSize:  16384,
		WriteBufferSize: 16384,
	})

	// Order matters: recovery wraps everything, request IDs must exist
	// before the logger reads them.
	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())

	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	allowCredentials := true
	if allowOrigins == "" || allowOrigins == "*" {
		if cfg.IsProduction() {
			allowOrigins = ""
			allowCredentials = false
		} else {
			allowOrigins = "http://localhost:3000,http://localhost:5173"
		}
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,X-Request-ID",
		ExposeHeaders:    "X-Request-ID",
		AllowCredentials: allowCredentials,
		MaxAge:           86400,
	}))

	healthHandler := http.NewHealthHandler(deps.SQLDB, deps.Redis, deps.Metrics)
	healthHandler.Register(app)

	api := app.Group("/api/v1")

	assistHandler := http.NewAssistHandler(deps.AssistService, deps.Producer)
	assistHandler.Register(api)

	if deps.TemplateRepo != nil {
		templateHandler := http.NewTemplateHandler(deps.TemplateRepo)
		templateHandler.Register(api)
	}

	logger.Info("API server initialized")

	return app, cleanup, nil
}
