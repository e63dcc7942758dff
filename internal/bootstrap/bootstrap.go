package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appControllers "github.com/sparks-2204/course-recommendation-system/internal/app/controllers"
	appMigrations "github.com/sparks-2204/course-recommendation-system/internal/app/migrations"
	appRepos "github.com/sparks-2204/course-recommendation-system/internal/app/repositories"
	"github.com/sparks-2204/course-recommendation-system/internal/app/repositories/memory"
	appRoutes "github.com/sparks-2204/course-recommendation-system/internal/app/routes"
	appServices "github.com/sparks-2204/course-recommendation-system/internal/app/services"
	"github.com/sparks-2204/course-recommendation-system/internal/config"
	"github.com/sparks-2204/course-recommendation-system/internal/db"
	appMiddleware "github.com/sparks-2204/course-recommendation-system/internal/middleware"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/alerting"
	pkgAuth "github.com/sparks-2204/course-recommendation-system/internal/pkg/auth"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/helpers"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/logger"
	"github.com/sparks-2204/course-recommendation-system/internal/seed"
)

// DefaultConfigPath is used when CONFIG_PATH is not set
var DefaultConfigPath = filepath.Join("configs", "config.yaml")

// Storage is the selected persistence backend
type Storage struct {
	Driver string
	Repos  *appRepos.Repositories
	// Ping is nil for the in-memory driver
	Ping  func(ctx context.Context) error
	Close func()
}

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService           appServices.AuthService
	CourseService         appServices.CourseService
	RegistrationService   appServices.RegistrationService
	RecommendationService appServices.RecommendationService
	AnalyticsService      appServices.AnalyticsService
	UserService           appServices.UserService

	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware

	Repos      *appRepos.Repositories
	JWTService *pkgAuth.JWTService
	Alerter    alerting.Alerter
	Logger     zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.Config{
		Level:   logger.ParseLevel(cfg.Logging.Level),
		Pretty:  cfg.Logging.Format == "text",
		Service: cfg.Telemetry.ServiceName,
	})
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStorage opens the configured backend. For PostgreSQL it also applies
// pending migrations.
func SetupStorage(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*Storage, error) {
	if cfg.Database.Driver == config.DriverMemory {
		lgr.Warn().Msg("Using in-memory storage; data is lost on restart")
		return &Storage{
			Driver: config.DriverMemory,
			Repos:  memory.NewRepositories(memory.NewStore()),
			Close:  func() {},
		}, nil
	}

	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	lgr.Info().Msg("Running database migrations...")
	migrationsDir := cfg.Server.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		database.Close()
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	migrator := appMigrations.NewMigrator(database.Pool, lgr)
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return &Storage{
		Driver: config.DriverPostgres,
		Repos:  appRepos.NewRepositories(database),
		Ping:   database.Ping,
		Close:  database.Close,
	}, nil
}

// SeedDefaults creates the default admin and sample catalog. Failures are
// logged and do not stop startup.
func SeedDefaults(ctx context.Context, cfg *config.Config, repos *appRepos.Repositories, lgr zerolog.Logger) {
	opts := seed.Options{
		AdminEmail:    cfg.Seed.AdminEmail,
		AdminPassword: cfg.Seed.AdminPassword,
		SampleCourses: cfg.Seed.SampleCourses,
	}
	if err := seed.CreateDefaultData(ctx, repos, opts, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}
}

// BuildDependencies initializes application services and controllers.
func BuildDependencies(cfg *config.Config, storage *Storage, alerter alerting.Alerter, lgr zerolog.Logger) (*Dependencies, error) {
	if storage == nil || storage.Repos == nil {
		return nil, fmt.Errorf("storage is not initialized")
	}

	deps := &Dependencies{
		Repos:   storage.Repos,
		Alerter: alerter,
		Logger:  lgr,
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 24*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	repos := deps.Repos
	deps.AuthService = appServices.NewAuthService(repos.Users, deps.JWTService, lgr)
	deps.CourseService = appServices.NewCourseService(repos.Courses, lgr)
	deps.RegistrationService = appServices.NewRegistrationService(repos.Users, repos.Ledger, alerter, lgr)
	deps.RecommendationService = appServices.NewRecommendationService(repos.Users, repos.Courses, lgr)
	deps.AnalyticsService = appServices.NewAnalyticsService(repos, lgr)
	deps.UserService = appServices.NewUserService(repos.Users, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.Controllers = appRoutes.Controllers{
		Auth: appControllers.NewAuthController(deps.AuthService, lgr),
		Course: appControllers.NewCourseController(
			deps.CourseService,
			deps.RegistrationService,
			deps.RecommendationService,
		),
		Faculty: appControllers.NewFacultyController(
			deps.UserService,
			deps.CourseService,
			deps.AnalyticsService,
			deps.RecommendationService,
		),
		Admin: appControllers.NewAdminController(
			deps.CourseService,
			deps.RegistrationService,
			deps.AnalyticsService,
			deps.RecommendationService,
			lgr,
		),
		User:   appControllers.NewUserController(deps.UserService),
		Health: appControllers.NewHealthController(storage.Driver, storage.Ping),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	switch {
	case cfg.IsProduction():
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	case cfg.Server.Mode == gin.TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := appMiddleware.RegisterBindingRules(); err != nil {
		return nil, fmt.Errorf("failed to register validation rules: %w", err)
	}

	router := gin.New()
	router.Use(
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(lgr),
		appMiddleware.Recovery(lgr),
	)

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	return router, nil
}
