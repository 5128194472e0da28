package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appAuth "github.com/uniadmit/admission/internal/app/auth"
	appControllers "github.com/uniadmit/admission/internal/app/controllers"
	appMigrations "github.com/uniadmit/admission/internal/app/migrations"
	appRepos "github.com/uniadmit/admission/internal/app/repositories"
	appRoutes "github.com/uniadmit/admission/internal/app/routes"
	appServices "github.com/uniadmit/admission/internal/app/services"
	"github.com/uniadmit/admission/internal/config"
	"github.com/uniadmit/admission/internal/db"
	appMiddleware "github.com/uniadmit/admission/internal/middleware"
	pkgAuth "github.com/uniadmit/admission/internal/pkg/auth"
	"github.com/uniadmit/admission/internal/pkg/document"
	"github.com/uniadmit/admission/internal/pkg/email"
	"github.com/uniadmit/admission/internal/pkg/filestorage"
	"github.com/uniadmit/admission/internal/pkg/helpers"
	"github.com/uniadmit/admission/internal/pkg/logger"
	"github.com/uniadmit/admission/internal/pkg/offerletter"
	"github.com/uniadmit/admission/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService             *appServices.AuthService
	ApplicationService      appServices.ApplicationService
	ReviewService           appServices.ReviewService
	AdminApplicationService appServices.AdminApplicationService
	DocumentService         appServices.DocumentService
	OfferLetterService      appServices.OfferLetterService
	StatsService            appServices.StatsService
	UserService             appServices.UserService
	Controllers             appRoutes.Controllers
	AuthMiddleware          *appMiddleware.AuthMiddleware
	Repos                   *appRepos.Repositories
	JWTService              *pkgAuth.JWTService
	AuthzService            *appAuth.AuthorizationService
	Logger                  zerolog.Logger
	FileStorage             *filestorage.LocalStorage
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: cfg.Logging.Format == "text",
	})
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and seeds
// the default roles and admin.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrationsDir := cfg.Server.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		dbPool.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	migrator := appMigrations.NewMigrator(dbPool, lgr)
	if err := migrator.MigrateFromDirectory(context.Background(), migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		dbPool.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	admin := seed.AdminAccount{
		Name:     cfg.Admin.Name,
		Email:    cfg.Admin.Email,
		Phone:    cfg.Admin.Phone,
		Password: cfg.Admin.Password,
		Address:  cfg.Admin.Address,
		Country:  cfg.Admin.Country,
		State:    cfg.Admin.State,
		District: cfg.Admin.District,
		Pincode:  cfg.Admin.Pincode,
	}
	if err := seed.CreateDefaultData(context.Background(), appRepos.NewUserRepository(dbPool), pkgAuth.BcryptHasher{}, admin, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos.UserRepository)
	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 24*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	if !cfg.SMTPConfigured() {
		lgr.Warn().Msg("SMTP is not configured; decision emails will only be logged")
	}
	notifier := email.NewSMTPNotifier(email.SMTPConfig{
		Host:          cfg.SMTP.Host,
		Port:          cfg.SMTP.Port,
		Username:      cfg.SMTP.Username,
		Password:      cfg.SMTP.Password,
		FromName:      cfg.SMTP.FromName,
		FromEmail:     cfg.SMTP.FromEmail,
		SkipTLSVerify: cfg.SMTP.SkipTLSVerify,
		BaseURL:       cfg.Server.BaseURL,
	}, lgr)

	codec := document.NewCodec(document.Limits{
		MaxEncodedBytes: cfg.Documents.MaxEncodedBytes,
		MaxDecodedBytes: cfg.Documents.MaxDecodedBytes,
		MinDecodedBytes: cfg.Documents.MinDecodedBytes,
	})
	hasher := pkgAuth.BcryptHasher{}
	users := deps.Repos.UserRepository
	apps := deps.Repos.ApplicationRepository

	deps.AuthService = appServices.NewAuthService(users, apps, deps.JWTService, hasher, lgr)
	deps.ApplicationService = appServices.NewApplicationService(apps, users, codec, lgr)
	deps.ReviewService = appServices.NewReviewService(apps, notifier, deps.FileStorage, appServices.ReviewOptions{
		StrictTransitions: cfg.Review.StrictTransitions,
	}, lgr)
	deps.AdminApplicationService = appServices.NewAdminApplicationService(apps, lgr)
	deps.DocumentService = appServices.NewDocumentService(apps, lgr)
	deps.OfferLetterService = appServices.NewOfferLetterService(apps, deps.FileStorage, offerletter.DefaultInstitution, lgr)
	deps.StatsService = appServices.NewStatsService(apps, users, dbPool, lgr)
	deps.UserService = appServices.NewUserService(users, hasher, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.AuthzService)

	deps.Controllers = appRoutes.Controllers{
		Auth:             appControllers.NewAuthController(deps.AuthService, lgr),
		Application:      appControllers.NewApplicationController(deps.ApplicationService, deps.DocumentService, deps.OfferLetterService, lgr),
		AdminApplication: appControllers.NewAdminApplicationController(deps.AdminApplicationService, deps.ReviewService, deps.DocumentService, lgr),
		AdminUser:        appControllers.NewAdminUserController(deps.UserService, lgr),
		Stats:            appControllers.NewStatsController(deps.StatsService, lgr),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	appMiddleware.RegisterValidators()

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.RequestLogger(lgr),
		appMiddleware.BodyLimit(cfg.Server.MaxRequestBytes),
	)

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	return router
}
