package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/alumnisphere/internal/app/auth"
	appControllers "github.com/yigit/alumnisphere/internal/app/controllers"
	appMigrations "github.com/yigit/alumnisphere/internal/app/migrations"
	"github.com/yigit/alumnisphere/internal/app/models"
	appRepos "github.com/yigit/alumnisphere/internal/app/repositories"
	appRoutes "github.com/yigit/alumnisphere/internal/app/routes"
	appServices "github.com/yigit/alumnisphere/internal/app/services"
	"github.com/yigit/alumnisphere/internal/config"
	"github.com/yigit/alumnisphere/internal/db"
	appMiddleware "github.com/yigit/alumnisphere/internal/middleware"
	pkgAuth "github.com/yigit/alumnisphere/internal/pkg/auth"
	"github.com/yigit/alumnisphere/internal/pkg/email"
	"github.com/yigit/alumnisphere/internal/pkg/filestorage"
	"github.com/yigit/alumnisphere/internal/pkg/helpers"
	"github.com/yigit/alumnisphere/internal/pkg/logger"
	"github.com/yigit/alumnisphere/internal/pkg/validation"
	"github.com/yigit/alumnisphere/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos        *appRepos.Repositories
	JWTService   *pkgAuth.JWTService
	AuthzService *appAuth.AuthorizationService
	EmailService email.EmailService
	FileStorage  filestorage.FileStorage

	AuthService         *appServices.AuthService
	UserService         *appServices.UserService
	AlumniService       appServices.AlumniService
	AcademicUnitService *appServices.AcademicUnitService
	ContactService      *appServices.ContactService
	SettingsService     *appServices.SettingsService

	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	Logger         zerolog.Logger
}

// Databases are the connections opened at startup. Mongo is nil unless the
// alumni store is MongoDB.
type Databases struct {
	Postgres *db.PostgresDB
	Mongo    *db.MongoDB
}

// Close releases every open connection
func (d *Databases) Close(ctx context.Context) error {
	var err error
	if d.Mongo != nil {
		err = d.Mongo.Close(ctx)
	}
	if d.Postgres != nil {
		d.Postgres.Close()
	}
	return err
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := config.GetEnv("CONFIG_PATH", filepath.Join("configs", "config.yaml"))
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase connects to PostgreSQL (and MongoDB when it holds the alumni
// records), runs migrations and creates the default data.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*Databases, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbs := &Databases{Postgres: database}

	lgr.Info().Msg("Running database migrations...")
	migrationsDir := cfg.Database.MigrationsPath
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		dbs.Close(ctx) //nolint:errcheck
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	migrator := appMigrations.NewMigrator(database.Pool, lgr)
	applied, err := migrator.MigrateFromDirectory(ctx, migrationsDir)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		dbs.Close(ctx) //nolint:errcheck
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Int("applied", applied).Msg("Database migrations successfully applied.")

	if cfg.Alumni.Store == config.AlumniStoreMongo {
		lgr.Info().Msg("Connecting to MongoDB for alumni records...")
		mongoDB, err := db.NewMongoDB(cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to MongoDB")
			dbs.Close(ctx) //nolint:errcheck
			return nil, err
		}
		dbs.Mongo = mongoDB
	}

	if cfg.Seed.Enabled {
		admin := seed.Admin{
			Name:     cfg.Seed.AdminName,
			Email:    cfg.Seed.AdminEmail,
			Password: cfg.Seed.AdminPassword,
		}
		err := seed.CreateDefaultData(ctx,
			appRepos.NewAcademicUnitRepository(database.Pool),
			appRepos.NewUserRepository(database.Pool),
			admin, lgr)
		if err != nil {
			// startup continues; seeding is best effort
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	return dbs, nil
}

// NewFileStorage builds the configured upload backend
func NewFileStorage(cfg *config.Config) (filestorage.FileStorage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverSupabase:
		return filestorage.NewSupabaseStorage(filestorage.SupabaseConfig{
			URL:    cfg.Storage.Supabase.URL,
			Key:    cfg.Storage.Supabase.Key,
			Bucket: cfg.Storage.Supabase.Bucket,
		}, nil), nil
	default:
		// must match the static file serving path in the server
		baseURL := strings.TrimRight(cfg.Server.PublicURL, "/") + "/uploads"
		return filestorage.NewLocalStorage(cfg.Server.StoragePath, baseURL)
	}
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbs *Databases, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}
	pool := dbs.Postgres.Pool

	var alumniRepo appRepos.AlumniRepository
	if dbs.Mongo != nil {
		mongoRepo := appRepos.NewMongoAlumniRepository(dbs.Mongo.Database)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			lgr.Error().Err(err).Msg("Failed to create alumni indexes")
			return nil, fmt.Errorf("failed to create alumni indexes: %w", err)
		}
		alumniRepo = mongoRepo
	}
	deps.Repos = appRepos.NewRepositories(pool, alumniRepo)

	var err error
	deps.FileStorage, err = NewFileStorage(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})
	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos.UserRepository)
	deps.EmailService = email.NewEmailService(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
	}, lgr.With().Str("component", "email").Logger())

	deps.AuthService = appServices.NewAuthService(
		deps.Repos.UserRepository,
		deps.Repos.TokenRepository,
		deps.Repos.PasswordResetTokenRepository,
		deps.JWTService,
		deps.EmailService,
		appServices.AuthOptions{
			DefaultRole:      models.RoleType(cfg.Auth.DefaultRole),
			ResetTokenTTL:    helpers.ParseDuration(cfg.Auth.ResetTokenTTL, time.Hour),
			FrontendResetURL: cfg.Auth.FrontendResetURL,
		},
		lgr,
	)
	deps.UserService = appServices.NewUserService(
		deps.Repos.UserRepository,
		deps.Repos.TokenRepository,
		deps.FileStorage,
		cfg.MaxUploadBytes(),
		lgr,
	)
	deps.AlumniService = appServices.NewAlumniService(
		deps.Repos.AlumniRepository,
		deps.FileStorage,
		deps.Repos.AcademicUnitRepository,
		appServices.AlumniOptions{
			StrictValidation: cfg.Alumni.StrictValidation,
			StrictNestedJSON: cfg.Alumni.StrictNestedJSON,
			MaxUploadBytes:   cfg.MaxUploadBytes(),
			UploadFolder:     cfg.Alumni.UploadFolder,
		},
		lgr.With().Str("component", "alumni").Logger(),
	)
	deps.AcademicUnitService = appServices.NewAcademicUnitService(deps.Repos.AcademicUnitRepository, lgr)
	deps.ContactService = appServices.NewContactService(deps.Repos.ContactMessageRepository, deps.EmailService, lgr)
	deps.SettingsService = appServices.NewSettingsService(deps.Repos.SettingsRepository, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.AuthzService)

	checks := map[string]appControllers.Pinger{"postgres": dbs.Postgres}
	if dbs.Mongo != nil {
		checks["mongodb"] = dbs.Mongo
	}

	deps.Controllers = appRoutes.Controllers{
		Auth:         appControllers.NewAuthController(deps.AuthService, lgr),
		User:         appControllers.NewUserController(deps.UserService),
		Alumni:       appControllers.NewAlumniController(deps.AlumniService),
		AcademicUnit: appControllers.NewAcademicUnitController(deps.AcademicUnitService),
		Contact:      appControllers.NewContactController(deps.ContactService),
		Settings:     appControllers.NewSettingsController(deps.SettingsService),
		Health:       appControllers.NewHealthController(checks),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	validation.RegisterWithGin()
	appMiddleware.ExposeInternalErrors(cfg.IsDevelopment())

	router := gin.New()
	router.MaxMultipartMemory = 32 << 20
	router.Use(
		appMiddleware.RequestLogger(lgr),
		appMiddleware.Recovery(lgr),
		appMiddleware.CORS(cfg.Server.CORSOrigins),
	)

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
