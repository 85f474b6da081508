package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"cv-builder/cv/render"
	googleauth "cv-builder/internal/auth"
	"cv-builder/internal/cvs"
	"cv-builder/internal/exports"
	"cv-builder/internal/sessions"
	"cv-builder/internal/shared/config"
	"cv-builder/internal/shared/server"
	"cv-builder/internal/shared/server/middleware"
	"cv-builder/internal/shared/storage/db"
	"cv-builder/internal/shared/storage/object"
	localstore "cv-builder/internal/shared/storage/object/local"
	s3store "cv-builder/internal/shared/storage/object/s3"
	"cv-builder/internal/shared/telemetry"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Store           object.ObjectStore
	Sessions        *sessions.Registry
	CVsRepo         cvs.Repo
	ExportsRepo     exports.Repo
	CVsService      *cvs.Service
	ExportsService  *exports.Service
	SessionsHandler *sessions.Handler
	CVsHandler      *cvs.Handler
	ExportsHandler  *exports.Handler
	GoogleAuth      *googleauth.GoogleService
}

// Build prepares dependencies and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	tpl, err := render.ParseTemplateID(cfg.DefaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_TEMPLATE: %w", err)
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		Store:    store,
		Sessions: sessions.NewRegistry(cfg.SessionTTL, tpl),
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		SessionsHandler: app.SessionsHandler,
		CVsHandler:      app.CVsHandler,
		ExportsHandler:  app.ExportsHandler,
		GoogleAuth:      app.GoogleAuth,
	})

	return app, nil
}

// Close releases the session registry and the database pool.
func (a *App) Close() {
	a.Sessions.Close()
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			_ = sqlDB.Close()
			err = fmt.Errorf("run migrations: %w", err)
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "database unavailable", "err": err})
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) {
	if app.DB != nil {
		app.CVsRepo = &cvs.PGRepo{DB: app.DB}
		app.ExportsRepo = &exports.PGRepo{DB: app.DB}
	} else {
		app.CVsRepo = cvs.NewMemoryRepo()
		app.ExportsRepo = exports.NewMemoryRepo()
	}

	app.CVsService = &cvs.Service{Repo: app.CVsRepo, Sessions: app.Sessions}
	app.ExportsService = &exports.Service{
		Repo:     app.ExportsRepo,
		Store:    app.Store,
		Sessions: app.Sessions,
		PDF:      exports.NewChromePDF(app.Config.ChromePath, app.Config.PDFTimeout),
	}

	app.SessionsHandler = sessions.NewHandler(app.Sessions)
	app.CVsHandler = cvs.NewHandler(app.CVsService)
	app.ExportsHandler = exports.NewHandler(app.ExportsService)
	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		claimGuestWork(app.Sessions, app.CVsService),
	)
}

// claimGuestWork moves a guest's open sessions and saved CVs to the account that just signed in.
func claimGuestWork(reg *sessions.Registry, cvSvc *cvs.Service) googleauth.LoginHook {
	return func(ctx context.Context, userID, guestID string) error {
		if guestID == "" {
			return nil
		}
		guestOwner := middleware.GuestPrefix + guestID
		moved := reg.Claim(guestOwner, userID)
		claimed, err := cvSvc.ClaimGuest(ctx, guestOwner, userID)
		if err != nil {
			return fmt.Errorf("claim guest cvs: %w", err)
		}
		telemetry.Info("auth.guest_claimed", map[string]any{
			"user_id":  userID,
			"guest_id": guestID,
			"sessions": moved,
			"cvs":      claimed,
		})
		return nil
	}
}
