package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AhmeWagih/resume-analyzer/internal/artifacts"
	googleauth "github.com/AhmeWagih/resume-analyzer/internal/auth"
	"github.com/AhmeWagih/resume-analyzer/internal/queue"
	"github.com/AhmeWagih/resume-analyzer/internal/resumes"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/auth"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/config"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/server"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/server/middleware"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/db"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/kv"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/kv/memory"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/kv/sqlkv"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/object"
	localstore "github.com/AhmeWagih/resume-analyzer/internal/shared/storage/object/local"
	s3store "github.com/AhmeWagih/resume-analyzer/internal/shared/storage/object/s3"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/telemetry"
	"github.com/AhmeWagih/resume-analyzer/internal/users"
)

// App holds shared dependencies. Stores are constructed once here and
// injected; per-user Managers come from Registry.
type App struct {
	Config      config.Config
	Router      *gin.Engine
	DB          *sql.DB
	Records     kv.Store
	Artifacts   object.ObjectStore
	Queue       queue.Client
	Reporter    resumes.OrphanReporter
	Registry    *resumes.Registry
	Signer      *auth.Signer
	Revocations *auth.RevocationList
	UsersRepo   users.Repo
	UsersSvc    *users.Service
	GoogleAuth  *googleauth.GoogleService
}

// Build prepares dependencies and wires the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	cfg = withDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{Config: cfg}

	records, sqlDB, err := buildRecords(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Records = records
	app.DB = sqlDB
	app.Revocations = auth.NewSharedRevocationList(records)

	app.Artifacts, err = buildStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Queue, err = buildQueue(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Reporter = resumes.LogReporter{}
	if app.Queue != nil {
		app.Reporter = resumes.MultiReporter{resumes.LogReporter{}, resumes.NewQueueReporter(app.Queue)}
	}
	app.Registry = resumes.NewRegistry(app.Records, app.Artifacts, app.Reporter, cfg.BulkAbortAfter)

	app.Signer, err = auth.NewSigner(cfg.JWTSecret, auth.DefaultTTL)
	if err != nil {
		app.Close()
		return nil, err
	}

	if cfg.RecordStore == "postgres" && app.DB != nil {
		app.UsersRepo = &users.PGRepo{DB: app.DB}
	} else {
		app.UsersRepo = users.NewKVRepo(app.Records)
	}
	app.UsersSvc = users.NewService(app.UsersRepo)
	app.GoogleAuth = googleauth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.UIRedirectURL,
		app.Signer,
		app.UsersSvc,
	)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		Verifier:        app.Signer,
		Revocations:     app.Revocations,
		Registry:        app.Registry,
		ResumeHandler:   resumes.NewHandler(app.Registry, app.Artifacts),
		ArtifactHandler: artifacts.NewHandler(app.Artifacts),
		UserHandler:     users.NewHandler(app.UsersSvc),
		GoogleAuth:      app.GoogleAuth,
		Limiter:         middleware.NewRateLimiter(nil),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"record_store": cfg.RecordStore,
		"object_store": cfg.ObjectStoreType,
		"orphan_queue": app.Queue != nil,
	})
	return app, nil
}

// Close releases database handles.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func withDefaults(cfg config.Config) config.Config {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.Port) == "" {
		cfg.Port = "8080"
	}
	if strings.TrimSpace(cfg.RecordStore) == "" {
		cfg.RecordStore = "memory"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if cfg.SweeperMaxReceives == 0 {
		cfg.SweeperMaxReceives = 5
	}
	if cfg.JWTSecret == "" && cfg.Env != "production" {
		cfg.JWTSecret = config.DevJWTSecret
	}
	return cfg
}

func buildRecords(ctx context.Context, cfg config.Config) (kv.Store, *sql.DB, error) {
	switch cfg.RecordStore {
	case "postgres":
		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			return nil, nil, fmt.Errorf("connect record store: %w", err)
		}
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, nil, fmt.Errorf("migrate record store: %w", err)
		}
		return sqlkv.New(sqlDB, sqlkv.Postgres), sqlDB, nil
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		sqlDB, err := sqlkv.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return sqlkv.New(sqlDB, sqlkv.SQLite), sqlDB, nil
	case "memory":
		telemetry.Warn("bootstrap.memory_record_store", map[string]any{"env": cfg.Env})
		return memory.New(), nil, nil
	default:
		return nil, nil, errors.New("unknown record store " + cfg.RecordStore)
	}
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.OrphanQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.OrphanQueueURL)
}
