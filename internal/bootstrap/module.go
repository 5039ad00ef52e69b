package bootstrap

import (
	"context"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"qualtrack/internal/bootstrap/config"
	"qualtrack/internal/bootstrap/database"
	"qualtrack/internal/bootstrap/logging"
	domainqual "qualtrack/internal/domain/qualification"
	"qualtrack/internal/errs"
	blobinfra "qualtrack/internal/infrastructure/blob"
	cacheinfra "qualtrack/internal/infrastructure/cache"
	eventsinfra "qualtrack/internal/infrastructure/events"
	rdbrepo "qualtrack/internal/infrastructure/persistence/rdb/repository"
	rdbuow "qualtrack/internal/infrastructure/persistence/rdb/uow"
	"qualtrack/internal/ports"
	"qualtrack/internal/usecase/qualification"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			rdbrepo.NewQualificationRepository,
			fx.As(new(ports.QualificationRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			rdbuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(provideCache),
	fx.Provide(provideBlobStore),
	fx.Provide(provideStatusPublisher),
	fx.Provide(provideTagScheme),
	fx.Provide(provideQualificationService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

// provideCache returns nil for the none backend; the service then skips caching.
func provideCache(lc fx.Lifecycle, ctx context.Context, cfg config.Config, db *gorm.DB) (ports.Cache, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	switch strings.ToLower(cfg.Cache.Backend) {
	case "none":
		logging.Info(logCtx, "summary cache disabled")
		return nil, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, errs.Wrap(err, "ping redis")
		}
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error { return client.Close() },
		})
		logging.Info(logCtx, "summary cache on redis", slog.String("addr", cfg.Cache.Redis.Addr))
		return cacheinfra.NewRedisCache(client, cfg.Cache.Redis.KeyPrefix), nil
	default:
		return cacheinfra.NewDBCache(db), nil
	}
}

func provideBlobStore(ctx context.Context, cfg config.Config, db *gorm.DB) (ports.BlobStore, error) {
	if strings.ToLower(cfg.Attachments.Backend) != "minio" {
		return blobinfra.NewDBStore(db), nil
	}

	m := cfg.Attachments.Minio
	store, err := blobinfra.NewMinioStore(blobinfra.MinioConfig{
		Endpoint:  m.Endpoint,
		AccessKey: m.AccessKey,
		SecretKey: m.SecretKey,
		Bucket:    m.Bucket,
		UseSSL:    m.UseSSL,
		Prefix:    m.Prefix,
	})
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	logging.Info(logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx")),
		"attachments on minio", slog.String("endpoint", m.Endpoint), slog.String("bucket", m.Bucket))
	return store, nil
}

func provideStatusPublisher(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (ports.StatusPublisher, error) {
	if strings.ToLower(cfg.Events.Backend) != "nats" {
		return eventsinfra.NoopPublisher{}, nil
	}

	publisher, err := eventsinfra.NewNATSPublisher(cfg.Events.NATS.URL, cfg.Events.NATS.Subject)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error { return publisher.Close() },
	})
	logging.Info(logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx")),
		"status changes published to nats", slog.String("url", cfg.Events.NATS.URL))
	return publisher, nil
}

func provideTagScheme(cfg config.Config) (domainqual.TagScheme, error) {
	return qualification.LoadTagScheme(cfg.Tagging.SchemeFile)
}

func provideQualificationService(
	cfg config.Config,
	repo ports.QualificationRepository,
	uow ports.UnitOfWork,
	cache ports.Cache,
	blobs ports.BlobStore,
	publisher ports.StatusPublisher,
	scheme domainqual.TagScheme,
) *qualification.Service {
	return qualification.NewService(repo, uow,
		qualification.WithCache(cache),
		qualification.WithBlobStore(blobs),
		qualification.WithStatusPublisher(publisher),
		qualification.WithTagScheme(scheme),
		qualification.WithMaxAttachmentBytes(cfg.Attachments.MaxBytes),
		qualification.WithAuditDefaultLimit(cfg.Audit.DefaultLimit),
		qualification.WithSummaryTTL(cfg.Cache.SummaryTTL),
	)
}
