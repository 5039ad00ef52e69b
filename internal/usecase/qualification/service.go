package qualification

import (
	"context"
	"log/slog"
	"time"

	"qualtrack/internal/bootstrap/logging"
	domainqual "qualtrack/internal/domain/qualification"
	"qualtrack/internal/errs"
	"qualtrack/internal/ports"
)

const (
	DefaultMaxAttachmentBytes int64 = 5 * 1024 * 1024
	DefaultAuditLimit               = 50
	MaxAuditLimit                   = 500

	defaultActor      = "System"
	summaryCacheKey   = "dashboard:summary"
	defaultSummaryTTL = 5 * time.Minute
)

type Service struct {
	repo               ports.QualificationRepository
	uow                ports.UnitOfWork
	cache              ports.Cache
	blobs              ports.BlobStore
	publisher          ports.StatusPublisher
	tagScheme          domainqual.TagScheme
	maxAttachmentBytes int64
	auditLimit         int
	summaryTTL         time.Duration
	now                func() time.Time
}

type Option func(*Service)

func WithCache(cache ports.Cache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithBlobStore(blobs ports.BlobStore) Option {
	return func(s *Service) { s.blobs = blobs }
}

func WithStatusPublisher(publisher ports.StatusPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithTagScheme(scheme domainqual.TagScheme) Option {
	return func(s *Service) { s.tagScheme = scheme }
}

func WithMaxAttachmentBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttachmentBytes = n
		}
	}
}

func WithAuditDefaultLimit(n int) Option {
	return func(s *Service) {
		if n > 0 && n <= MaxAuditLimit {
			s.auditLimit = n
		}
	}
}

func WithSummaryTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.summaryTTL = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires qualification usecases with repository, transaction boundary and optional adapters.
func NewService(repo ports.QualificationRepository, uow ports.UnitOfWork, opts ...Option) *Service {
	s := &Service{
		repo:               repo,
		uow:                uow,
		maxAttachmentBytes: DefaultMaxAttachmentBytes,
		auditLimit:         DefaultAuditLimit,
		summaryTTL:         defaultSummaryTTL,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) nowUTCString() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// afterCommit runs best-effort side effects of a committed mutation.
func (s *Service) afterCommit(ctx context.Context, change *ports.StatusChange) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "qualification"))

	if s.cache != nil {
		if err := s.cache.Delete(ctx, summaryCacheKey); err != nil {
			logging.Warn(logCtx, "invalidate summary cache failed", slog.Any("err", errs.Loggable(err)))
		}
	}
	if change == nil || change.From == change.To || s.publisher == nil {
		return
	}
	if err := s.publisher.PublishStatusChange(ctx, *change); err != nil {
		logging.Warn(logCtx, "publish status change failed",
			slog.Any("err", errs.Loggable(err)),
			slog.Uint64("equipment_id", change.EquipmentID),
			slog.String("to", change.To),
		)
	}
}
