package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/arena-client/internal/entity"
	"github.com/rocketscienceinc/arena-client/internal/replay"
	"github.com/rocketscienceinc/arena-client/internal/repository"
)

type ReplayUseCase interface {
	Load(ctx context.Context, matchID string) (*replay.Subject, error)
}

type matchCacheDep interface {
	Save(ctx context.Context, record *entity.MatchRecord, ttl time.Duration) error
	GetByID(ctx context.Context, id string) (*entity.MatchRecord, error)
	DeleteByID(ctx context.Context, id string) error
}

type matchSourceDep interface {
	FetchMatch(ctx context.Context, matchID string) (*entity.MatchRecord, error)
}

type replayUseCase struct {
	logger     *slog.Logger
	cache      matchCacheDep
	source     matchSourceDep
	cacheTTL   time.Duration
	firstMover entity.CellValue
}

// NewReplayUseCase builds the loader. cache may be nil when no cache is configured.
func NewReplayUseCase(logger *slog.Logger, cache matchCacheDep, source matchSourceDep, cacheTTL time.Duration, firstMover entity.CellValue) ReplayUseCase {
	if !firstMover.IsPlayer() {
		firstMover = entity.PlayerA
	}

	return &replayUseCase{
		logger:     logger.With("component", "replay_usecase"),
		cache:      cache,
		source:     source,
		cacheTTL:   cacheTTL,
		firstMover: firstMover,
	}
}

// Load reads the match from the cache, falling back to the API. Cache failures only cost a
// round trip and are logged. A cached record that no longer builds a replay is evicted.
func (that *replayUseCase) Load(ctx context.Context, matchID string) (*replay.Subject, error) {
	log := that.logger.With("method", "Load", "matchID", matchID)

	if record := that.cached(ctx, log, matchID); record != nil {
		subject, err := replay.NewSubject(record, that.firstMover)
		if err == nil {
			return subject, nil
		}

		log.Warn("evicting unusable cached match", "error", err)
		that.evict(ctx, log, matchID)
	}

	record, err := that.source.FetchMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("could not fetch match %s: %w", matchID, err)
	}

	subject, err := replay.NewSubject(record, that.firstMover)
	if err != nil {
		return nil, fmt.Errorf("could not load replay: %w", err)
	}

	that.store(ctx, log, record)

	if !subject.HasData() {
		log.Info("match has no move data")
	}

	return subject, nil
}

func (that *replayUseCase) cached(ctx context.Context, log *slog.Logger, matchID string) *entity.MatchRecord {
	if that.cache == nil {
		return nil
	}

	record, err := that.cache.GetByID(ctx, matchID)
	if err != nil {
		if !errors.Is(err, repository.ErrMatchNotFound) {
			log.Warn("failed to read match cache", "error", err)
		}
		return nil
	}

	log.Debug("match loaded from cache")

	return record
}

func (that *replayUseCase) store(ctx context.Context, log *slog.Logger, record *entity.MatchRecord) {
	if that.cache == nil {
		return
	}

	if record.ID == "" {
		log.Warn("match without id is not cached")
		return
	}

	if err := that.cache.Save(ctx, record, that.cacheTTL); err != nil {
		log.Warn("failed to write match cache", "error", err)
	}
}

func (that *replayUseCase) evict(ctx context.Context, log *slog.Logger, matchID string) {
	if err := that.cache.DeleteByID(ctx, matchID); err != nil {
		log.Warn("failed to evict cached match", "error", err)
	}
}
