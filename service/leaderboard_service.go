package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/ByGamer01/DamnBruh/models"
)

// leaderboardCacheTTL keeps cached boards fresh enough that a settlement
// shows up within a minute.
const leaderboardCacheTTL = 60 * time.Second

// leaderboardService implements the LeaderboardService interface
type leaderboardService struct {
	uowFactory UnitOfWorkFactory
	cache      *redis.Client
}

// NewLeaderboardService creates a new leaderboard service. The cache
// client is optional; pass nil to query the database on every request.
func NewLeaderboardService(uowFactory UnitOfWorkFactory, cache *redis.Client) LeaderboardService {
	return &leaderboardService{
		uowFactory: uowFactory,
		cache:      cache,
	}
}

// periodSince maps a leaderboard period to its activity cutoff.
// all_time has no cutoff and returns nil.
func periodSince(period models.LeaderboardPeriod, now time.Time) *time.Time {
	var cutoff time.Time
	switch period {
	case models.PeriodDaily:
		cutoff = now.Add(-24 * time.Hour)
	case models.PeriodWeekly:
		cutoff = now.Add(-7 * 24 * time.Hour)
	case models.PeriodMonthly:
		cutoff = now.Add(-30 * 24 * time.Hour)
	default:
		return nil
	}
	return &cutoff
}

// GetLeaderboard returns ranked entries for the period, resolving the
// viewer's rank within the returned page when viewerPrivyID is non-empty
func (s *leaderboardService) GetLeaderboard(ctx context.Context, period models.LeaderboardPeriod, limit int, viewerPrivyID string) (*models.Leaderboard, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("%w: period %q is not allowed", models.ErrValidation, period)
	}

	board, err := s.rankedBoard(ctx, period, limit)
	if err != nil {
		return nil, err
	}

	if viewerPrivyID != "" {
		if err := s.resolveViewerRank(ctx, board, viewerPrivyID); err != nil {
			return nil, err
		}
	}

	return board, nil
}

// rankedBoard loads the ranked entries and player count, consulting the
// cache first when one is configured
func (s *leaderboardService) rankedBoard(ctx context.Context, period models.LeaderboardPeriod, limit int) (*models.Leaderboard, error) {
	cacheKey := fmt.Sprintf("leaderboard:%s:%d", period, limit)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var board models.Leaderboard
			if err := json.Unmarshal(cached, &board); err == nil {
				return &board, nil
			}
			logrus.WithField("key", cacheKey).Warn("Discarding unreadable cached leaderboard")
		} else if err != redis.Nil {
			logrus.WithError(err).Warn("Leaderboard cache read failed, falling back to database")
		}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	since := periodSince(period, time.Now().UTC())

	entries, err := uow.UserRepository().TopByWinnings(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard entries: %w", err)
	}

	for i, entry := range entries {
		entry.Rank = i + 1
	}

	totalPlayers, err := uow.UserRepository().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count players: %w", err)
	}

	board := &models.Leaderboard{
		Entries:      entries,
		TotalPlayers: totalPlayers,
	}

	if s.cache != nil {
		if payload, err := json.Marshal(board); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, leaderboardCacheTTL).Err(); err != nil {
				logrus.WithError(err).Warn("Leaderboard cache write failed")
			}
		}
	}

	return board, nil
}

// resolveViewerRank fills in UserRank when the viewer appears among the
// returned entries. Viewers outside the page keep a nil rank.
func (s *leaderboardService) resolveViewerRank(ctx context.Context, board *models.Leaderboard, viewerPrivyID string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	viewer, err := uow.UserRepository().GetByPrivyID(ctx, viewerPrivyID)
	if err != nil {
		return fmt.Errorf("failed to get viewer: %w", err)
	}
	if viewer == nil {
		return nil
	}

	for _, entry := range board.Entries {
		if entry.UserID == viewer.ID {
			rank := entry.Rank
			board.UserRank = &rank
			break
		}
	}

	return nil
}
