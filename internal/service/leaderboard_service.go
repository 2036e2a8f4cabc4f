package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lumina-school/lumina-api/internal/dto"
	"github.com/lumina-school/lumina-api/internal/repository"
)

// LeaderboardService serves the ranked view of an exam cohort, backed by a
// short-lived Redis cache. Only rows an admin has published appear; finalize
// writes results unpublished. A nil Redis client disables caching; every read
// then goes to the database.
type LeaderboardService interface {
	LeaderboardInvalidator
	Get(ctx context.Context, schoolID, examID uint) (dto.LeaderboardResponse, error)
}

type leaderboardService struct {
	results repository.ResultRepository
	exams   repository.ExamRepository
	cache   *redis.Client
	ttl     time.Duration
	logger  zerolog.Logger
	now     func() time.Time
}

// NewLeaderboardService constructs the leaderboard service.
func NewLeaderboardService(results repository.ResultRepository, exams repository.ExamRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) LeaderboardService {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &leaderboardService{
		results: results,
		exams:   exams,
		cache:   cache,
		ttl:     ttl,
		logger:  logger.With().Str("component", "leaderboard_service").Logger(),
		now:     time.Now,
	}
}

func leaderboardKey(schoolID, examID uint) string {
	return fmt.Sprintf("leaderboard:school:%d:exam:%d", schoolID, examID)
}

func (s *leaderboardService) Get(ctx context.Context, schoolID, examID uint) (dto.LeaderboardResponse, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, leaderboardKey(schoolID, examID)).Bytes()
		if err == nil {
			var response dto.LeaderboardResponse
			if err := json.Unmarshal(cached, &response); err == nil {
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("leaderboard cache read failed")
		}
	}

	if _, err := s.exams.GetByID(ctx, schoolID, examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LeaderboardResponse{}, ErrExamNotFound
		}
		return dto.LeaderboardResponse{}, err
	}

	results, err := s.results.ListPublishedByExam(ctx, schoolID, examID)
	if err != nil {
		return dto.LeaderboardResponse{}, err
	}

	response := dto.LeaderboardResponse{
		ExamID:      examID,
		Entries:     dto.NewLeaderboardEntries(results),
		GeneratedAt: s.now().UTC(),
	}

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, leaderboardKey(schoolID, examID), payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("leaderboard cache write failed")
			}
		}
	}

	return response, nil
}

// Invalidate drops the cached board after a finalize or review changes the
// cohort. Cache errors are logged and swallowed; the next read rebuilds.
func (s *leaderboardService) Invalidate(ctx context.Context, schoolID, examID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, leaderboardKey(schoolID, examID)).Err(); err != nil {
		s.logger.Warn().Err(err).
			Uint("exam_id", examID).
			Msg("leaderboard cache invalidation failed")
	}
}
