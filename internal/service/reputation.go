package service

import (
	"context"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	"freelance-market/internal/core/cache"
	"freelance-market/internal/domain"
	"freelance-market/internal/repo"
)

type ReputationService struct {
	repos *repo.Repos
	cache *cache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

// NewReputationService c 可以为 nil（不启用缓存）
func NewReputationService(repos *repo.Repos, c *cache.Cache, ttl time.Duration, l *zap.Logger) *ReputationService {
	return &ReputationService{repos: repos, cache: c, ttl: ttl, log: l}
}

func ratingKey(uid uint64) string { return "rating:" + strconv.FormatUint(uid, 10) }

// Record 在调用方事务内写入；同一 (listing, rater) 只允许一条
func (s *ReputationService) Record(ctx context.Context, tx *repo.Repos, rv *domain.Review) error {
	if rv.Score < domain.MinScore || rv.Score > domain.MaxScore {
		return domain.Validation("rating must be between 0.5 and 5")
	}
	exists, err := tx.Reviews.Exists(ctx, rv.ListingID, rv.RaterID)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrDuplicateRating
	}
	if err := tx.Reviews.Create(ctx, rv); err != nil {
		if repo.IsDupKey(err) {
			return domain.ErrDuplicateRating
		}
		return err
	}
	return nil
}

func (s *ReputationService) HasRated(ctx context.Context, listingID, raterID uint64) (bool, error) {
	return s.repos.Reviews.Exists(ctx, listingID, raterID)
}

// AverageFor 均值保留一位小数；没有评价时返回 (0, 0)
func (s *ReputationService) AverageFor(ctx context.Context, uid uint64) (domain.RatingSummary, error) {
	out, err := cache.GetOrLoadJSON(s.cache, ctx, ratingKey(uid), s.ttl, func(ctx context.Context) (*domain.RatingSummary, error) {
		count, total, err := s.repos.Reviews.Aggregate(ctx, uid)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return &domain.RatingSummary{}, nil
		}
		return &domain.RatingSummary{Rating: round1(total / float64(count)), Count: count}, nil
	})
	if err != nil {
		return domain.RatingSummary{}, err
	}
	return *out, nil
}

func (s *ReputationService) Invalidate(ctx context.Context, uids ...uint64) {
	keys := make([]string, 0, len(uids))
	for _, id := range uids {
		keys = append(keys, ratingKey(id))
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.log.Warn("rating cache invalidate failed", zap.Error(err))
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
