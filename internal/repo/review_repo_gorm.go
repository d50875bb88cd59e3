package repo

import (
	"context"

	"gorm.io/gorm"

	"freelance-market/internal/domain"
)

type ReviewRepo struct{ db *gorm.DB }

func (r *ReviewRepo) Exists(ctx context.Context, listingID, raterID uint64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Review{}).
		Where("listing_id = ? AND rater_id = ?", listingID, raterID).Count(&n).Error
	return n > 0, err
}

func (r *ReviewRepo) Create(ctx context.Context, rv *domain.Review) error {
	return r.db.WithContext(ctx).Create(rv).Error
}

// Aggregate 返回被评者的评分条数与总分
func (r *ReviewRepo) Aggregate(ctx context.Context, rateeID uint64) (count int64, total float64, err error) {
	var row struct {
		Count int64
		Total float64
	}
	err = r.db.WithContext(ctx).Model(&domain.Review{}).
		Select("COUNT(*) AS count, COALESCE(SUM(score), 0) AS total").
		Where("ratee_id = ?", rateeID).Scan(&row).Error
	return row.Count, row.Total, err
}

// RateesOf 删除前收集受影响的被评者，用于清缓存
func (r *ReviewRepo) RateesOf(ctx context.Context, uid uint64, listingIDs []uint64) ([]uint64, error) {
	var ids []uint64
	q := r.db.WithContext(ctx).Model(&domain.Review{}).Distinct().Where("rater_id = ?", uid)
	if len(listingIDs) > 0 {
		q = q.Or("listing_id IN ?", listingIDs)
	}
	err := q.Pluck("ratee_id", &ids).Error
	return ids, err
}

// DeleteByUser 删除作为评价人或被评人的全部记录，以及指定订单下的记录
func (r *ReviewRepo) DeleteByUser(ctx context.Context, uid uint64, listingIDs []uint64) error {
	q := r.db.WithContext(ctx).Where("rater_id = ? OR ratee_id = ?", uid, uid)
	if len(listingIDs) > 0 {
		q = q.Or("listing_id IN ?", listingIDs)
	}
	return q.Delete(&domain.Review{}).Error
}
