package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"freelance-market/internal/domain"
)

type ProfileRepo struct{ db *gorm.DB }

func (r *ProfileRepo) FindByUser(ctx context.Context, userID uint64) (*domain.WorkerProfile, error) {
	var p domain.WorkerProfile
	err := r.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &p, err
}

// Save 按主键插入或整行更新
func (r *ProfileRepo) Save(ctx context.Context, p *domain.WorkerProfile) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *ProfileRepo) DeleteByUser(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.WorkerProfile{}).Error
}
