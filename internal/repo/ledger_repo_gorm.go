package repo

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"freelance-market/internal/domain"
)

type LedgerRepo struct{ db *gorm.DB }

func (r *LedgerRepo) FindByUser(ctx context.Context, uid uint64) (*domain.Ledger, error) {
	var l domain.Ledger
	err := r.db.WithContext(ctx).First(&l, "user_id = ?", uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &l, err
}

// Credit 不存在则先建零余额记录，再原子累加 balance 与 total_earned
func (r *LedgerRepo) Credit(ctx context.Context, uid uint64, amount decimal.Decimal) error {
	db := r.db.WithContext(ctx)
	seed := domain.Ledger{UserID: uid, Balance: decimal.Zero, TotalEarned: decimal.Zero}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&seed).Error; err != nil {
		return err
	}
	return db.Model(&domain.Ledger{}).Where("user_id = ?", uid).Updates(map[string]any{
		"balance":      gorm.Expr("balance + ?", amount),
		"total_earned": gorm.Expr("total_earned + ?", amount),
	}).Error
}

// Debit 余额不足时不更新任何行，返回 false
func (r *LedgerRepo) Debit(ctx context.Context, uid uint64, amount decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Ledger{}).
		Where("user_id = ? AND balance >= ?", uid, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	return res.RowsAffected > 0, res.Error
}

func (r *LedgerRepo) DeleteByUser(ctx context.Context, uid uint64) error {
	return r.db.WithContext(ctx).Where("user_id = ?", uid).Delete(&domain.Ledger{}).Error
}

type TransactionRepo struct{ db *gorm.DB }

func (r *TransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// ListByUser 新的在前
func (r *TransactionRepo) ListByUser(ctx context.Context, uid uint64) ([]domain.Transaction, error) {
	var ts []domain.Transaction
	err := r.db.WithContext(ctx).Where("user_id = ?", uid).
		Order("created_at desc").Order("id desc").Find(&ts).Error
	return ts, err
}

func (r *TransactionRepo) DeleteByUser(ctx context.Context, uid uint64) error {
	return r.db.WithContext(ctx).Where("user_id = ?", uid).Delete(&domain.Transaction{}).Error
}
