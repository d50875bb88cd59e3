package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"freelance-market/internal/domain"
)

// Repos 聚合全部仓储；InTx 返回绑定到同一事务的副本
type Repos struct {
	db *gorm.DB

	Users        *UserRepo
	Profiles     *ProfileRepo
	Listings     *ListingRepo
	Ledgers      *LedgerRepo
	Transactions *TransactionRepo
	Reviews      *ReviewRepo
}

func New(db *gorm.DB) *Repos {
	return &Repos{
		db:           db,
		Users:        &UserRepo{db: db},
		Profiles:     &ProfileRepo{db: db},
		Listings:     &ListingRepo{db: db},
		Ledgers:      &LedgerRepo{db: db},
		Transactions: &TransactionRepo{db: db},
		Reviews:      &ReviewRepo{db: db},
	}
}

// txRetries sqlite 写锁冲突时整个事务的最大重试次数
const txRetries = 10

// InTx fn 返回错误则整体回滚；遇到 IsBusy 时回滚后重跑 fn，fn 需可重入
func (r *Repos) InTx(ctx context.Context, fn func(tx *Repos) error) error {
	for attempt := 1; ; attempt++ {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(New(tx))
		})
		if !IsBusy(err) || attempt >= txRetries {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt) * 5 * time.Millisecond):
		}
	}
}

// Models AutoMigrate 用的全部表
func Models() []any {
	return []any{
		&domain.User{},
		&domain.WorkerProfile{},
		&domain.Listing{},
		&domain.ListingResponse{},
		&domain.Ledger{},
		&domain.Transaction{},
		&domain.Review{},
	}
}

func Migrate(db *gorm.DB) error { return db.AutoMigrate(Models()...) }

func IsDupKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}

// IsBusy sqlite 的 SQLITE_BUSY：deferred 事务升级写锁时与另一个写事务冲突
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
