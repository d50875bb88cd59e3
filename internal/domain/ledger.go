package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const TxStatusProcessing = "processing"

// Ledger 每个用户一条：可用余额 + 累计收入
type Ledger struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID      uint64          `gorm:"uniqueIndex;not null" json:"userId"`
	Balance     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"balance"`
	TotalEarned decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"totalEarned"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (Ledger) TableName() string { return "ledgers" }

// Transaction 提现记录，写入后不可变
type Transaction struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64          `gorm:"not null;index" json:"userId"`
	Amount    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Status    string          `gorm:"size:50;not null" json:"status"`
	CreatedAt time.Time       `gorm:"index" json:"createdAt"`
}

func (Transaction) TableName() string { return "transactions" }

type Summary struct {
	Balance      decimal.Decimal
	TotalEarned  decimal.Decimal
	Transactions []Transaction
}

// Review 每个 (listing, rater) 至多一条
type Review struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID uint64    `gorm:"not null;uniqueIndex:idx_review_listing_rater" json:"serviceId"`
	RaterID   uint64    `gorm:"not null;uniqueIndex:idx_review_listing_rater" json:"reviewerId"`
	RateeID   uint64    `gorm:"not null;index" json:"workerId"`
	Score     float64   `gorm:"not null" json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Review) TableName() string { return "reviews" }

const (
	MinScore = 0.5
	MaxScore = 5.0
)

type RatingSummary struct {
	Rating float64 `json:"rating"`
	Count  int64   `json:"count"`
}
