package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusAssigned  Status = "assigned"
	StatusCompleted Status = "completed"
)

func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusOpen, StatusAssigned, StatusCompleted:
		return st, true
	}
	return "", false
}

// HasWorker 对应状态是否要求 worker_id 非空
func (s Status) HasWorker() bool { return s == StatusAssigned || s == StatusCompleted }

// MaxPrice price 列 decimal(14,2) 的上界（不含）
var MaxPrice = decimal.New(1, 12)

type Listing struct {
	ID             uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Title          string          `gorm:"size:100;not null" json:"serviceTitle"`
	Description    string          `gorm:"type:text" json:"description"`
	Price          decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"price"`
	Duration       int             `json:"duration"`
	Skills         string          `gorm:"size:255" json:"skills"`
	Category       string          `gorm:"size:50;index" json:"category"`
	ImagePath      string          `gorm:"size:255" json:"imagePath"`
	FreelancerName string          `gorm:"size:100" json:"freelancerName"`
	Responses      string          `gorm:"type:text" json:"responses"`
	ResponseCount  int             `gorm:"not null;default:0" json:"reviews"`
	Status         Status          `gorm:"size:16;not null;default:open;index" json:"status"`
	RequesterID    uint64          `gorm:"not null;index" json:"userId"`
	WorkerID       *uint64         `gorm:"index" json:"freelancerId"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (Listing) TableName() string { return "listings" }

// ListingResponse 结构化的响应记录；listings.responses 由它派生
type ListingResponse struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	ListingID     uint64    `gorm:"not null;uniqueIndex:idx_listing_responder"`
	ResponderName string    `gorm:"size:100;not null;uniqueIndex:idx_listing_responder"`
	CreatedAt     time.Time
}

func (ListingResponse) TableName() string { return "listing_responses" }

type NewListing struct {
	FreelancerName string
	Title          string
	Description    string
	Price          decimal.Decimal
	Duration       int
	Skills         string
	Category       string
}

// PublicUser GetByID 中嵌入的需求方信息
type PublicUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ListingDetail struct {
	Listing
	Customer PublicUser `json:"customer"`
}

type CompletedListing struct {
	Listing
	CustomerName string `json:"customerName"`
}
