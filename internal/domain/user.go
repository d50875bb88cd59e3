package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash string    `gorm:"size:191;not null" json:"-"`
	Role         string    `gorm:"size:16;not null;default:user" json:"role"` // "user"/"admin"
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// Identity 已鉴权调用方
type Identity struct {
	ID       uint64
	Username string
	Email    string
	Role     string
}

func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

// WorkerProfile 可选的执行者资料，纯属性存储
type WorkerProfile struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint64    `gorm:"uniqueIndex;not null" json:"userId"`
	Name        *string   `gorm:"size:100" json:"name"`
	Surname     *string   `gorm:"size:40" json:"surname"`
	Email       *string   `gorm:"size:100" json:"email"`
	Phone       *string   `gorm:"size:20" json:"number"`
	Country     *string   `gorm:"size:50" json:"country"`
	City        *string   `gorm:"size:30" json:"city"`
	Description *string   `gorm:"type:text" json:"description"`
	ImagePath   *string   `gorm:"size:255" json:"imagePath"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (WorkerProfile) TableName() string { return "worker_profiles" }
