package router

import (
	"time"

	"freelance-market/internal/domain"
)

const timeLayout = "2006-01-02 15:04"

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}

type listingView struct {
	ID             uint64  `json:"id"`
	Title          string  `json:"serviceTitle"`
	Description    string  `json:"description"`
	Price          float64 `json:"price"`
	Duration       int     `json:"duration"`
	Skills         string  `json:"skills"`
	Category       string  `json:"category"`
	ImagePath      string  `json:"imagePath"`
	FreelancerName string  `json:"freelancerName"`
	Responses      string  `json:"responses"`
	Reviews        int     `json:"reviews"`
	Status         string  `json:"status"`
	UserID         uint64  `json:"userId"`
	FreelancerID   *uint64 `json:"freelancerId"`
	CreatedAt      string  `json:"createdAt"`
}

func toListingView(l *domain.Listing) listingView {
	return listingView{
		ID:             l.ID,
		Title:          l.Title,
		Description:    l.Description,
		Price:          l.Price.InexactFloat64(),
		Duration:       l.Duration,
		Skills:         l.Skills,
		Category:       l.Category,
		ImagePath:      l.ImagePath,
		FreelancerName: l.FreelancerName,
		Responses:      l.Responses,
		Reviews:        l.ResponseCount,
		Status:         string(l.Status),
		UserID:         l.RequesterID,
		FreelancerID:   l.WorkerID,
		CreatedAt:      fmtTime(l.CreatedAt),
	}
}

func toListingViews(ls []domain.Listing) []listingView {
	out := make([]listingView, 0, len(ls))
	for i := range ls {
		out = append(out, toListingView(&ls[i]))
	}
	return out
}

type listingDetailView struct {
	listingView
	Customer domain.PublicUser `json:"customer"`
}

type completedView struct {
	listingView
	CustomerName string `json:"customerName"`
}

type userView struct {
	ID        uint64 `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

func toUserView(u *domain.User) userView {
	return userView{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role, CreatedAt: fmtTime(u.CreatedAt)}
}

type txView struct {
	ID        uint64  `json:"id"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
}

type financeView struct {
	Balance      float64  `json:"balance"`
	TotalEarned  float64  `json:"total_earned"`
	Transactions []txView `json:"transactions"`
}

func toFinanceView(s *domain.Summary) financeView {
	out := financeView{
		Balance:      s.Balance.InexactFloat64(),
		TotalEarned:  s.TotalEarned.InexactFloat64(),
		Transactions: make([]txView, 0, len(s.Transactions)),
	}
	for _, t := range s.Transactions {
		out.Transactions = append(out.Transactions, txView{
			ID: t.ID, Amount: t.Amount.InexactFloat64(), Status: t.Status, CreatedAt: fmtTime(t.CreatedAt),
		})
	}
	return out
}
