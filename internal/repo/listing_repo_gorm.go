package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"freelance-market/internal/domain"
)

type ListingRepo struct{ db *gorm.DB }

func (r *ListingRepo) Create(ctx context.Context, l *domain.Listing) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *ListingRepo) FindByID(ctx context.Context, id uint64) (*domain.Listing, error) {
	var l domain.Listing
	err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &l, err
}

func (r *ListingRepo) List(ctx context.Context) ([]domain.Listing, error) {
	var ls []domain.Listing
	err := r.db.WithContext(ctx).Order("id desc").Find(&ls).Error
	return ls, err
}

func (r *ListingRepo) ListByRequester(ctx context.Context, uid uint64) ([]domain.Listing, error) {
	var ls []domain.Listing
	err := r.db.WithContext(ctx).Where("requester_id = ?", uid).Order("id desc").Find(&ls).Error
	return ls, err
}

func (r *ListingRepo) ListCompletedByWorker(ctx context.Context, uid uint64) ([]domain.CompletedListing, error) {
	var ls []domain.Listing
	err := r.db.WithContext(ctx).
		Where("worker_id = ? AND status = ?", uid, domain.StatusCompleted).
		Order("id desc").Find(&ls).Error
	if err != nil || len(ls) == 0 {
		return []domain.CompletedListing{}, err
	}

	ids := make([]uint64, 0, len(ls))
	for _, l := range ls {
		ids = append(ids, l.RequesterID)
	}
	var users []domain.User
	if err := r.db.WithContext(ctx).Select("id", "username").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	names := make(map[uint64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}

	out := make([]domain.CompletedListing, 0, len(ls))
	for _, l := range ls {
		name, ok := names[l.RequesterID]
		if !ok {
			name = "unknown"
		}
		out = append(out, domain.CompletedListing{Listing: l, CustomerName: name})
	}
	return out, nil
}

func (r *ListingRepo) Categories(ctx context.Context) ([]string, error) {
	var cats []string
	err := r.db.WithContext(ctx).Model(&domain.Listing{}).
		Where("category <> ''").Distinct().Order("category").Pluck("category", &cats).Error
	return cats, err
}

// Assign open -> assigned，条件更新；返回是否命中
func (r *ListingRepo) Assign(ctx context.Context, id, workerID uint64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Listing{}).
		Where("id = ? AND status = ?", id, domain.StatusOpen).
		Updates(map[string]any{"status": domain.StatusAssigned, "worker_id": workerID})
	return res.RowsAffected > 0, res.Error
}

// Complete assigned -> completed，仅限当前 worker
func (r *ListingRepo) Complete(ctx context.Context, id, workerID uint64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Listing{}).
		Where("id = ? AND status = ? AND worker_id = ?", id, domain.StatusAssigned, workerID).
		Update("status", domain.StatusCompleted)
	return res.RowsAffected > 0, res.Error
}

// SetStatus 管理覆盖；open 时清空 worker_id
func (r *ListingRepo) SetStatus(ctx context.Context, id uint64, st domain.Status) error {
	values := map[string]any{"status": st}
	if !st.HasWorker() {
		values["worker_id"] = nil
	}
	return r.db.WithContext(ctx).Model(&domain.Listing{}).Where("id = ?", id).Updates(values).Error
}

func (r *ListingRepo) SetResponseCount(ctx context.Context, id uint64, n int) error {
	return r.db.WithContext(ctx).Model(&domain.Listing{}).Where("id = ?", id).
		Update("response_count", n).Error
}

func (r *ListingRepo) AddResponse(ctx context.Context, listingID uint64, name string) error {
	return r.db.WithContext(ctx).Create(&domain.ListingResponse{ListingID: listingID, ResponderName: name}).Error
}

func (r *ListingRepo) ResponderNames(ctx context.Context, listingID uint64) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&domain.ListingResponse{}).
		Where("listing_id = ?", listingID).Order("id").Pluck("responder_name", &names).Error
	return names, err
}

func (r *ListingRepo) SetResponses(ctx context.Context, id uint64, joined string) error {
	return r.db.WithContext(ctx).Model(&domain.Listing{}).Where("id = ?", id).
		Update("responses", joined).Error
}

func (r *ListingRepo) IDsByRequester(ctx context.Context, uid uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).Model(&domain.Listing{}).Where("requester_id = ?", uid).Pluck("id", &ids).Error
	return ids, err
}

// DeleteByIDs 连同结构化响应一起删除
func (r *ListingRepo) DeleteByIDs(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	db := r.db.WithContext(ctx)
	if err := db.Where("listing_id IN ?", ids).Delete(&domain.ListingResponse{}).Error; err != nil {
		return err
	}
	return db.Where("id IN ?", ids).Delete(&domain.Listing{}).Error
}

// ReleaseWorker 把该用户进行中的订单退回 open
func (r *ListingRepo) ReleaseWorker(ctx context.Context, workerID uint64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Listing{}).
		Where("worker_id = ? AND status = ?", workerID, domain.StatusAssigned).
		Updates(map[string]any{"status": domain.StatusOpen, "worker_id": nil})
	return res.RowsAffected, res.Error
}
