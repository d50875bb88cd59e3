package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"freelance-market/internal/core/storage"
	"freelance-market/internal/domain"
	"freelance-market/internal/repo"
)

type ProfileService struct {
	repos *repo.Repos
	blobs storage.BlobStore
	log   *zap.Logger
}

func NewProfileService(repos *repo.Repos, blobs storage.BlobStore, l *zap.Logger) *ProfileService {
	return &ProfileService{repos: repos, blobs: blobs, log: l}
}

// ProfileInput nil 字段保持原值
type ProfileInput struct {
	Name        *string
	Surname     *string
	Email       *string
	Phone       *string
	Country     *string
	City        *string
	Description *string
}

// ProfileView 用户身份与资料合并；没有资料时资料字段为 null
type ProfileView struct {
	ID          uint64  `json:"id"`
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	Name        *string `json:"name"`
	Surname     *string `json:"surname"`
	Phone       *string `json:"number"`
	Country     *string `json:"country"`
	City        *string `json:"city"`
	Description *string `json:"description"`
	ImagePath   *string `json:"imagePath"`
	WorkerEmail *string `json:"workerEmail"`
}

func assign(dst **string, v *string) {
	if v == nil {
		return
	}
	s := strings.TrimSpace(*v)
	*dst = &s
}

// Upsert 部分更新，不存在则创建；换头像时删除旧文件
func (s *ProfileService) Upsert(ctx context.Context, uid uint64, in ProfileInput, image *Upload) (*domain.WorkerProfile, error) {
	u, err := s.repos.Users.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}

	var newImage string
	if image != nil {
		if newImage, err = s.blobs.Save(ctx, "worker", image.Filename, image.Body); err != nil {
			return nil, domain.Validation(fmt.Sprintf("image: %v", err))
		}
	}

	var oldImage *string
	var out *domain.WorkerProfile
	err = s.repos.InTx(ctx, func(tx *repo.Repos) error {
		p, err := tx.Profiles.FindByUser(ctx, uid)
		if err != nil {
			return err
		}
		if p == nil {
			p = &domain.WorkerProfile{UserID: uid}
		}
		assign(&p.Name, in.Name)
		assign(&p.Surname, in.Surname)
		assign(&p.Email, in.Email)
		assign(&p.Phone, in.Phone)
		assign(&p.Country, in.Country)
		assign(&p.City, in.City)
		assign(&p.Description, in.Description)
		if newImage != "" {
			oldImage = p.ImagePath
			p.ImagePath = &newImage
		}
		if err := tx.Profiles.Save(ctx, p); err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		if newImage != "" {
			_ = s.blobs.Remove(ctx, newImage)
		}
		return nil, err
	}
	if oldImage != nil && *oldImage != "" {
		if err := s.blobs.Remove(ctx, *oldImage); err != nil {
			s.log.Warn("remove old avatar failed", zap.String("path", *oldImage), zap.Error(err))
		}
	}
	return out, nil
}

func (s *ProfileService) Me(ctx context.Context, uid uint64) (*ProfileView, error) {
	u, err := s.repos.Users.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	v := &ProfileView{ID: u.ID, Username: u.Username, Email: u.Email}
	p, err := s.repos.Profiles.FindByUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if p != nil {
		v.Name, v.Surname, v.Phone = p.Name, p.Surname, p.Phone
		v.Country, v.City, v.Description = p.Country, p.City, p.Description
		v.ImagePath, v.WorkerEmail = p.ImagePath, p.Email
	}
	return v, nil
}
