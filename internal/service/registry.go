package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"freelance-market/internal/core/storage"
	"freelance-market/internal/domain"
	"freelance-market/internal/repo"
)

type RegistryOptions struct {
	// AllowRequesterSelfAssign 为 false 时需求方不能接自己的单
	AllowRequesterSelfAssign bool
}

// Registry 订单生命周期：open -> assigned -> completed -> rated
type Registry struct {
	repos      *repo.Repos
	blobs      storage.BlobStore
	reputation *ReputationService
	ledger     *LedgerService
	opts       RegistryOptions
	log        *zap.Logger
}

func NewRegistry(repos *repo.Repos, blobs storage.BlobStore, rep *ReputationService, ledger *LedgerService, opts RegistryOptions, l *zap.Logger) *Registry {
	return &Registry{repos: repos, blobs: blobs, reputation: rep, ledger: ledger, opts: opts, log: l}
}

func validateNewListing(in *domain.NewListing) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.FreelancerName = strings.TrimSpace(in.FreelancerName)
	switch {
	case in.Title == "":
		return domain.Validation("serviceTitle is required")
	case len(in.Title) > 100:
		return domain.Validation("serviceTitle is too long")
	case in.Description == "":
		return domain.Validation("description is required")
	case in.Category == "":
		return domain.Validation("category is required")
	case !in.Price.IsPositive():
		return domain.Validation("price must be positive")
	case in.Price.GreaterThanOrEqual(domain.MaxPrice):
		return domain.Validation("price is too large")
	case in.Duration < 0:
		return domain.Validation("duration must not be negative")
	}
	return nil
}

// Create 图片可选；插入失败时删除已写入的图片
func (s *Registry) Create(ctx context.Context, requester uint64, in domain.NewListing, image *Upload) (*domain.Listing, error) {
	if err := validateNewListing(&in); err != nil {
		return nil, err
	}
	if in.FreelancerName == "" {
		u, err := s.repos.Users.FindByID(ctx, requester)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, domain.NotFound("user not found")
		}
		in.FreelancerName = u.Username
	}

	var imagePath string
	if image != nil {
		p, err := s.blobs.Save(ctx, "service", image.Filename, image.Body)
		if err != nil {
			return nil, domain.Validation(fmt.Sprintf("image: %v", err))
		}
		imagePath = p
	}

	l := &domain.Listing{
		Title:          in.Title,
		Description:    in.Description,
		Price:          in.Price,
		Duration:       in.Duration,
		Skills:         strings.TrimSpace(in.Skills),
		Category:       in.Category,
		ImagePath:      imagePath,
		FreelancerName: in.FreelancerName,
		Status:         domain.StatusOpen,
		RequesterID:    requester,
	}
	if err := s.repos.Listings.Create(ctx, l); err != nil {
		if imagePath != "" {
			if rmErr := s.blobs.Remove(ctx, imagePath); rmErr != nil {
				s.log.Warn("remove orphan image failed", zap.String("path", imagePath), zap.Error(rmErr))
			}
		}
		return nil, fmt.Errorf("create listing: %w", err)
	}
	listingTransitions.WithLabelValues(string(domain.StatusOpen)).Inc()
	s.log.Info("listing created", zap.Uint64("listing_id", l.ID), zap.Uint64("requester_id", requester))
	return l, nil
}

// Respond 记录响应者名字，不改变状态；同名重复返回 ErrDuplicateResponse
// listing_responses 是唯一来源，旧的逗号串每次整体重建
func (s *Registry) Respond(ctx context.Context, listingID uint64, name string) (*domain.Listing, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validation("responder name is required")
	}
	if strings.Contains(name, ",") {
		return nil, domain.Validation("responder name must not contain commas")
	}
	var out *domain.Listing
	err := s.repos.InTx(ctx, func(tx *repo.Repos) error {
		l, err := tx.Listings.FindByID(ctx, listingID)
		if err != nil {
			return err
		}
		if l == nil {
			return domain.NotFound("service not found")
		}
		names, err := tx.Listings.ResponderNames(ctx, listingID)
		if err != nil {
			return err
		}
		for _, n := range names {
			if n == name {
				return domain.ErrDuplicateResponse
			}
		}
		if err := tx.Listings.AddResponse(ctx, listingID, name); err != nil {
			if repo.IsDupKey(err) {
				return domain.ErrDuplicateResponse
			}
			return err
		}
		// listings.responses 由 listing_responses 重建
		l.Responses = strings.Join(append(names, name), ",")
		if err := tx.Listings.SetResponses(ctx, listingID, l.Responses); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Assign 条件更新 open -> assigned，并发下只有一个 actor 成功
func (s *Registry) Assign(ctx context.Context, listingID, actor uint64) (*domain.Listing, error) {
	var out *domain.Listing
	err := s.repos.InTx(ctx, func(tx *repo.Repos) error {
		l, err := tx.Listings.FindByID(ctx, listingID)
		if err != nil {
			return err
		}
		if l == nil {
			return domain.NotFound("service not found")
		}
		if !s.opts.AllowRequesterSelfAssign && l.RequesterID == actor {
			return domain.Forbidden("cannot take your own service")
		}
		ok, err := tx.Listings.Assign(ctx, listingID, actor)
		if err != nil {
			return err
		}
		if !ok {
			return domain.InvalidState("service is not available")
		}
		out, err = tx.Listings.FindByID(ctx, listingID)
		return err
	})
	if err != nil {
		return nil, err
	}
	listingTransitions.WithLabelValues(string(domain.StatusAssigned)).Inc()
	s.log.Info("listing assigned", zap.Uint64("listing_id", listingID), zap.Uint64("worker_id", actor))
	return out, nil
}

// Complete 状态推进与入账同一事务；返回执行者最新余额
func (s *Registry) Complete(ctx context.Context, listingID, actor uint64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.repos.InTx(ctx, func(tx *repo.Repos) error {
		l, err := tx.Listings.FindByID(ctx, listingID)
		if err != nil {
			return err
		}
		if l == nil {
			return domain.NotFound("service not found")
		}
		if l.Status != domain.StatusAssigned {
			return domain.InvalidState("service cannot be completed")
		}
		if l.WorkerID == nil || *l.WorkerID != actor {
			return domain.Forbidden("you are not the worker of this service")
		}
		ok, err := tx.Listings.Complete(ctx, listingID, actor)
		if err != nil {
			return err
		}
		if !ok {
			return domain.InvalidState("service cannot be completed")
		}
		if balance, err = s.ledger.CreditTx(ctx, tx, actor, l.Price); err != nil {
			return fmt.Errorf("credit worker: %w", err)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	listingTransitions.WithLabelValues(string(domain.StatusCompleted)).Inc()
	s.ledger.observeCredit(nil)
	s.log.Info("listing completed", zap.Uint64("listing_id", listingID), zap.Uint64("worker_id", actor))
	return balance, nil
}

// Rate 只有需求方能评价已完成订单，且只能评一次
func (s *Registry) Rate(ctx context.Context, listingID, rater uint64, score float64) error {
	if score < domain.MinScore || score > domain.MaxScore {
		return domain.Validation("rating must be between 0.5 and 5")
	}
	var ratee uint64
	err := s.repos.InTx(ctx, func(tx *repo.Repos) error {
		l, err := tx.Listings.FindByID(ctx, listingID)
		if err != nil {
			return err
		}
		if l == nil {
			return domain.NotFound("service not found")
		}
		if l.Status != domain.StatusCompleted {
			return domain.InvalidState("service is not completed")
		}
		if l.RequesterID != rater {
			return domain.Forbidden("only the customer can rate this service")
		}
		if l.WorkerID == nil {
			return domain.Precondition("service has no worker")
		}
		ratee = *l.WorkerID
		return s.reputation.Record(ctx, tx, &domain.Review{
			ListingID: listingID, RaterID: rater, RateeID: ratee, Score: score,
		})
	})
	if err != nil {
		return err
	}
	s.reputation.Invalidate(ctx, ratee)
	s.log.Info("listing rated", zap.Uint64("listing_id", listingID), zap.Uint64("ratee_id", ratee), zap.Float64("score", score))
	return nil
}

// SetStatus 管理覆盖；assigned/completed 要求已有 worker
func (s *Registry) SetStatus(ctx context.Context, listingID uint64, status string) (domain.Status, error) {
	st, ok := domain.ParseStatus(status)
	if !ok {
		return "", domain.Validation("invalid status")
	}
	err := s.repos.InTx(ctx, func(tx *repo.Repos) error {
		l, err := tx.Listings.FindByID(ctx, listingID)
		if err != nil {
			return err
		}
		if l == nil {
			return domain.NotFound("service not found")
		}
		if st.HasWorker() && l.WorkerID == nil {
			return domain.Precondition("service has no worker")
		}
		return tx.Listings.SetStatus(ctx, listingID, st)
	})
	if err != nil {
		return "", err
	}
	listingTransitions.WithLabelValues(string(st)).Inc()
	s.log.Info("listing status overridden", zap.Uint64("listing_id", listingID), zap.String("status", string(st)))
	return st, nil
}

func (s *Registry) SetResponseCount(ctx context.Context, listingID uint64, n int) error {
	if n < 0 {
		return domain.Validation("reviews must not be negative")
	}
	l, err := s.repos.Listings.FindByID(ctx, listingID)
	if err != nil {
		return err
	}
	if l == nil {
		return domain.NotFound("service not found")
	}
	return s.repos.Listings.SetResponseCount(ctx, listingID, n)
}

func (s *Registry) List(ctx context.Context) ([]domain.Listing, error) {
	return s.repos.Listings.List(ctx)
}

func (s *Registry) ListCategories(ctx context.Context) ([]string, error) {
	return s.repos.Listings.Categories(ctx)
}

func (s *Registry) ListByOwner(ctx context.Context, uid uint64) ([]domain.Listing, error) {
	return s.repos.Listings.ListByRequester(ctx, uid)
}

func (s *Registry) ListCompletedByWorker(ctx context.Context, uid uint64) ([]domain.CompletedListing, error) {
	return s.repos.Listings.ListCompletedByWorker(ctx, uid)
}

// GetByID 附带需求方的 name/email
func (s *Registry) GetByID(ctx context.Context, id uint64) (*domain.ListingDetail, error) {
	l, err := s.repos.Listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, domain.NotFound("service not found")
	}
	u, err := s.repos.Users.FindByID(ctx, l.RequesterID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("customer not found")
	}
	return &domain.ListingDetail{Listing: *l, Customer: domain.PublicUser{Name: u.Username, Email: u.Email}}, nil
}

func (s *Registry) HasRated(ctx context.Context, listingID, rater uint64) (bool, error) {
	return s.reputation.HasRated(ctx, listingID, rater)
}
