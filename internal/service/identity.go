package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"freelance-market/internal/core/auth"
	"freelance-market/internal/domain"
	"freelance-market/internal/repo"
	"freelance-market/pkg/utils"
)

const minPasswordLen = 6

type IdentityService struct {
	repos      *repo.Repos
	jwt        *auth.JWTer
	reputation *ReputationService
	log        *zap.Logger
}

func NewIdentityService(repos *repo.Repos, j *auth.JWTer, rep *ReputationService, l *zap.Logger) *IdentityService {
	return &IdentityService{repos: repos, jwt: j, reputation: rep, log: l}
}

// PublicUser 对外的用户视图
type PublicUser struct {
	ID        uint64  `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	ImagePath *string `json:"imagePath"`
}

// Register 注册后直接签发 token
func (s *IdentityService) Register(ctx context.Context, username, email, password string) (*domain.User, string, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(strings.ToLower(email))
	switch {
	case username == "" || email == "" || password == "":
		return nil, "", domain.Validation("username, email and password are required")
	case len(password) < minPasswordLen:
		return nil, "", domain.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	u, err := s.create(ctx, username, email, password, domain.RoleUser)
	if err != nil {
		return nil, "", err
	}
	tok, err := s.IssueToken(u)
	if err != nil {
		return nil, "", err
	}
	s.log.Info("user registered", zap.Uint64("user_id", u.ID))
	return u, tok, nil
}

func (s *IdentityService) create(ctx context.Context, username, email, password, role string) (*domain.User, error) {
	taken, err := s.repos.Users.ExistsUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &domain.Error{Kind: domain.KindConflict, Msg: "username or email already exists"}
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{Username: username, Email: email, PasswordHash: hash, Role: role}
	if err := s.repos.Users.Create(ctx, u); err != nil {
		if repo.IsDupKey(err) {
			return nil, &domain.Error{Kind: domain.KindConflict, Msg: "username or email already exists"}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// EnsureAdmin 启动时按配置创建管理员；已存在则跳过
func (s *IdentityService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if username == "" || password == "" {
		return nil
	}
	u, err := s.repos.Users.FindByLogin(ctx, username)
	if err != nil || u != nil {
		return err
	}
	if email == "" {
		email = username + "@localhost"
	}
	u, err = s.create(ctx, username, email, password, domain.RoleAdmin)
	if err != nil {
		return err
	}
	s.log.Info("admin user created", zap.Uint64("user_id", u.ID))
	return nil
}

// Authenticate login 可以是用户名或邮箱
func (s *IdentityService) Authenticate(ctx context.Context, login, password string) (*domain.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	u, err := s.repos.Users.FindByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if u == nil && strings.Contains(login, "@") {
		if u, err = s.repos.Users.FindByLogin(ctx, strings.ToLower(login)); err != nil {
			return nil, err
		}
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return u, nil
}

func (s *IdentityService) IssueToken(u *domain.User) (string, error) {
	return s.jwt.Issue(u.ID, u.Role)
}

// Resolve 校验 token 并确认用户仍然存在
func (s *IdentityService) Resolve(ctx context.Context, token string) (domain.Identity, error) {
	c, err := s.jwt.Parse(token)
	if err != nil {
		return domain.Identity{}, err
	}
	u, err := s.repos.Users.FindByID(ctx, c.UID)
	if err != nil {
		return domain.Identity{}, err
	}
	if u == nil {
		return domain.Identity{}, domain.ErrInvalidToken
	}
	return u.Identity(), nil
}

func (s *IdentityService) ChangePassword(ctx context.Context, uid uint64, current, next, confirm string) error {
	u, err := s.repos.Users.FindByID(ctx, uid)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.NotFound("user not found")
	}
	switch {
	case !utils.CheckPassword(current, u.PasswordHash):
		return domain.Validation("current password is incorrect")
	case next != confirm:
		return domain.Validation("passwords do not match")
	case len(next) < minPasswordLen:
		return domain.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	hash, err := utils.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repos.Users.UpdatePassword(ctx, uid, hash)
}

// Delete 同一事务内级联清理：评价、自己发布的订单及其响应、进行中的接单、流水、账本、资料、用户
func (s *IdentityService) Delete(ctx context.Context, uid uint64) error {
	var ratees []uint64
	err := s.repos.InTx(ctx, func(tx *repo.Repos) error {
		u, err := tx.Users.FindByID(ctx, uid)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.NotFound("user not found")
		}
		owned, err := tx.Listings.IDsByRequester(ctx, uid)
		if err != nil {
			return err
		}
		if ratees, err = tx.Reviews.RateesOf(ctx, uid, owned); err != nil {
			return err
		}
		if err := tx.Reviews.DeleteByUser(ctx, uid, owned); err != nil {
			return fmt.Errorf("delete reviews: %w", err)
		}
		if err := tx.Listings.DeleteByIDs(ctx, owned); err != nil {
			return fmt.Errorf("delete listings: %w", err)
		}
		released, err := tx.Listings.ReleaseWorker(ctx, uid)
		if err != nil {
			return fmt.Errorf("release assignments: %w", err)
		}
		if released > 0 {
			s.log.Info("assignments released", zap.Uint64("user_id", uid), zap.Int64("count", released))
		}
		if err := tx.Transactions.DeleteByUser(ctx, uid); err != nil {
			return fmt.Errorf("delete transactions: %w", err)
		}
		if err := tx.Ledgers.DeleteByUser(ctx, uid); err != nil {
			return fmt.Errorf("delete ledger: %w", err)
		}
		if err := tx.Profiles.DeleteByUser(ctx, uid); err != nil {
			return fmt.Errorf("delete profile: %w", err)
		}
		if _, err := tx.Users.Delete(ctx, uid); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.reputation.Invalidate(ctx, append(ratees, uid)...)
	s.log.Info("user deleted", zap.Uint64("user_id", uid))
	return nil
}

func (s *IdentityService) Get(ctx context.Context, uid uint64) (*PublicUser, error) {
	u, err := s.repos.Users.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	out := &PublicUser{ID: u.ID, Username: u.Username, Email: u.Email}
	p, err := s.repos.Profiles.FindByUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if p != nil {
		out.ImagePath = p.ImagePath
	}
	return out, nil
}

// Avatar 没有资料或未上传头像时返回 nil
func (s *IdentityService) Avatar(ctx context.Context, uid uint64) (*string, error) {
	u, err := s.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	return u.ImagePath, nil
}

// List 管理端分页列表
func (s *IdentityService) List(ctx context.Context, q string, page, size int) ([]domain.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return s.repos.Users.List(ctx, strings.TrimSpace(q), (page-1)*size, size)
}
