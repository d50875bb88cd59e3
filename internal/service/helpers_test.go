package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"freelance-market/internal/core/auth"
	"freelance-market/internal/core/database/dbtest"
	"freelance-market/internal/core/storage"
	"freelance-market/internal/domain"
	"freelance-market/internal/repo"
)

type env struct {
	repos      *repo.Repos
	blobs      *storage.Local
	reputation *ReputationService
	registry   *Registry
	ledger     *LedgerService
	identity   *IdentityService
	profiles   *ProfileService
}

func newEnv(t *testing.T, opts RegistryOptions) *env {
	t.Helper()
	db := dbtest.Open(t)
	require.NoError(t, repo.Migrate(db))
	repos := repo.New(db)
	blobs, err := storage.NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	l := zap.NewNop()
	rep := NewReputationService(repos, nil, time.Minute, l)
	ledger := NewLedgerService(repos, l)
	j := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "test", TTL: time.Hour}
	return &env{
		repos:      repos,
		blobs:      blobs,
		reputation: rep,
		registry:   NewRegistry(repos, blobs, rep, ledger, opts, l),
		ledger:     ledger,
		identity:   NewIdentityService(repos, j, rep, l),
		profiles:   NewProfileService(repos, blobs, l),
	}
}

func defaultEnv(t *testing.T) *env {
	return newEnv(t, RegistryOptions{AllowRequesterSelfAssign: true})
}

// user 直接落库，跳过 bcrypt
func (e *env) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u := &domain.User{Username: name, Email: name + "@example.com", PasswordHash: "x", Role: domain.RoleUser}
	require.NoError(t, e.repos.Users.Create(context.Background(), u))
	return u
}

func (e *env) listing(t *testing.T, requester uint64, price int64) *domain.Listing {
	t.Helper()
	l, err := e.registry.Create(context.Background(), requester, domain.NewListing{
		Title:       "Logo design",
		Description: "A vector logo",
		Price:       decimal.NewFromInt(price),
		Duration:    3,
		Category:    "design",
	}, nil)
	require.NoError(t, err)
	return l
}

// completed 走完 assign + complete
func (e *env) completed(t *testing.T, requester, worker uint64, price int64) *domain.Listing {
	t.Helper()
	ctx := context.Background()
	l := e.listing(t, requester, price)
	_, err := e.registry.Assign(ctx, l.ID, worker)
	require.NoError(t, err)
	_, err = e.registry.Complete(ctx, l.ID, worker)
	require.NoError(t, err)
	return l
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
