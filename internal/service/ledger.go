package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"freelance-market/internal/domain"
	"freelance-market/internal/repo"
)

type LedgerService struct {
	repos *repo.Repos
	log   *zap.Logger
}

func NewLedgerService(repos *repo.Repos, l *zap.Logger) *LedgerService {
	return &LedgerService{repos: repos, log: l}
}

// Credit 独立事务入账
func (s *LedgerService) Credit(ctx context.Context, uid uint64, amount decimal.Decimal) error {
	err := s.repos.InTx(ctx, func(tx *repo.Repos) error {
		_, err := s.CreditTx(ctx, tx, uid, amount)
		return err
	})
	s.observeCredit(err)
	return err
}

// CreditTx 在调用方事务内入账并返回新余额；指标由调用方在提交后通过 observeCredit 记录
func (s *LedgerService) CreditTx(ctx context.Context, tx *repo.Repos, uid uint64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.Validation("amount must be positive")
	}
	if err := tx.Ledgers.Credit(ctx, uid, amount); err != nil {
		return decimal.Zero, fmt.Errorf("credit: %w", err)
	}
	l, err := tx.Ledgers.FindByUser(ctx, uid)
	if err != nil {
		return decimal.Zero, err
	}
	if l == nil {
		return decimal.Zero, fmt.Errorf("credit: ledger of user %d missing", uid)
	}
	return l.Balance, nil
}

func (s *LedgerService) observeCredit(err error) {
	result := "ok"
	if err != nil {
		result = "error"
		if domain.KindOf(err) == domain.KindValidation {
			result = "invalid"
		}
	}
	ledgerOps.WithLabelValues("credit", result).Inc()
}

// Withdraw 条件扣减余额并追加一条 processing 记录，二者同一事务
func (s *LedgerService) Withdraw(ctx context.Context, uid uint64, amount decimal.Decimal) (*domain.Transaction, error) {
	if !amount.IsPositive() {
		return nil, domain.Validation("amount must be positive")
	}
	var t *domain.Transaction
	err := s.repos.InTx(ctx, func(tx *repo.Repos) error {
		ok, err := tx.Ledgers.Debit(ctx, uid, amount)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInsufficientFunds
		}
		t = &domain.Transaction{UserID: uid, Amount: amount, Status: domain.TxStatusProcessing}
		return tx.Transactions.Create(ctx, t)
	})
	switch {
	case err == nil:
		ledgerOps.WithLabelValues("withdraw", "ok").Inc()
		s.log.Info("withdrawal requested", zap.Uint64("user_id", uid), zap.String("amount", amount.String()))
		return t, nil
	case domain.KindOf(err) == domain.KindInsufficientFunds:
		ledgerOps.WithLabelValues("withdraw", "insufficient").Inc()
	default:
		ledgerOps.WithLabelValues("withdraw", "error").Inc()
	}
	return nil, err
}

func (s *LedgerService) Summary(ctx context.Context, uid uint64) (*domain.Summary, error) {
	out := &domain.Summary{Balance: decimal.Zero, TotalEarned: decimal.Zero}
	l, err := s.repos.Ledgers.FindByUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if l != nil {
		out.Balance, out.TotalEarned = l.Balance, l.TotalEarned
	}
	if out.Transactions, err = s.repos.Transactions.ListByUser(ctx, uid); err != nil {
		return nil, err
	}
	return out, nil
}
