// Package app 组装两个进程共用的依赖：数据库、缓存、存储、service 与路由 Deps
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"freelance-market/internal/core/auth"
	"freelance-market/internal/core/cache"
	"freelance-market/internal/core/config"
	"freelance-market/internal/core/database"
	"freelance-market/internal/core/storage"
	"freelance-market/internal/repo"
	"freelance-market/internal/service"
	"freelance-market/internal/transport/http/router"
)

type App struct {
	DB    *gorm.DB
	Cache *cache.Cache
	Deps  *router.Deps
}

// New 失败时已打开的资源会被关闭
func New(ctx context.Context, cfg *config.Config, l *zap.Logger) (*App, error) {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	l.Info("database connected", zap.String("driver", cfg.DB.Driver))
	a := &App{DB: db}

	if cfg.DB.AutoMigrate {
		if err := repo.Migrate(db); err != nil {
			a.Close()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
		l.Info("automigrate done")
	}

	// redis 可选：未配置地址时评分汇总直接查库
	if cfg.Redis.Addr != "" {
		a.Cache = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := a.Cache.Ping(pctx)
		cancel()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		l.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	}

	blobs, err := storage.NewLocal(cfg.Storage.Dir, cfg.Storage.PublicPrefix)
	if err != nil {
		a.Close()
		return nil, err
	}

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
		Leeway: 30 * time.Second,
	}

	repos := repo.New(db)
	rep := service.NewReputationService(repos, a.Cache, time.Duration(cfg.Redis.RatingTTLSec)*time.Second, l.Named("reputation"))
	ledger := service.NewLedgerService(repos, l.Named("ledger"))
	a.Deps = &router.Deps{
		Log:        l,
		HTTP:       cfg.App.HTTP,
		Market:     cfg.Market,
		Storage:    config.Storage{Dir: blobs.Dir, PublicPrefix: blobs.PublicPrefix},
		Identity:   service.NewIdentityService(repos, jwter, rep, l.Named("identity")),
		Registry:   service.NewRegistry(repos, blobs, rep, ledger, service.RegistryOptions{AllowRequesterSelfAssign: cfg.Market.AllowRequesterSelfAssign}, l.Named("registry")),
		Ledger:     ledger,
		Reputation: rep,
		Profiles:   service.NewProfileService(repos, blobs, l.Named("profile")),
	}
	return a, nil
}

func (a *App) Close() {
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
