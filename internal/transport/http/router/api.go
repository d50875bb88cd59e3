package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"freelance-market/internal/core/config"
	"freelance-market/internal/core/server"
	"freelance-market/internal/service"
	mdw "freelance-market/internal/transport/http/middleware"
	"freelance-market/pkg/validation"
)

// Deps 两个 engine 共用的依赖
type Deps struct {
	Log     *zap.Logger
	HTTP    config.HTTP
	Market  config.Market
	Storage config.Storage

	Identity   *service.IdentityService
	Registry   *service.Registry
	Ledger     *service.LedgerService
	Reputation *service.ReputationService
	Profiles   *service.ProfileService
}

func NewAPIEngine(d *Deps) *gin.Engine {
	r := newEngine(d, "api")

	// 上传的图片
	if d.Storage.PublicPrefix != "" && d.Storage.Dir != "" {
		r.Static(d.Storage.PublicPrefix, d.Storage.Dir)
	}

	api := r.Group("/api/v1")
	MountAllAPI(api,
		&identityModule{d: d},
		&listingModule{d: d},
		&financeModule{d: d},
		&profileModule{d: d},
	)
	return r
}

// newEngine 公共中间件链 + /health + /metrics
func newEngine(d *Deps, name string) *gin.Engine {
	validation.UseWireNames()
	r := server.NewRouter(d.Log, server.Options{CORSOrigins: d.HTTP.CORSOrigins})
	r.Use(middlewares(name, d.HTTP, d.Log)...)

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func middlewares(engine string, h config.HTTP, l *zap.Logger) []gin.HandlerFunc {
	rps := rate.Limit(h.RateLimitRPS)
	if h.RateLimitRPS <= 0 {
		rps = rate.Inf
	}
	body := int64(h.MaxBodyMB) << 20
	if body <= 0 {
		body = 16 << 20
	}
	timeout := time.Duration(h.RequestTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	chain := []gin.HandlerFunc{
		mdw.RequestID(),
		mdw.RateLimit(rps, h.RateLimitBurst),
	}
	if h.MaxConcurrent > 0 {
		chain = append(chain, mdw.ConcurrencyLimit(h.MaxConcurrent))
	}
	return append(chain,
		mdw.MaxBodyBytes(body),
		mdw.Timeout(timeout),
		mdw.SimpleRecovery(l),
		mdw.Metrics(engine),
		mdw.AccessLog(l),
	)
}

// authLimiter 登录注册的每 IP 限速；未配置时不限
func authLimiter(h config.HTTP) gin.HandlersChain {
	if h.AuthRateLimitRPS <= 0 {
		return nil
	}
	return gin.HandlersChain{mdw.RateLimitPerIP(rate.Limit(h.AuthRateLimitRPS), h.AuthRateLimitBurst, 10*time.Minute)}
}
