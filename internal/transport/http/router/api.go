package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"user-management-service/internal/core/server"
	mdw "user-management-service/internal/transport/http/middleware"
	resp "user-management-service/internal/transport/http/response"
)

// Pinger /health 用来探活下游（数据库）
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Logger      *zap.Logger
	DB          Pinger
	CORSOrigins []string
	Prefix      string        // 默认 /api/v1 或 /admin/v1
	Timeout     time.Duration // 默认 10s
	MaxBody     int64         // 默认 1MB
}

func (o *Options) defaults(prefix string) {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Prefix == "" {
		o.Prefix = prefix
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.MaxBody <= 0 {
		o.MaxBody = 1 << 20
	}
}

// newEngine 两个进程共用的中间件栈与 /health、/metrics
func newEngine(o Options, name string) *gin.Engine {
	r := server.NewRouter(o.Logger, o.CORSOrigins)
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(rate.Limit(200), 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(o.MaxBody),
		mdw.Timeout(o.Timeout),
		mdw.Metrics(name),
		mdw.AccessLog(o.Logger.Named(name)),
	)

	r.GET("/health", func(c *gin.Context) {
		if o.DB != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := o.DB.Ping(ctx); err != nil {
				_ = c.Error(err)
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, resp.Error(resp.CodeServiceUnavailable, "database unavailable"))
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": 1})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// NewAPIEngine 用户端：模块自行决定哪些路由需要鉴权
func NewAPIEngine(o Options, mods *Registry) *gin.Engine {
	o.defaults("/api/v1")
	r := newEngine(o, "api")
	mods.MountAPI(r.Group(o.Prefix))
	return r
}
