package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-management-service/internal/core/auth"
	"user-management-service/internal/domain"
	"user-management-service/internal/service"
	httpez "user-management-service/internal/transport/http/ez"
	mdw "user-management-service/internal/transport/http/middleware"
)

// TokenForm OAuth2 password 模式的表单，username 即邮箱
type TokenForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type LoginHandler struct {
	svc     *service.UserService
	auth    auth.Deps
	limiter gin.HandlerFunc
	log     *zap.Logger
}

// NewLoginHandler limiter 可为 nil；生产环境建议传 mdw.RateLimitPerIP
func NewLoginHandler(svc *service.UserService, deps auth.Deps, limiter gin.HandlerFunc, l *zap.Logger) *LoginHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &LoginHandler{svc: svc, auth: deps, limiter: limiter, log: l}
}

func (h *LoginHandler) Priority() int { return 10 }

func (h *LoginHandler) MountAPI(g *gin.RouterGroup) {
	ez := httpez.New(g)
	active := mdw.Auth(h.auth.CurrentActiveUser())

	var loginMW []gin.HandlerFunc
	if h.limiter != nil {
		loginMW = append(loginMW, h.limiter)
	}
	httpez.RegisterAction(ez, httpez.Action[TokenForm, Token]{
		Method:      http.MethodPost,
		Path:        "/login/access-token",
		Binder:      httpez.BindForm,
		Middlewares: loginMW,
		Handler:     h.accessToken,
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, *domain.User]{
		Method:      http.MethodPost,
		Path:        "/login/test-token",
		Binder:      httpez.BindNone,
		Middlewares: []gin.HandlerFunc{active},
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return mdw.CurrentUser(c), nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, struct{}]{
		Method:      http.MethodPost,
		Path:        "/login/logout",
		Binder:      httpez.BindNone,
		Status:      http.StatusNoContent,
		Middlewares: []gin.HandlerFunc{active},
		Handler:     h.logout,
	})
}

func (h *LoginHandler) accessToken(c *gin.Context, in *TokenForm) (Token, error) {
	u, err := h.svc.Authenticate(c.Request.Context(), in.Username, in.Password)
	if err != nil {
		return Token{}, mapErr(err)
	}
	if !u.Active() {
		return Token{}, httpez.BadRequest(auth.ErrInactiveUser.Error())
	}
	tok, err := h.auth.JWT.Issue(u.ID)
	if err != nil {
		return Token{}, httpez.Internal("issue token failed", err)
	}
	h.log.Info("login", zap.Int64("uid", u.ID))
	return Token{AccessToken: tok, TokenType: "bearer"}, nil
}

// logout 把 jti 写进黑名单直到 token 自然过期；未启用黑名单时只是个空操作
func (h *LoginHandler) logout(c *gin.Context, _ *struct{}) (struct{}, error) {
	claims := mdw.CurrentClaims(c)
	if h.auth.Denylist == nil || claims == nil || claims.ID == "" {
		return struct{}{}, nil
	}
	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := h.auth.Denylist.Revoke(c.Request.Context(), claims.ID, ttl); err != nil {
		return struct{}{}, err
	}
	return struct{}{}, nil
}
