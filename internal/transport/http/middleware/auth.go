package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"user-management-service/internal/core/auth"
	"user-management-service/internal/domain"
	resp "user-management-service/internal/transport/http/response"
)

const (
	KeyUser   = "user"
	KeyClaims = "claims"
)

// Auth 对请求执行鉴权链路，成功后把 *domain.User 与 *auth.Claims 放进 gin.Context
func Auth(guard auth.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := &auth.Subject{Token: bearerToken(c.GetHeader("Authorization"))}
		if err := guard(c.Request.Context(), s); err != nil {
			abortAuth(c, err)
			return
		}
		c.Set(KeyUser, s.User)
		c.Set(KeyClaims, s.Claims)
		c.Next()
	}
}

func bearerToken(h string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func abortAuth(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		authFailures.WithLabelValues("credentials").Inc()
		c.Header("WWW-Authenticate", "Bearer")
		c.AbortWithStatusJSON(http.StatusUnauthorized, resp.Error(resp.CodeUnauthorized, auth.ErrInvalidCredentials.Error()))
	case errors.Is(err, auth.ErrUserNotFound):
		authFailures.WithLabelValues("not_found").Inc()
		c.AbortWithStatusJSON(http.StatusNotFound, resp.Error(resp.CodeNotFound, auth.ErrUserNotFound.Error()))
	case errors.Is(err, auth.ErrInactiveUser):
		authFailures.WithLabelValues("inactive").Inc()
		c.AbortWithStatusJSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, auth.ErrInactiveUser.Error()))
	case errors.Is(err, auth.ErrNotSuperuser):
		authFailures.WithLabelValues("privilege").Inc()
		c.AbortWithStatusJSON(http.StatusForbidden, resp.Error(resp.CodeForbidden, auth.ErrNotSuperuser.Error()))
	default:
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, resp.Error(resp.CodeServerError, "internal error"))
	}
}

// CurrentUser 取出 Auth 写入的用户；未经过 Auth 的路由返回 nil
func CurrentUser(c *gin.Context) *domain.User {
	u, _ := c.Get(KeyUser)
	if v, ok := u.(*domain.User); ok {
		return v
	}
	return nil
}

func CurrentClaims(c *gin.Context) *auth.Claims {
	v, _ := c.Get(KeyClaims)
	if cl, ok := v.(*auth.Claims); ok {
		return cl
	}
	return nil
}
