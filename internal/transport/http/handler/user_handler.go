package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"user-management-service/internal/core/auth"
	"user-management-service/internal/domain"
	"user-management-service/internal/repo"
	"user-management-service/internal/service"
	httpez "user-management-service/internal/transport/http/ez"
	mdw "user-management-service/internal/transport/http/middleware"
)

// ListQuery ?skip=&limit=
type ListQuery struct {
	Skip  int `form:"skip,default=0"    binding:"min=0"`
	Limit int `form:"limit,default=100" binding:"min=1,max=1000"`
}

type UserHandler struct {
	svc  *service.UserService
	auth auth.Deps
}

func NewUserHandler(svc *service.UserService, deps auth.Deps) *UserHandler {
	return &UserHandler{svc: svc, auth: deps}
}

func (h *UserHandler) Priority() int { return 20 }

func (h *UserHandler) MountAPI(g *gin.RouterGroup) {
	ez := httpez.New(g)

	// 静态路由 /users/me 与 /users/:id 可以共存
	httpez.RegisterAction(ez, httpez.Action[struct{}, *domain.User]{
		Method:      http.MethodGet,
		Path:        "/users/me",
		Binder:      httpez.BindNone,
		Middlewares: []gin.HandlerFunc{mdw.Auth(h.auth.CurrentActiveUser())},
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return mdw.CurrentUser(c), nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[domain.UserCreate, *domain.User]{
		Method:  http.MethodPost,
		Path:    "/users/",
		Binder:  httpez.BindJSON,
		Status:  http.StatusCreated,
		Handler: h.create,
	})

	httpez.RegisterAction(ez, httpez.Action[ListQuery, []domain.User]{
		Method: http.MethodGet,
		Path:   "/users/",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *ListQuery) ([]domain.User, error) {
			return h.svc.List(c.Request.Context(), in.Skip, in.Limit)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/users/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.load(c)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/users/by-email/:email",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			u, err := h.svc.GetByEmail(c.Request.Context(), c.Param("email"))
			return u, mapErr(err)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[domain.UserUpdate, *domain.User]{
		Method: http.MethodPut,
		Path:   "/users/:id",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *domain.UserUpdate) (*domain.User, error) {
			u, err := h.load(c)
			if err != nil {
				return nil, err
			}
			u, err = h.svc.Update(c.Request.Context(), u, *in)
			return u, mapErr(err)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, struct{}]{
		Method: http.MethodDelete,
		Path:   "/users/:id",
		Binder: httpez.BindNone,
		Status: http.StatusNoContent,
		Handler: func(c *gin.Context, _ *struct{}) (struct{}, error) {
			id, err := httpez.ParamInt64(c, "id")
			if err != nil {
				return struct{}{}, err
			}
			_, err = h.svc.Remove(c.Request.Context(), id)
			return struct{}{}, mapErr(err)
		},
	})
}

func (h *UserHandler) create(c *gin.Context, in *domain.UserCreate) (*domain.User, error) {
	u, err := h.svc.Create(c.Request.Context(), *in)
	// binding 按字符数校验，按字节超长的密码在这里才发现，同样是 422
	if errors.Is(err, service.ErrInvalidValue) {
		return nil, httpez.Unprocessable(err.Error(), nil)
	}
	return u, mapErr(err)
}

func (h *UserHandler) load(c *gin.Context) (*domain.User, error) {
	id, err := httpez.ParamInt64(c, "id")
	if err != nil {
		return nil, err
	}
	u, err := h.svc.Get(c.Request.Context(), id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, httpez.NotFound(msgUserNotFound)
	}
	return u, err
}
