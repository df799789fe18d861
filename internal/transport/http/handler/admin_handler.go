package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"user-management-service/internal/domain"
	"user-management-service/internal/service"
	httpez "user-management-service/internal/transport/http/ez"
	mdw "user-management-service/internal/transport/http/middleware"
)

type UserPage struct {
	Total int64         `json:"total"`
	Items []domain.User `json:"items"`
}

// AdminHandler 管理端接口；鉴权（superuser）由分组中间件负责
type AdminHandler struct {
	svc *service.UserService
}

func NewAdminHandler(svc *service.UserService) *AdminHandler { return &AdminHandler{svc: svc} }

func (h *AdminHandler) MountAdmin(g *gin.RouterGroup) {
	ez := httpez.New(g)

	httpez.RegisterAction(ez, httpez.Action[ListQuery, UserPage]{
		Method:  http.MethodGet,
		Path:    "/users",
		Binder:  httpez.BindQuery,
		Handler: h.list,
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, *domain.User]{
		Method: http.MethodPost,
		Path:   "/users/:id/deactivate",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.setActive(c, false)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, *domain.User]{
		Method: http.MethodPost,
		Path:   "/users/:id/activate",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.setActive(c, true)
		},
	})
}

// list 总数与分页并发查
func (h *AdminHandler) list(c *gin.Context, in *ListQuery) (UserPage, error) {
	var page UserPage
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		page.Total, err = h.svc.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		page.Items, err = h.svc.List(ctx, in.Skip, in.Limit)
		return err
	})
	if err := g.Wait(); err != nil {
		return UserPage{}, err
	}
	return page, nil
}

func (h *AdminHandler) setActive(c *gin.Context, active bool) (*domain.User, error) {
	id, err := httpez.ParamInt64(c, "id")
	if err != nil {
		return nil, err
	}
	if me := mdw.CurrentUser(c); me != nil && me.ID == id && !active {
		return nil, httpez.BadRequest("superusers can not deactivate themselves")
	}
	u, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		return nil, mapErr(err)
	}
	u, err = h.svc.SetActive(c.Request.Context(), u, active)
	return u, mapErr(err)
}
