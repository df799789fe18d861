package router

import (
	"github.com/gin-gonic/gin"

	"user-management-service/internal/core/auth"
	mdw "user-management-service/internal/transport/http/middleware"
)

// NewAdminEngine 管理端：整个分组统一走 superuser 链路
func NewAdminEngine(o Options, superuser auth.Guard, mods *Registry) *gin.Engine {
	o.defaults("/admin/v1")
	r := newEngine(o, "admin")

	admin := r.Group(o.Prefix)
	admin.Use(mdw.Auth(superuser))
	mods.MountAdmin(admin)
	return r
}
