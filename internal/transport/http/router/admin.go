package router

import (
	"github.com/gin-gonic/gin"

	"freelance-market/internal/domain"
	mdw "freelance-market/internal/transport/http/middleware"
)

func NewAdminEngine(d *Deps) *gin.Engine {
	r := newEngine(d, "admin")

	// 管理端 v1（统一要求 admin 角色）
	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(d.Identity, domain.RoleAdmin))

	MountAllAdmin(admin, &adminModule{d: d})
	return r
}
