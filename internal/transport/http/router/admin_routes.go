package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freelance-market/internal/transport/http/ez"
)

// adminModule 挂在已校验 admin 角色的分组下
type adminModule struct{ d *Deps }

type listUsersQ struct {
	Page int    `form:"page,default=1"`
	Size int    `form:"size,default=20"`
	Q    string `form:"q"` // 按 email/username 模糊搜
}

type listUsersOut struct {
	Total int64      `json:"total"`
	Page  int        `json:"page"`
	Items []userView `json:"items"`
}

func (m *adminModule) MountAdmin(admin *gin.RouterGroup) {
	d := m.d
	e := ez.New(admin, d.Log)

	ez.RegisterAction(e, ez.Action[listUsersQ, listUsersOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *listUsersQ) (listUsersOut, error) {
			us, total, err := d.Identity.List(c.Request.Context(), in.Q, in.Page, in.Size)
			if err != nil {
				return listUsersOut{}, err
			}
			out := listUsersOut{Total: total, Page: in.Page, Items: make([]userView, 0, len(us))}
			for i := range us {
				out.Items = append(out.Items, toUserView(&us[i]))
			}
			return out, nil
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/users/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			if err := d.Identity.Delete(c.Request.Context(), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	mountOverrides(e, d, false)
}
