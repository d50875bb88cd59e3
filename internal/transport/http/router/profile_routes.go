package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freelance-market/internal/service"
	"freelance-market/internal/transport/http/ez"
	mdw "freelance-market/internal/transport/http/middleware"
)

// profileModule 执行者资料
type profileModule struct{ d *Deps }

func (m *profileModule) Priority() int { return 40 }

type profileIn struct {
	Name        *string `form:"name" binding:"omitempty,max=100"`
	Surname     *string `form:"surname" binding:"omitempty,max=40"`
	Email       *string `form:"email" binding:"omitempty,email"`
	Phone       *string `form:"number" binding:"omitempty,max=20"`
	Country     *string `form:"country" binding:"omitempty,max=50"`
	City        *string `form:"city" binding:"omitempty,max=30"`
	Description *string `form:"description"`
}

func (m *profileModule) MountAPI(api *gin.RouterGroup) {
	d := m.d
	auth := ez.New(api.Group("", mdw.AuthJWT(d.Identity, "")), d.Log)

	ez.RegisterAction(auth, ez.Action[profileIn, *service.ProfileView]{
		Method: http.MethodPost,
		Path:   "/worker",
		Binder: ez.BindForm,
		Auth:   true,
		Handler: func(c *gin.Context, in *profileIn) (*service.ProfileView, error) {
			img, closeImg, err := formImage(c, "image")
			if err != nil {
				return nil, err
			}
			defer closeImg()
			uid := ez.UserID(c)
			_, err = d.Profiles.Upsert(c.Request.Context(), uid, service.ProfileInput{
				Name:        in.Name,
				Surname:     in.Surname,
				Email:       in.Email,
				Phone:       in.Phone,
				Country:     in.Country,
				City:        in.City,
				Description: in.Description,
			}, img)
			if err != nil {
				return nil, err
			}
			return d.Profiles.Me(c.Request.Context(), uid)
		},
	})
	ez.RegisterAction(auth, ez.Action[struct{}, *service.ProfileView]{
		Method: http.MethodGet,
		Path:   "/worker/me",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*service.ProfileView, error) {
			return d.Profiles.Me(c.Request.Context(), ez.UserID(c))
		},
	})
}
