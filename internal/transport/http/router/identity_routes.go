package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"freelance-market/internal/domain"
	"freelance-market/internal/service"
	"freelance-market/internal/transport/http/ez"
	mdw "freelance-market/internal/transport/http/middleware"
)

// identityModule 注册、登录、改密、注销与公开的用户信息
type identityModule struct{ d *Deps }

func (m *identityModule) Priority() int { return 10 }

type registerIn struct {
	Username string `json:"username" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginIn struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

type tokenOut struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

type changePasswordIn struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

func (m *identityModule) MountAPI(api *gin.RouterGroup) {
	d := m.d
	limited := api.Group("", authLimiter(d.HTTP)...)
	authed := api.Group("", mdw.AuthJWT(d.Identity, ""))

	pub := ez.New(limited, d.Log)
	ez.RegisterAction(pub, ez.Action[registerIn, tokenOut]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *registerIn) (tokenOut, error) {
			u, tok, err := d.Identity.Register(c.Request.Context(), in.Username, in.Email, in.Password)
			if err != nil {
				return tokenOut{}, err
			}
			return tokenOut{Token: tok, User: toUserView(u)}, nil
		},
	})
	ez.RegisterAction(pub, ez.Action[loginIn, tokenOut]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (tokenOut, error) {
			login := strings.TrimSpace(in.Username)
			if login == "" {
				login = strings.TrimSpace(in.Email)
			}
			if login == "" {
				return tokenOut{}, ez.BadRequest("username or email is required")
			}
			u, err := d.Identity.Authenticate(c.Request.Context(), login, in.Password)
			if err != nil {
				return tokenOut{}, err
			}
			tok, err := d.Identity.IssueToken(u)
			if err != nil {
				return tokenOut{}, ez.Internal("issue token failed", err)
			}
			return tokenOut{Token: tok, User: toUserView(u)}, nil
		},
	})

	auth := ez.New(authed, d.Log)
	ez.RegisterAction(auth, ez.Action[changePasswordIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/change-password",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *changePasswordIn) (gin.H, error) {
			err := d.Identity.ChangePassword(c.Request.Context(), ez.UserID(c), in.CurrentPassword, in.NewPassword, in.ConfirmPassword)
			if err != nil {
				return nil, err
			}
			return gin.H{"message": "password changed"}, nil
		},
	})
	ez.RegisterAction(auth, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/users/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			if id != ez.UserID(c) {
				return nil, domain.Forbidden("you can only delete your own account")
			}
			if err := d.Identity.Delete(c.Request.Context(), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	open := ez.New(api, d.Log)
	ez.RegisterAction(open, ez.Action[struct{}, *service.PublicUser]{
		Method: http.MethodGet,
		Path:   "/users/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*service.PublicUser, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			return d.Identity.Get(c.Request.Context(), id)
		},
	})
	ez.RegisterAction(open, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/users/:id/avatar",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			img, err := d.Identity.Avatar(c.Request.Context(), id)
			if err != nil {
				return nil, err
			}
			return gin.H{"imagePath": img}, nil
		},
	})
	ez.RegisterAction(open, ez.Action[struct{}, domain.RatingSummary]{
		Method: http.MethodGet,
		Path:   "/users/:id/rating",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (domain.RatingSummary, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return domain.RatingSummary{}, err
			}
			return d.Reputation.AverageFor(c.Request.Context(), id)
		},
	})
}
