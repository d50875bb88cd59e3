package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"freelance-market/internal/domain"
	"freelance-market/internal/service"
	"freelance-market/internal/transport/http/ez"
	mdw "freelance-market/internal/transport/http/middleware"
)

// listingModule 订单的发布、查询与状态流转
type listingModule struct{ d *Deps }

func (m *listingModule) Priority() int { return 20 }

type createListingIn struct {
	FreelancerName string `form:"freelancerName" binding:"max=100"`
	Title          string `form:"serviceTitle" binding:"required,max=100"`
	Description    string `form:"description" binding:"required"`
	Price          string `form:"price" binding:"required"`
	Duration       int    `form:"duration" binding:"gte=0"`
	Skills         string `form:"skills" binding:"max=255"`
	Category       string `form:"category" binding:"required,max=50"`
}

type respondIn struct {
	Name string `json:"name" binding:"required,max=100"`
}

type rateIn struct {
	Rating float64 `json:"rating" binding:"required"`
}

type statusIn struct {
	Status string `json:"status" binding:"required"`
}

type reviewsIn struct {
	Reviews *int `json:"reviews" binding:"required"`
}

func (m *listingModule) MountAPI(api *gin.RouterGroup) {
	d := m.d
	authed := api.Group("", mdw.AuthJWT(d.Identity, ""))
	open, auth := ez.New(api, d.Log), ez.New(authed, d.Log)

	ez.RegisterAction(auth, ez.Action[createListingIn, listingView]{
		Method: http.MethodPost,
		Path:   "/services",
		Binder: ez.BindForm,
		Auth:   true,
		Handler: func(c *gin.Context, in *createListingIn) (listingView, error) {
			price, err := decimal.NewFromString(in.Price)
			if err != nil {
				return listingView{}, ez.BadRequest("price must be a number")
			}
			img, closeImg, err := formImage(c, "image")
			if err != nil {
				return listingView{}, err
			}
			defer closeImg()
			l, err := d.Registry.Create(c.Request.Context(), ez.UserID(c), domain.NewListing{
				FreelancerName: in.FreelancerName,
				Title:          in.Title,
				Description:    in.Description,
				Price:          price,
				Duration:       in.Duration,
				Skills:         in.Skills,
				Category:       in.Category,
			}, img)
			if err != nil {
				return listingView{}, err
			}
			return toListingView(l), nil
		},
	})

	ez.RegisterAction(open, ez.Action[struct{}, []listingView]{
		Method: http.MethodGet,
		Path:   "/services",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]listingView, error) {
			ls, err := d.Registry.List(c.Request.Context())
			if err != nil {
				return nil, err
			}
			return toListingViews(ls), nil
		},
	})
	ez.RegisterAction(open, ez.Action[struct{}, []string]{
		Method: http.MethodGet,
		Path:   "/services/categories",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]string, error) {
			cats, err := d.Registry.ListCategories(c.Request.Context())
			if cats == nil {
				cats = []string{}
			}
			return cats, err
		},
	})
	ez.RegisterAction(open, ez.Action[struct{}, listingDetailView]{
		Method: http.MethodGet,
		Path:   "/services/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (listingDetailView, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return listingDetailView{}, err
			}
			l, err := d.Registry.GetByID(c.Request.Context(), id)
			if err != nil {
				return listingDetailView{}, err
			}
			return listingDetailView{listingView: toListingView(&l.Listing), Customer: l.Customer}, nil
		},
	})
	ez.RegisterAction(auth, ez.Action[struct{}, []listingView]{
		Method: http.MethodGet,
		Path:   "/my-services",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) ([]listingView, error) {
			ls, err := d.Registry.ListByOwner(c.Request.Context(), ez.UserID(c))
			if err != nil {
				return nil, err
			}
			return toListingViews(ls), nil
		},
	})
	ez.RegisterAction(auth, ez.Action[struct{}, []completedView]{
		Method: http.MethodGet,
		Path:   "/my-completed-services",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) ([]completedView, error) {
			ls, err := d.Registry.ListCompletedByWorker(c.Request.Context(), ez.UserID(c))
			if err != nil {
				return nil, err
			}
			out := make([]completedView, 0, len(ls))
			for i := range ls {
				out = append(out, completedView{listingView: toListingView(&ls[i].Listing), CustomerName: ls[i].CustomerName})
			}
			return out, nil
		},
	})

	// 旧版：只记录响应者名字
	ez.RegisterAction(open, ez.Action[respondIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/services/:id/responses",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *respondIn) (gin.H, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			l, err := d.Registry.Respond(c.Request.Context(), id, in.Name)
			if err != nil {
				return nil, err
			}
			return gin.H{"id": l.ID, "responses": l.Responses}, nil
		},
	})
	ez.RegisterAction(auth, ez.Action[struct{}, listingView]{
		Method: http.MethodPost,
		Path:   "/services/:id/respond",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (listingView, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return listingView{}, err
			}
			l, err := d.Registry.Assign(c.Request.Context(), id, ez.UserID(c))
			if err != nil {
				return listingView{}, err
			}
			return toListingView(l), nil
		},
	})
	ez.RegisterAction(auth, ez.Action[struct{}, gin.H]{
		Method: http.MethodPatch,
		Path:   "/services/:id/complete",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			bal, err := d.Registry.Complete(c.Request.Context(), id, ez.UserID(c))
			if err != nil {
				return nil, err
			}
			return gin.H{"id": id, "status": domain.StatusCompleted, "balance": bal.InexactFloat64()}, nil
		},
	})
	ez.RegisterAction(auth, ez.Action[rateIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/services/:id/rate",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *rateIn) (gin.H, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			if err := d.Registry.Rate(c.Request.Context(), id, ez.UserID(c), in.Rating); err != nil {
				return nil, err
			}
			return gin.H{"id": id, "rating": in.Rating}, nil
		},
	})
	ez.RegisterAction(auth, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/services/:id/has-rated",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			rated, err := d.Registry.HasRated(c.Request.Context(), id, ez.UserID(c))
			if err != nil {
				return nil, err
			}
			return gin.H{"hasRated": rated}, nil
		},
	})

	// 管理覆盖：默认公开，protect_overrides 打开后要求登录
	overrides := open
	if d.Market.ProtectOverrides {
		overrides = auth
	}
	mountOverrides(overrides, d, d.Market.ProtectOverrides)
}

// mountOverrides 状态与响应数的直接覆盖；用户端和管理端共用
func mountOverrides(e ez.EZ, d *Deps, requireAuth bool) {
	ez.RegisterAction(e, ez.Action[statusIn, gin.H]{
		Method: http.MethodPatch,
		Path:   "/services/:id/status",
		Binder: ez.BindJSON,
		Auth:   requireAuth,
		Handler: func(c *gin.Context, in *statusIn) (gin.H, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			st, err := d.Registry.SetStatus(c.Request.Context(), id, in.Status)
			if err != nil {
				return nil, err
			}
			return gin.H{"id": id, "status": st}, nil
		},
	})
	ez.RegisterAction(e, ez.Action[reviewsIn, gin.H]{
		Method: http.MethodPatch,
		Path:   "/services/:id/reviews",
		Binder: ez.BindJSON,
		Auth:   requireAuth,
		Handler: func(c *gin.Context, in *reviewsIn) (gin.H, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			if err := d.Registry.SetResponseCount(c.Request.Context(), id, *in.Reviews); err != nil {
				return nil, err
			}
			return gin.H{"id": id, "reviews": *in.Reviews}, nil
		},
	})
}

// formImage 可选的上传文件；返回的 close 总是可调用
func formImage(c *gin.Context, field string) (*service.Upload, func(), error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, ez.BadRequest("invalid " + field)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, ez.BadRequest("invalid " + field)
	}
	return &service.Upload{Filename: fh.Filename, Body: f}, func() { _ = f.Close() }, nil
}
