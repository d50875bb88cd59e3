package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"freelance-market/internal/transport/http/ez"
	mdw "freelance-market/internal/transport/http/middleware"
)

// financeModule 余额、提现与流水
type financeModule struct{ d *Deps }

func (m *financeModule) Priority() int { return 30 }

type withdrawIn struct {
	Amount decimal.Decimal `json:"amount"`
}

func (m *financeModule) MountAPI(api *gin.RouterGroup) {
	d := m.d
	auth := ez.New(api.Group("", mdw.AuthJWT(d.Identity, "")), d.Log)

	ez.RegisterAction(auth, ez.Action[withdrawIn, txView]{
		Method: http.MethodPost,
		Path:   "/withdraw",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *withdrawIn) (txView, error) {
			t, err := d.Ledger.Withdraw(c.Request.Context(), ez.UserID(c), in.Amount)
			if err != nil {
				return txView{}, err
			}
			return txView{ID: t.ID, Amount: t.Amount.InexactFloat64(), Status: t.Status, CreatedAt: fmtTime(t.CreatedAt)}, nil
		},
	})
	ez.RegisterAction(auth, ez.Action[struct{}, financeView]{
		Method: http.MethodGet,
		Path:   "/finances",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (financeView, error) {
			s, err := d.Ledger.Summary(c.Request.Context(), ez.UserID(c))
			if err != nil {
				return financeView{}, err
			}
			return toFinanceView(s), nil
		},
	})
}
