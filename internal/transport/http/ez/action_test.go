package ez

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"freelance-market/internal/domain"
	"freelance-market/pkg/validation"
)

type echoIn struct {
	Name string `json:"name" binding:"required"`
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func newGroup(t *testing.T, uid uint64, role string) (*gin.Engine, EZ) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.UseWireNames()
	r := gin.New()
	g := r.Group("/", func(c *gin.Context) {
		if uid != 0 {
			c.Set(KeyUserID, uid)
			c.Set(KeyRole, role)
		}
		c.Next()
	})
	return r, New(g, zap.NewNop())
}

func call(t *testing.T, r *gin.Engine, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w.Code, env
}

func TestRegisterAction_BindsAndWraps(t *testing.T) {
	r, e := newGroup(t, 0, "")
	RegisterAction(e, Action[echoIn, string]{
		Method: http.MethodPost, Path: "/echo", Binder: BindJSON,
		Handler: func(_ *gin.Context, in *echoIn) (string, error) { return "hi " + in.Name, nil },
	})

	code, env := call(t, r, http.MethodPost, "/echo", `{"name":"bob"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, env.Code)
	assert.JSONEq(t, `"hi bob"`, string(env.Data))

	code, env = call(t, r, http.MethodPost, "/echo", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "name is required", env.Msg)
}

func TestRegisterAction_AuthAndRoles(t *testing.T) {
	noop := func(_ *gin.Context, _ *struct{}) (int, error) { return 1, nil }

	r, e := newGroup(t, 0, "")
	RegisterAction(e, Action[struct{}, int]{Method: http.MethodGet, Path: "/me", Binder: BindNone, Auth: true, Handler: noop})
	code, _ := call(t, r, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	r, e = newGroup(t, 7, "user")
	RegisterAction(e, Action[struct{}, int]{Method: http.MethodGet, Path: "/adm", Binder: BindNone, Auth: true, Roles: []string{"admin"}, Handler: noop})
	code, _ = call(t, r, http.MethodGet, "/adm", "")
	assert.Equal(t, http.StatusForbidden, code)

	r, e = newGroup(t, 7, "admin")
	RegisterAction(e, Action[struct{}, int]{Method: http.MethodGet, Path: "/adm", Binder: BindNone, Auth: true, Roles: []string{"admin"}, Handler: noop})
	code, _ = call(t, r, http.MethodGet, "/adm", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestRegisterAction_MapsDomainErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.NotFound("listing not found"), http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", domain.Forbidden("not yours")), http.StatusForbidden},
		{domain.ErrExpiredToken, http.StatusUnauthorized},
		{domain.ErrInsufficientFunds, http.StatusBadRequest},
		{domain.InvalidState("listing is not open"), http.StatusBadRequest},
		{BadRequest("invalid id"), http.StatusBadRequest},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		r, e := newGroup(t, 0, "")
		err := tc.err
		RegisterAction(e, Action[struct{}, any]{
			Method: http.MethodDelete, Path: "/x", Binder: BindNone,
			Handler: func(*gin.Context, *struct{}) (any, error) { return nil, err },
		})
		code, env := call(t, r, http.MethodDelete, "/x", "")
		assert.Equal(t, tc.want, code, tc.err.Error())
		assert.Equal(t, tc.want, env.Code)
		if tc.want == http.StatusInternalServerError {
			assert.NotContains(t, env.Msg, "db down")
		} else {
			assert.Equal(t, tc.err.Error(), env.Msg)
		}
	}
}

func TestParamID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, tc := range []struct {
		raw string
		id  uint64
		ok  bool
	}{{"12", 12, true}, {"0", 0, false}, {"abc", 0, false}, {"-1", 0, false}} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Params = gin.Params{{Key: "id", Value: tc.raw}}
		id, err := ParamID(c, "id")
		if tc.ok {
			require.NoError(t, err)
			assert.Equal(t, tc.id, id)
		} else {
			assert.Error(t, err)
		}
	}
}
