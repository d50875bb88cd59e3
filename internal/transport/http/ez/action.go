// Package ez 非 CRUD 动作的一行注册：绑定、鉴权、统一错误映射与响应包装
package ez

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"freelance-market/internal/domain"
	resp "freelance-market/internal/transport/http/response"
	"freelance-market/pkg/validation"
)

// context key；KeyRequestID 同时用作请求头名
const (
	KeyUserID    = "userId"
	KeyRole      = "role"
	KeyRequestID = "X-Request-ID"
)

type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, l *zap.Logger) EZ { return EZ{g: g, log: l} }

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindForm  Binder = "form"  // multipart/form-data 或 urlencoded
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param / c.PostForm 取
)

// 统一错误对象（配合 resp.Error(int, msg)）
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: resp.CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string   // "GET" | "POST" | "PUT" | "PATCH" | "DELETE"
	Path    string   // 例："/login"、"/services/:id/complete"
	Binder  Binder   // 绑定方式
	Auth    bool     // 是否要求登录（检查 userId）
	Roles   []string // 限定角色（可选）
	Handler func(c *gin.Context, in *I) (O, error)
}

// RegisterAction 在当前 EZ 下注册动作接口；事务由 service 层负责
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		// 1) 鉴权/角色
		if a.Auth {
			if UserID(c) == 0 {
				resp.Abort(c, resp.CodeUnauthorized, "unauthorized")
				return
			}
			if len(a.Roles) > 0 && !hasRole(c.GetString(KeyRole), a.Roles) {
				resp.Abort(c, resp.CodeForbidden, "forbidden")
				return
			}
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		case BindForm:
			bindErr = c.ShouldBind(&in)
		default: // BindNone: 不绑定
		}
		if bindErr != nil {
			resp.Abort(c, resp.CodeBadRequest, bindMessage(bindErr))
			return
		}

		// 3) 执行
		out, err := a.Handler(c, &in)

		// 4) 统一错误映射
		if err != nil {
			code, msg := e.mapError(c, err)
			c.JSON(resp.Status(code), resp.Error(code, msg))
			return
		}
		c.JSON(http.StatusOK, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}

func hasRole(role string, roles []string) bool {
	for _, r := range roles {
		if role == r {
			return true
		}
	}
	return false
}

func bindMessage(err error) string {
	if msgs := validation.FormatValidationError(err); len(msgs) > 0 {
		return strings.Join(msgs, "; ")
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return "request body too large"
	}
	return "invalid request: " + err.Error()
}

// mapError 业务错误按 Kind 映射；未知错误记日志并返回 500
func (e EZ) mapError(c *gin.Context, err error) (int, string) {
	var ae *AErr
	if errors.As(err, &ae) {
		if ae.Code >= resp.CodeServerError {
			e.log.Error("action failed", zap.String("path", c.FullPath()), zap.Error(err))
		}
		return ae.Code, ae.Error()
	}
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return resp.CodeNotFound, err.Error()
	case domain.KindForbidden:
		return resp.CodeForbidden, err.Error()
	case domain.KindInvalidCredentials, domain.KindInvalidToken, domain.KindExpiredToken:
		return resp.CodeUnauthorized, err.Error()
	case domain.KindValidation, domain.KindInvalidState, domain.KindPrecondition,
		domain.KindDuplicateResponse, domain.KindDuplicateRating,
		domain.KindInsufficientFunds, domain.KindConflict:
		return resp.CodeBadRequest, err.Error()
	}
	e.log.Error("action failed", zap.String("path", c.FullPath()), zap.String("rid", c.GetString(KeyRequestID)), zap.Error(err))
	return resp.CodeServerError, resp.CodeMsgMap[resp.CodeServerError]
}

// UserID 由鉴权中间件写入；未登录返回 0
func UserID(c *gin.Context) uint64 {
	v, ok := c.Get(KeyUserID)
	if !ok {
		return 0
	}
	id, _ := v.(uint64)
	return id
}

// ParamID 解析路径中的数字 id
func ParamID(c *gin.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, BadRequest("invalid " + name)
	}
	return id, nil
}
