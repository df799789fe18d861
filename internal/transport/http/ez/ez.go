package ez

import (
	"context"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	resp "user-management-service/internal/transport/http/response"
)

func init() {
	// 校验错误里用 json/form 字段名，而不是 Go 字段名
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	}
}

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindForm  Binder = "form"  // application/x-www-form-urlencoded
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// AErr 携带 HTTP 状态码的错误，由 RegisterAction 统一输出
type AErr struct {
	Code int
	Msg  string
	Err  error
	Data any
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
func Conflict(msg string) error     { return &AErr{Code: resp.CodeConflict, Msg: msg} }
func Unprocessable(msg string, data any) error {
	return &AErr{Code: resp.CodeUnprocessableEntity, Msg: msg, Data: data}
}
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// FieldError 422 响应里的单个字段错误
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// BindError 把 gin/validator 的绑定错误转换为 422
func BindError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make([]FieldError, 0, len(ve))
		for _, fe := range ve {
			fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
		}
		return Unprocessable("validation failed", fields)
	}
	if errors.Is(err, io.EOF) {
		return Unprocessable("request body is required", nil)
	}
	return Unprocessable(err.Error(), nil)
}

// ParamInt64 读取路径参数；非整数返回 422
func ParamInt64(c *gin.Context, name string) (int64, error) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, Unprocessable("invalid path parameter",
			[]FieldError{{Field: name, Rule: "int"}})
	}
	return v, nil
}

// Abort 按错误类型输出响应；非 AErr 一律 500，原始错误只进日志
func Abort(c *gin.Context, err error) {
	var ae *AErr
	switch {
	case errors.As(err, &ae):
	case errors.Is(err, context.DeadlineExceeded):
		ae = &AErr{Code: resp.CodeGatewayTimeout, Msg: "timeout", Err: err}
	default:
		ae = &AErr{Code: resp.CodeServerError, Msg: "internal error", Err: err}
	}
	if ae.Code >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(ae.Code, resp.ErrorWithData(ae.Code, ae.Msg, ae.Data))
}

// Action I 入参，O 出参
type Action[I any, O any] struct {
	Method      string            // "GET" | "POST" | "PUT" | "DELETE"
	Path        string            // 例："/users/:id"
	Binder      Binder            // 绑定方式
	Status      int               // 成功状态码，默认 200；204 不写 body
	Middlewares []gin.HandlerFunc // 路由级中间件（例如鉴权链路）
	Handler     func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		case BindForm:
			bindErr = c.ShouldBindWith(&in, binding.Form)
		default:
		}
		if bindErr != nil {
			Abort(c, BindError(bindErr))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			Abort(c, err)
			return
		}
		if status == http.StatusNoContent {
			c.Status(status)
			return
		}
		c.JSON(status, out)
	}

	handlers := append(append([]gin.HandlerFunc{}, a.Middlewares...), h)
	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, handlers...)
	case http.MethodPut:
		e.g.PUT(a.Path, handlers...)
	case http.MethodDelete:
		e.g.DELETE(a.Path, handlers...)
	case http.MethodPatch:
		e.g.PATCH(a.Path, handlers...)
	default: // 默认 POST
		e.g.POST(a.Path, handlers...)
	}
}
