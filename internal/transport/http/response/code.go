package response

// 错误码直接使用 HTTP 状态码
const (
	CodeOK                  = 0
	CodeBadRequest          = 400
	CodeUnauthorized        = 401
	CodeForbidden           = 403
	CodeNotFound            = 404
	CodeConflict            = 409
	CodeEntityTooLarge      = 413
	CodeUnprocessableEntity = 422
	CodeTooManyRequests     = 429
	CodeServerError         = 500
	CodeServiceUnavailable  = 503
	CodeGatewayTimeout      = 504
)

// CodeMsgMap 用于集中管理 code - msg
var CodeMsgMap = map[int]string{
	CodeOK:                  "OK",
	CodeBadRequest:          "Bad Request",
	CodeUnauthorized:        "Unauthorized",
	CodeForbidden:           "Forbidden",
	CodeNotFound:            "Not Found",
	CodeConflict:            "Conflict",
	CodeEntityTooLarge:      "Request Entity Too Large",
	CodeUnprocessableEntity: "Unprocessable Entity",
	CodeTooManyRequests:     "Too Many Requests",
	CodeServerError:         "Internal Server Error",
	CodeServiceUnavailable:  "Service Unavailable",
	CodeGatewayTimeout:      "Gateway Timeout",
}
