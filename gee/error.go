package gee

import "net/http"

// RequestIDHeader 由 middleware.ReqID 写入请求和响应
const RequestIDHeader = "X-Request-ID"

// ErrorResponse 是所有错误响应的 JSON 体。
// Param 只在路由绑定失败时出现，指出是哪个路由参数没解析出来。
type ErrorResponse struct {
	Code      int
	Message   string
	RequestId string
	Param     string `json:",omitempty"`
}

func newErrorResponse(req *http.Request, code int, message string) ErrorResponse {
	return ErrorResponse{
		Code:      code,
		Message:   message,
		RequestId: req.Header.Get(RequestIDHeader), //没有就空
	}
}

func (c *Context) AbortWithError(code int, message string) {
	c.AbortWithStatusJSON(code, newErrorResponse(c.Req, code, message))
}

// AbortWithBindError 同 AbortWithError，额外带上出错的路由参数名
func (c *Context) AbortWithBindError(code int, param, message string) {
	resp := newErrorResponse(c.Req, code, message)
	resp.Param = param
	c.AbortWithStatusJSON(code, resp)
}
