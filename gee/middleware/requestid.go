package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"hashkey.local/gee"
)

// maxRequestIDLen 上游传入的 ID 超过这个长度就重新生成
const maxRequestIDLen = 64

// ReqID 复用上游（网关/反代）传入的请求 ID，不合法或缺失时生成一个，
// 同时写回请求头和响应头，后续日志和错误响应都从请求头取。
func ReqID() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		id := ctx.Req.Header.Get(gee.RequestIDHeader)
		if !validRequestID(id) {
			id = GenerateReqID()
			ctx.Req.Header.Set(gee.RequestIDHeader, id)
		}
		ctx.SetHeader(gee.RequestIDHeader, id)

		ctx.Next()
	}
}

// validRequestID 只接受 [A-Za-z0-9._-]，避免把换行之类的字符带进日志
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}

// GenerateReqID 返回 32 个十六进制字符；随机源不可用时退回纳秒时间戳
func GenerateReqID() string {
	src := make([]byte, 16)
	if _, err := rand.Read(src); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(src)
}
