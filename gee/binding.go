package gee

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// MaxJSONBody 是 ShouldBindJSON 接受的最大请求体
const MaxJSONBody = 1 << 20

var (
	ErrEmptyBody    = errors.New("empty body")
	ErrBodyTooLarge = errors.New("request body too large")
	ErrTrailingData = errors.New("body must contain only one JSON value")
)

// ShouldBindJSON 只解析一个 JSON 值，拒绝未知字段和超长请求体
func (c *Context) ShouldBindJSON(dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(c.Writer, c.Req.Body, MaxJSONBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return ErrEmptyBody
		case errors.As(err, &tooLarge):
			return ErrBodyTooLarge
		}
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return ErrTrailingData
	}
	return nil
}

// BindJSON 解析失败时直接写错误响应：超长 413，其余 400
func (c *Context) BindJSON(dst any) error {
	err := c.ShouldBindJSON(dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrBodyTooLarge):
		c.AbortWithError(http.StatusRequestEntityTooLarge, err.Error())
	default:
		c.AbortWithError(http.StatusBadRequest, "Invalid json")
	}
	return err
}
