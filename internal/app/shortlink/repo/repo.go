package repo

import (
	"errors"

	"go.opentelemetry.io/otel/trace"
	"hashkey.local/internal/app/shortlink"
	"hashkey.local/internal/hashid"
	platformtrace "hashkey.local/internal/platform/trace"
)

// 找不到记录不算 span 错误
func endSpan(span trace.Span, err error) {
	if errors.Is(err, hashid.ErrNotFound) {
		err = nil
	}
	platformtrace.End(span, err)
}

var (
	_ shortlink.ShortlinkStore = (*ShortlinksRepo)(nil)
	_ shortlink.Resolver       = (*ShortlinksRepo)(nil)
	_ shortlink.UserStore      = (*UsersRepo)(nil)
)
