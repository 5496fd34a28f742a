package gee

import "net/http"

// ResponseWriter 记下状态码和写出的字节数，给访问日志和指标用。
// 状态码只认第一次写，之后的 WriteHeader 被忽略。
type ResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
	sent   bool
}

func newResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (w *ResponseWriter) WriteHeader(code int) {
	if w.sent {
		return
	}
	w.status, w.sent = code, true
	w.ResponseWriter.WriteHeader(code)
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	w.WriteHeader(http.StatusOK)
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

func (w *ResponseWriter) SetHeader(key string, value string) {
	w.Header().Set(key, value)
}

// Flush 透传给底层 writer；不支持时什么也不做
func (w *ResponseWriter) Flush() {
	w.WriteHeader(http.StatusOK)
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap 让 http.ResponseController 能拿到底层 writer
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *ResponseWriter) Status() int   { return w.status }
func (w *ResponseWriter) Size() int     { return w.size }
func (w *ResponseWriter) Written() bool { return w.sent }
