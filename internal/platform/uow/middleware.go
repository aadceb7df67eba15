package uow

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"sns_backend/internal/shared/apperror"
)

// bufferedWriter holds the handler's response until the transaction has finished,
// so nothing reaches the client before commit or rollback.
type bufferedWriter struct {
	gin.ResponseWriter
	status  int
	written bool
	body    bytes.Buffer
}

func newBufferedWriter(w gin.ResponseWriter) *bufferedWriter {
	return &bufferedWriter{ResponseWriter: w, status: http.StatusOK}
}

func (w *bufferedWriter) WriteHeader(code int) {
	if code > 0 {
		w.status = code
	}
}

func (w *bufferedWriter) WriteHeaderNow() {
	w.written = true
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.body.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	w.written = true
	return w.body.WriteString(s)
}

func (w *bufferedWriter) Status() int  { return w.status }
func (w *bufferedWriter) Written() bool { return w.written }

func (w *bufferedWriter) Size() int {
	if !w.written {
		return -1
	}
	return w.body.Len()
}

// Flush is a no-op while buffering.
func (w *bufferedWriter) Flush() {}

func (w *bufferedWriter) flushTo(dst gin.ResponseWriter) {
	dst.WriteHeader(w.status)
	dst.WriteHeaderNow()
	if w.body.Len() > 0 {
		_, _ = dst.Write(w.body.Bytes())
	}
}

// errorStatus marks a handler that answered with an error status on its own.
type errorStatus int

func (e errorStatus) Error() string {
	return fmt.Sprintf("handler responded with status %d", int(e))
}

// Middleware wraps the rest of the chain in one transaction.
// The handle travels on c.Request.Context(). A handler fails the transaction by calling
// c.Error, which yields an opaque 500, or by writing a status >= 400 itself, which is kept.
func Middleware(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		orig := c.Writer
		buf := newBufferedWriter(orig)
		c.Writer = buf
		defer func() { c.Writer = orig }()

		var handlerErr error
		err := m.Do(c.Request.Context(), func(ctx context.Context) error {
			c.Request = c.Request.WithContext(ctx)
			c.Next()

			switch {
			case len(c.Errors) > 0:
				handlerErr = c.Errors.Last().Err
			case buf.status >= http.StatusBadRequest:
				handlerErr = errorStatus(buf.status)
			}
			return handlerErr
		})

		c.Writer = orig
		if err == nil {
			buf.flushTo(orig)
			return
		}
		if _, own := handlerErr.(errorStatus); own && buf.Written() {
			buf.flushTo(orig)
			return
		}
		apperror.Respond(c, err)
	}
}
