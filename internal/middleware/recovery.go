package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/josh-kwaku/ledgersync/internal/handler"
	"github.com/josh-kwaku/ledgersync/internal/logging"
)

// Recovery turns a handler panic into a 500 envelope. A panicking webhook is
// redelivered by the sending ledger like any other failure.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				logging.FromContext(r.Context()).Error("panic recovered",
					"method", r.Method,
					"path", r.URL.Path,
					"error", err,
					"stack", string(debug.Stack()),
				)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
