// Package admin guards store-side catalog administration with a shared token.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "charitydrive/pkg/domain-errors"
	"charitydrive/pkg/platform/httputil"
	request "charitydrive/pkg/platform/middleware/request"
)

// HeaderAdminToken carries the shared catalog administration token.
const HeaderAdminToken = "X-Admin-Token"

var errAdminToken = dErrors.New(dErrors.CodeUnauthorized, "admin token required")

// RequireAdminToken rejects requests whose X-Admin-Token differs from
// expectedToken. An empty expectedToken disables the guarded routes.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	expected := []byte(expectedToken)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sent := []byte(r.Header.Get(HeaderAdminToken))
			if len(expected) > 0 && subtle.ConstantTimeCompare(sent, expected) == 1 {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			logger.WarnContext(ctx, "catalog admin request rejected",
				"request_id", request.GetRequestID(ctx),
				"token_sent", len(sent) > 0,
			)
			httputil.WriteError(w, errAdminToken)
		})
	}
}
