package testutil

import (
	"net/http"

	id "charitydrive/pkg/domain"
	"charitydrive/pkg/requestcontext"
)

// WithCaller attaches account as the authenticated caller, as the auth
// middleware would. An unparsable account leaves req anonymous.
func WithCaller(req *http.Request, account string) *http.Request {
	parsed, err := id.ParseAccountID(account)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithCaller(req.Context(), parsed))
}
