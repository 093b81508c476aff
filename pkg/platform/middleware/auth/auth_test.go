package auth

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	id "charitydrive/pkg/domain"
	"charitydrive/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*JWTClaims, error) {
	return s.claims, s.err
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	account := id.NewAccountID()

	var seen id.AccountID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.Caller(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name      string
		header    string
		validator stubValidator
		want      int
	}{
		{"valid token sets caller", "Bearer good", stubValidator{claims: &JWTClaims{Account: account.String()}}, http.StatusOK},
		{"missing header", "", stubValidator{}, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", stubValidator{}, http.StatusUnauthorized},
		{"validator rejects", "Bearer bad", stubValidator{err: errors.New("expired")}, http.StatusUnauthorized},
		{"nil account claim", "Bearer nil", stubValidator{claims: &JWTClaims{Account: "00000000-0000-0000-0000-000000000000"}}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = id.AccountID{}
			req := httptest.NewRequest(http.MethodGet, "/marketplace/credit", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			RequireAuth(tt.validator, logger)(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, account, seen)
			} else {
				assert.True(t, seen.IsNil())
			}
		})
	}
}
