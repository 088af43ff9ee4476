package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeVerifier struct{ tokens map[string]string }

func (f *fakeVerifier) Lookup(ctx context.Context, token string) (string, error) {
	return f.tokens[token], nil
}

func TestRequireToken(t *testing.T) {
	v := &fakeVerifier{tokens: map[string]string{"good-token": "alice"}}

	var gotUser string
	h := RequireToken(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = Username(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer good-token", http.StatusNoContent},
		{"case-insensitive scheme", "bearer good-token", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotUser = ""
			req := httptest.NewRequest(http.MethodPost, "/api/products", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tc.status, rr.Code)
			if tc.status == http.StatusNoContent {
				assert.Equal(t, "alice", gotUser)
			} else {
				assert.Empty(t, gotUser)
			}
		})
	}
}
