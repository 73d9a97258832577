package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eatme/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

const testSecret = "test-secret-with-enough-length-123"

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func claimsFor(sub, role string, ttl time.Duration) Claims {
	return Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
}

func TestAuthenticate(t *testing.T) {
	valid := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), claimsFor("user-1", "", time.Hour))
	expired := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), claimsFor("user-1", "", -time.Hour))
	wrongKey := signToken(t, jwt.SigningMethodHS256, []byte("another-secret"), claimsFor("user-1", "", time.Hour))
	noSubject := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), claimsFor("", "", time.Hour))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUID    string
	}{
		{"anonymous", "", http.StatusOK, ""},
		{"valid token", "Bearer " + valid, http.StatusOK, "user-1"},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"wrong key", "Bearer " + wrongKey, http.StatusUnauthorized, ""},
		{"missing subject", "Bearer " + noSubject, http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUID string
			h := Authenticate(testSecret, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if p, ok := PrincipalFromContext(r.Context()); ok {
					gotUID = p.UID
				}
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if gotUID != tt.wantUID {
				t.Errorf("uid = %q, want %q", gotUID, tt.wantUID)
			}
		})
	}
}

func TestParseToken_DefaultsRoleToCustomer(t *testing.T) {
	raw := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), claimsFor("u", "", time.Hour))
	p, err := ParseToken(raw, testSecret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Role != RoleCustomer || p.IsAdmin() {
		t.Errorf("role = %q, want customer", p.Role)
	}
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	raw := signToken(t, jwt.SigningMethodHS512, []byte(testSecret), claimsFor("u", RoleAdmin, time.Hour))
	if _, err := ParseToken(raw, testSecret); err == nil {
		t.Error("expected HS512 token to be rejected")
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name      string
		principal *Principal
		want      int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"customer", &Principal{UID: "u", Role: RoleCustomer}, http.StatusForbidden},
		{"admin", &Principal{UID: "a", Role: RoleAdmin}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.principal != nil {
				req = req.WithContext(WithPrincipal(req.Context(), *tt.principal))
			}
			rec := httptest.NewRecorder()
			handler(rec, req, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
