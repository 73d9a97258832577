package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "eatme/pkg/errors"
	httputil "eatme/pkg/http"
	"eatme/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Principal is the caller identified by a verified bearer token.
type Principal struct {
	UID   string
	Role  string
	Email string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok && p.UID != ""
}

// Authenticate verifies an HS256 bearer token when one is sent and stores the
// Principal on the request. Requests without a token pass through anonymously;
// routes that need a caller wrap their handler in RequireUser or RequireAdmin.
func Authenticate(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(raw) == "" {
				reject(w, log, apperrors.Unauthorized("Authorization header must be 'Bearer <token>'"))
				return
			}

			principal, err := ParseToken(strings.TrimSpace(raw), secret)
			if err != nil {
				log.Warn("Rejected bearer token",
					"request_id", RequestIDFromContext(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				reject(w, log, apperrors.Unauthorized("Invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func ParseToken(raw, secret string) (Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Principal{}, err
	}
	if !token.Valid {
		return Principal{}, errors.New("token is not valid")
	}
	if claims.Subject == "" {
		return Principal{}, errors.New("token has no subject")
	}

	role := claims.Role
	if role == "" {
		role = RoleCustomer
	}
	return Principal{UID: claims.Subject, Role: role, Email: claims.Email}, nil
}

func RequireUser(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if _, ok := PrincipalFromContext(r.Context()); !ok {
			_ = httputil.WriteError(w, apperrors.Unauthorized("Authentication required"))
			return
		}
		next(w, r, ps)
	}
}

func RequireAdmin(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			_ = httputil.WriteError(w, apperrors.Unauthorized("Authentication required"))
			return
		}
		if !p.IsAdmin() {
			_ = httputil.WriteError(w, apperrors.Forbidden("Admin role required"))
			return
		}
		next(w, r, ps)
	}
}
