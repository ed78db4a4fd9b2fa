package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/markjakearzadon/eduplus-gobackend/internal/auth"
	"github.com/markjakearzadon/eduplus-gobackend/internal/models"
	"github.com/markjakearzadon/eduplus-gobackend/internal/respond"
)

type contextKey string

const (
	emailKey contextKey = "email"
	roleKey  contextKey = "role"
)

// RoleResolver looks up the stored role for a verified email. An unknown
// email yields an empty role and a nil error.
type RoleResolver interface {
	RoleByEmail(ctx context.Context, email string) (models.Role, error)
}

// ForbiddenError reports a role mismatch.
type ForbiddenError struct {
	Expected models.Role
	Actual   models.Role
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("role %q required, caller has %q", e.Expected, e.Actual)
}

// CheckRole allows only an exact match.
func CheckRole(required, actual models.Role) error {
	if actual != required {
		return &ForbiddenError{Expected: required, Actual: actual}
	}
	return nil
}

// Authenticator runs the verify -> resolve -> gate pipeline.
type Authenticator struct {
	verifier auth.Verifier
	roles    RoleResolver
	log      *zap.Logger
}

func NewAuthenticator(verifier auth.Verifier, roles RoleResolver, log *zap.Logger) *Authenticator {
	return &Authenticator{verifier: verifier, roles: roles, log: log}
}

// Authenticate verifies the bearer token and stores the caller's email in
// the request context.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized access")
			return
		}

		email, err := a.verifier.Verify(r.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrUnauthenticated) {
				a.log.Error("token verification failed", zap.String("path", r.URL.Path), zap.Error(err))
				respond.Error(w, http.StatusInternalServerError, err.Error())
				return
			}
			a.log.Info("token rejected", zap.String("path", r.URL.Path), zap.Error(err))
			respond.Error(w, http.StatusUnauthorized, "unauthorized access")
			return
		}

		ctx := context.WithValue(r.Context(), emailKey, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ResolveRole loads the caller's role and stores it in the request context.
// It must run after Authenticate.
func (a *Authenticator) ResolveRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, ok := a.withRole(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Require returns a gate that lets the request through only when the
// caller's role equals role. It resolves the role itself when ResolveRole
// has not run.
func (a *Authenticator) Require(role models.Role) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, ok := a.withRole(w, r)
			if !ok {
				return
			}
			actual, _ := RoleFrom(r.Context())

			if err := CheckRole(role, actual); err != nil {
				a.log.Info("role gate rejected request",
					zap.String("path", r.URL.Path),
					zap.String("expected", string(role)),
					zap.String("role", string(actual)),
				)
				respond.JSON(w, http.StatusForbidden, respond.ErrorBody{
					Message:  fmt.Sprintf("%s only", role),
					Expected: string(role),
					Role:     string(actual),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *Authenticator) withRole(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	if _, ok := RoleFrom(r.Context()); ok {
		return r, true
	}

	email := EmailFrom(r.Context())
	if email == "" {
		respond.Error(w, http.StatusUnauthorized, "unauthorized access")
		return r, false
	}

	role, err := a.roles.RoleByEmail(r.Context(), email)
	if err != nil {
		a.log.Error("resolve role failed", zap.String("email", email), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, err.Error())
		return r, false
	}

	ctx := context.WithValue(r.Context(), roleKey, role)
	return r.WithContext(ctx), true
}

// EmailFrom returns the verified caller email, or "" outside Authenticate.
func EmailFrom(ctx context.Context) string {
	email, _ := ctx.Value(emailKey).(string)
	return email
}

// RoleFrom returns the resolved caller role. ok is false when no role has
// been resolved for this request.
func RoleFrom(ctx context.Context) (models.Role, bool) {
	role, ok := ctx.Value(roleKey).(models.Role)
	return role, ok
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
