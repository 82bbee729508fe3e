package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go-contacts-api/internal/access"
	"go-contacts-api/internal/model"
	"go-contacts-api/pkg/apierror"
)

type tokenVerifier interface {
	VerifyAccessToken(token string) (*model.AuthClaims, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

// queryTokenParam carries the access token for clients, such as browser
// WebSockets, that cannot set an Authorization header.
const queryTokenParam = "access_token"

type AuthMiddleware struct {
	verifier tokenVerifier
}

func NewAuthMiddleware(verifier tokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return m.authenticate(next, false)
}

// RequireAuthOrQueryToken is RequireAuth that also accepts the token in the
// access_token query parameter.
func (m *AuthMiddleware) RequireAuthOrQueryToken(next http.Handler) http.Handler {
	return m.authenticate(next, true)
}

func (m *AuthMiddleware) authenticate(next http.Handler, allowQuery bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok && allowQuery {
			token = strings.TrimSpace(r.URL.Query().Get(queryTokenParam))
			ok = token != ""
		}
		if !ok {
			writeError(w, r, http.StatusUnauthorized, apierror.KindUnauthorized.String(), "no token provided")
			return
		}

		claims, err := m.verifier.VerifyAccessToken(token)
		if err != nil {
			message := "invalid or expired token"
			var apiErr *apierror.APIError
			if errors.As(err, &apiErr) && apiErr.Message != "" {
				message = apiErr.Message
			}
			writeError(w, r, http.StatusUnauthorized, apierror.KindUnauthorized.String(), message)
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAction rejects callers whose role the access policy does not allow
// for action. Ownership is checked later, once the resource is loaded.
func (m *AuthMiddleware) RequireAction(action access.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeError(w, r, http.StatusUnauthorized, apierror.KindUnauthorized.String(), "no token provided")
				return
			}

			if err := access.RequireRole(access.RuleFor(action).Roles, claims.Role); err != nil {
				writeError(w, r, http.StatusForbidden, apierror.KindForbidden.String(), "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*model.AuthClaims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(*model.AuthClaims)
	return claims, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}
