package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/taskhive/taskhive-be/internal/models"
)

// ErrNoToken is returned when a request carries no bearer token at all.
var ErrNoToken = errors.New("missing bearer token")

// UserResolver looks up the user record behind a token subject. The
// guard re-resolves on every request so tokens for deleted accounts
// stop working before they expire.
type UserResolver interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

type contextKey string

const principalKey = contextKey("principal")

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the Principal attached by the guard, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// Guard authenticates requests. It is the only component that attaches
// a Principal to a request context; handlers never trust identity
// fields supplied by the client.
type Guard struct {
	tokens *TokenService
	users  UserResolver
}

// NewGuard creates a Guard verifying tokens with tokens and resolving
// subjects through users.
func NewGuard(tokens *TokenService, users UserResolver) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// Authenticate extracts and verifies the bearer token on r and resolves
// the backing user record.
func (g *Guard) Authenticate(r *http.Request) (Principal, error) {
	return g.AuthenticateToken(r.Context(), bearerToken(r))
}

// AuthenticateToken verifies a raw token string and resolves the
// backing user record. Used directly by transports that cannot carry
// an Authorization header, such as websocket upgrades.
func (g *Guard) AuthenticateToken(ctx context.Context, tokenStr string) (Principal, error) {
	if tokenStr == "" {
		return Principal{}, ErrNoToken
	}

	claims, err := g.tokens.Verify(tokenStr)
	if err != nil {
		return Principal{}, err
	}

	user, err := g.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			// Token outlived its account.
			return Principal{}, models.ErrUserNotFound
		}
		return Principal{}, err
	}

	return Principal{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}, nil
}

// Require rejects unauthenticated requests with 401. The reason is
// distinguished in the message only; expired and forged tokens are
// equally unauthenticated.
func (g *Guard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := g.Authenticate(r)
		if err != nil {
			status, msg := authFailure(err)
			if status == http.StatusInternalServerError {
				log.Error().Err(err).Msg("Failed to resolve token subject")
			}
			http.Error(w, msg, status)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// Optional authenticates like Require but proceeds anonymously on any
// failure, for endpoints that behave differently for signed-in callers.
func (g *Guard) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if principal, err := g.Authenticate(r); err == nil {
			r = r.WithContext(WithPrincipal(r.Context(), principal))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole gates a route on the principal's role. It must run after
// Require, which attaches the principal.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFrom(r.Context())
			if !ok {
				http.Error(w, "Not authenticated", http.StatusUnauthorized)
				return
			}
			if principal.Role != role {
				http.Error(w, "Access denied: insufficient permissions", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func authFailure(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNoToken):
		return http.StatusUnauthorized, "Not authorized, no token"
	case errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized, "Not authorized, token expired"
	case errors.Is(err, ErrTokenMalformed), errors.Is(err, ErrTokenSignature):
		return http.StatusUnauthorized, "Not authorized, invalid token"
	case errors.Is(err, models.ErrUserNotFound):
		return http.StatusUnauthorized, "Not authorized, user not found"
	default:
		return http.StatusInternalServerError, "Server error in authentication"
	}
}
