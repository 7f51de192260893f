package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/AdamBeresnev/knockout/internal/config"
	"github.com/AdamBeresnev/knockout/internal/httputil"
	"github.com/AdamBeresnev/knockout/internal/store"
	users "github.com/AdamBeresnev/knockout/internal/user"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/discord"
	"github.com/markbates/goth/providers/google"
)

type ContextKey string

const UserIDKey ContextKey = "userID"

// SessionUserKey is the session entry holding the logged in user's id.
const SessionUserKey = "userID"

// InitAuth registers the OAuth providers that have credentials configured.
func InitAuth(cfg config.OAuthConfig) {
	var providers []goth.Provider
	if cfg.DiscordKey != "" {
		providers = append(providers,
			discord.New(cfg.DiscordKey, cfg.DiscordSecret, cfg.DiscordCallbackURL, discord.ScopeIdentify, discord.ScopeEmail))
	}
	if cfg.GoogleKey != "" {
		providers = append(providers,
			google.New(cfg.GoogleKey, cfg.GoogleSecret, cfg.GoogleCallbackURL, "email", "profile"))
	}
	goth.UseProviders(providers...)
}

// LoadAuthenticatedUser resolves the caller from a bearer token or, failing that, from
// the session. Unresolved requests pass through anonymously.
func LoadAuthenticatedUser(sessionManager *scs.SessionManager, tokens *TokenIssuer, userStore *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := bearerUserID(r, tokens)
			if !ok {
				userID, ok = sessionUserID(r, sessionManager)
			}
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			// Add the user to context so that we can easily get it whenever we want
			user, err := userStore.GetUser(r.Context(), nil, userID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithUserID(r.Context(), userID)
			ctx = context.WithValue(ctx, users.UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerUserID(r *http.Request, tokens *TokenIssuer) (uuid.UUID, bool) {
	header := r.Header.Get("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokens == nil {
		return uuid.Nil, false
	}
	userID, err := tokens.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

func sessionUserID(r *http.Request, sessionManager *scs.SessionManager) (uuid.UUID, bool) {
	if sessionManager == nil {
		return uuid.Nil, false
	}
	userIDStr := sessionManager.GetString(r.Context(), SessionUserKey)
	if userIDStr == "" {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		sessionManager.Remove(r.Context(), SessionUserKey)
		return uuid.Nil, false
	}
	return userID, true
}

// RequireAuth rejects requests without a resolved caller.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserIDFromContext(r.Context()); !ok {
			httputil.Unauthorized(w, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	val := ctx.Value(UserIDKey)
	if val == nil {
		return uuid.Nil, false
	}

	id, ok := val.(uuid.UUID)
	return id, ok
}

func GetAuthenticatedUser(ctx context.Context) *users.User {
	val := ctx.Value(users.UserKey)
	if val == nil {
		return nil
	}
	user, ok := val.(*users.User)
	if !ok {
		return nil
	}
	return user
}
