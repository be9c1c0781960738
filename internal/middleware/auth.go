package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/fiesta-storefront/internal/config"
	"github.com/Lixing-Zhang/fiesta-storefront/internal/telegram"
)

// InitDataParam is the query parameter carrying Telegram init data
const InitDataParam = "init_data"

type ctxKey struct{}

// InitDataAuth middleware verifies Telegram Web App init data passed in the
// init_data query parameter. Requests without init data pass through
// anonymously; present but invalid init data is rejected with 403.
func InitDataAuth(cfg config.AuthConfig, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.URL.Query().Get(InitDataParam)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			data, err := telegram.Verify(raw, cfg.BotToken, cfg.InitDataMaxAge)
			if err != nil {
				logger.Warn("rejected init data", "path", r.URL.Path, "error", err)
				writeForbidden(w, "Invalid initData")
				return
			}

			ctx := r.Context()
			if data.User != nil {
				ctx = context.WithValue(ctx, ctxKey{}, data.User)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests that carry no verified Telegram user
func RequireUser(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserFromContext(r.Context()); !ok {
				logger.Warn("request without a verified user", "path", r.URL.Path)
				writeForbidden(w, "User not identified")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin only lets through verified users listed in adminIDs
func RequireAdmin(adminIDs []int64, logger *slog.Logger) func(next http.Handler) http.Handler {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || !admins[user.ID] {
				logger.Warn("admin access denied", "path", r.URL.Path)
				writeForbidden(w, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext returns the verified Telegram user, if any
func UserFromContext(ctx context.Context) (*telegram.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*telegram.User)
	return u, ok
}

func writeForbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
