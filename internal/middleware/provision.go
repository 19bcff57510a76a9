package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/sitebook/internal/apperror"
	"github.com/sakif/sitebook/internal/auth"
	"github.com/sakif/sitebook/internal/model"
	"github.com/sakif/sitebook/internal/service"
)

type contextKey string

const userKey contextKey = "user"

var errMissingClaims = apperror.Unauthenticated("authentication required")

// UserEnsurer resolves a provider subject to a local user row.
// *service.IdentityService satisfies it.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, externalID string) (*service.ShadowResult, error)
}

// ErrorWriter writes err as an API error response.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Provision runs after auth.RequireAuth. It turns the verified subject into
// the local user row and stores it in the context for handlers.
//
// A request reaching here without claims is a wiring mistake, so it fails
// with 401 rather than running anonymously.
func Provision(identity UserEnsurer, metrics *Metrics, writeError ErrorWriter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				writeError(w, r, errMissingClaims)
				return
			}

			result, err := identity.EnsureUser(r.Context(), claims.Subject)
			if err != nil {
				if metrics != nil {
					metrics.RecordProvision("error")
				}
				logger.Error("failed to provision user",
					slog.String("external_id", claims.Subject),
					slog.String("error", err.Error()),
				)
				writeError(w, r, err)
				return
			}
			if metrics != nil {
				metrics.RecordProvision(result.Outcome.String())
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), result.User)))
		})
	}
}

// WithUser returns a copy of ctx carrying the local user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the local user stored by Provision.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}
