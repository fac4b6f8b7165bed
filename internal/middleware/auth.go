package middleware

import (
	"context"
	"net/http"

	"github.com/mladenovic/liftplan/internal/auth"
	"github.com/mladenovic/liftplan/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type ownerResolver interface {
	GetOwner(ctx context.Context, token string) (string, error)
}

type AuthMiddlewareHandler struct {
	loginChecker ownerResolver
	allowedPaths map[string]bool
}

func NewAuthMiddlewareHandler(loginChecker ownerResolver) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		loginChecker: loginChecker,
		allowedPaths: map[string]bool{
			"/":         true,
			"/version":  true,
			"/a/login":  true,
			"/a/logout": true,
		},
	}
}

// AuthCheck resolves the session token to an owner and stores it in the
// request context. Handlers never see unauthenticated requests.
func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || h.allowedPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.authCheck")

			authToken := r.Header.Get(auth.TokenHeader)
			if authToken == "" {
				span.SetStatus(codes.Error, "no auth token")
				span.End()
				http.Error(w, "no can do", http.StatusUnauthorized)
				return
			}

			owner, err := h.loginChecker.GetOwner(ctx, authToken)
			if err != nil {
				log.Tracef("[failed auth check] => %s: %s", r.URL.Path, err)
				span.SetStatus(codes.Error, "auth check failed")
				span.End()
				http.Error(w, "no can do", http.StatusUnauthorized)
				return
			}

			span.End()
			next.ServeHTTP(w, r.WithContext(auth.ContextWithOwner(r.Context(), owner)))
		})
	}
}
