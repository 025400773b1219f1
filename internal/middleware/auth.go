package middleware

import (
	"net/http"
	"strings"

	"github.com/josh-kwaku/evend-recon/internal/auth"
	"github.com/josh-kwaku/evend-recon/internal/handler"
	"github.com/josh-kwaku/evend-recon/internal/logging"
)

func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			claims, err := auth.ValidateToken(token, secret)
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			ctx := auth.ContextWithOperator(r.Context(), claims.Operator)
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With("operator", claims.Operator))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
