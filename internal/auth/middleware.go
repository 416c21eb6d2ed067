package auth

import (
	"context"
	"net/http"
	apperrors "puntoazul/internal/errors"
	"puntoazul/internal/service"
	"strings"
)

type contextKey struct{}

// SessionMiddleware requires a valid session token in the Authorization header
// and puts the resolved session in the request context.
func SessionMiddleware(svc service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				apperrors.Write(w, apperrors.ErrUnauthorized("missing session token"))
				return
			}
			sess, err := svc.Authenticate(r.Context(), strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				apperrors.Write(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

func WithSession(ctx context.Context, sess *service.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// SessionFrom returns the session stored by SessionMiddleware, or nil.
func SessionFrom(ctx context.Context) *service.Session {
	sess, _ := ctx.Value(contextKey{}).(*service.Session)
	return sess
}
