package api

import (
	"context"
	"net/http"

	"github.com/ignite/invite-users/internal/invite"
)

type ctxKey struct{}

// sessionID returns the session id stored by requireSession.
func sessionID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// requireSession rejects requests without a session cookie.
func (h *Handlers) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(h.cookie.Name)
		if err != nil || c.Value == "" {
			respondError(w, r, nil, invite.ErrSessionNotFound)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, c.Value)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
