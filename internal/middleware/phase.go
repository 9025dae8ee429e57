package middleware

import (
	"context"
	"net/http"

	"github.com/smbevo/evolve/internal/services"
)

type ctxKey int

const phaseKey ctxKey = 1

// PhaseCookie persists the visitor's chosen maturity phase across pages.
const PhaseCookie = "evolve_phase"

// DefaultPhase is served when neither the request nor the cookie names one.
const DefaultPhase = services.PhaseAll

// PhaseMiddleware resolves the request's phase with a single precedence
// order: explicit ?phase= query param, then the phase cookie, then the
// default. An explicit param also refreshes the cookie so later pages agree.
func PhaseMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		phase := DefaultPhase
		if q := r.URL.Query().Get("phase"); services.IsValidPhase(q) {
			phase = q
			http.SetCookie(w, &http.Cookie{
				Name:     PhaseCookie,
				Value:    q,
				Path:     "/",
				SameSite: http.SameSiteLaxMode,
			})
		} else if c, err := r.Cookie(PhaseCookie); err == nil && services.IsValidPhase(c.Value) {
			phase = c.Value
		}
		ctx := context.WithValue(r.Context(), phaseKey, phase)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PhaseFromContext retrieves the phase stored by PhaseMiddleware.
func PhaseFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(phaseKey).(string); ok && v != "" {
		return v
	}
	return DefaultPhase
}
