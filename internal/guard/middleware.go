package guard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/internal/session"
)

// StateSource yields the session snapshot to judge a request against.
type StateSource interface {
	State() session.State
}

type stateCtxKey struct{}

// StateFromContext returns the snapshot the guard judged the request with.
func StateFromContext(ctx context.Context) (session.State, bool) {
	st, ok := ctx.Value(stateCtxKey{}).(session.State)
	return st, ok
}

func ContextWithState(ctx context.Context, st session.State) context.Context {
	return context.WithValue(ctx, stateCtxKey{}, st)
}

// Middleware applies the guard to every request: Loading answers 503 with Retry-After,
// Login and Denied redirect with 303, NotFound answers 404.
func (g *Guard) Middleware(states StateSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := states.State()
			d := g.Evaluate(st, r.URL.Path, time.Now())

			switch d.Outcome {
			case Allowed:
				next.ServeHTTP(w, r.WithContext(ContextWithState(r.Context(), st)))
			case Loading:
				w.Header().Set("Retry-After", "1")
				writeError(w, internal.ErrSessionLoading)
			case Login:
				target := d.Redirect + "?next=" + url.QueryEscape(r.URL.Path)
				http.Redirect(w, r, target, http.StatusSeeOther)
			case Denied:
				g.logger.WarnContext(r.Context(), "access denied",
					"user_id", st.UserID(),
					"path", r.URL.Path,
					"route", d.Route)
				http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
			default:
				writeError(w, internal.ErrPageNotFound)
			}
		})
	}
}

func writeError(w http.ResponseWriter, appErr *internal.AppError) {
	status, body := appErr.ToHTTPResponse()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
