package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/detagroup/detaweb/internal/analytics"
	"github.com/detagroup/detaweb/internal/locale"
	"github.com/detagroup/detaweb/internal/util"
)

// PageViewTracker receives page views; *analytics.Recorder satisfies it.
type PageViewTracker interface {
	Track(v analytics.View) bool
}

// TrackPageViews records successful GET requests. It must run inside
// Locale to see the negotiated language.
func TrackPageViews(tracker PageViewTracker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status < 200 || status >= 300 {
				return
			}

			tracker.Track(analytics.View{
				Path:      r.URL.Path,
				Language:  locale.ActiveFrom(r.Context(), ""),
				UserAgent: r.UserAgent(),
				IP:        util.ClientIP(r),
			})
		})
	}
}
