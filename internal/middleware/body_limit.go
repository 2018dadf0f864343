package middleware

import (
	"net/http"

	"github.com/AdamBeresnev/tournament-history/internal/httputil"
)

// LimitBody rejects requests whose declared length exceeds max and caps the
// body of the rest, so oversized uploads fail before form parsing.
func LimitBody(max int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > max {
				httputil.JSONError(w, r, http.StatusRequestEntityTooLarge, httputil.TooLargeMessage, nil)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, max)
			next.ServeHTTP(w, r)
		})
	}
}
