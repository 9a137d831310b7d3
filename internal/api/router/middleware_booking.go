package router

import (
	"net/http"
	"strings"
)

const bookingTokenHeader = "X-Booking-Token"
const bookingTokenQuery = "booking_token"

// requireBookingToken enforces a shared token for the public booking
// endpoint, so only the embedded booking widget can create appointments.
// When expected is empty, the middleware is a no-op.
func requireBookingToken(expected string) func(http.Handler) http.Handler {
	expected = strings.TrimSpace(expected)
	return func(next http.Handler) http.Handler {
		if expected == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(bookingTokenHeader))
			if token == "" {
				token = strings.TrimSpace(r.URL.Query().Get(bookingTokenQuery))
			}
			if token == "" || token != expected {
				http.Error(w, "invalid booking token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
