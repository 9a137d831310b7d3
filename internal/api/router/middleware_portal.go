package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/dentalops/clinic-platform/internal/http/middleware"
	"github.com/dentalops/clinic-platform/pkg/logging"
)

// requirePortalDoctor restricts portal routes to the doctor named in the
// URL. Admin tokens pass for any doctor.
func requirePortalDoctor(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			doctorID := strings.TrimSpace(chi.URLParam(r, "doctorID"))
			if doctorID == "" {
				http.Error(w, `{"error":"missing doctorID"}`, http.StatusBadRequest)
				return
			}

			claims, ok := httpmiddleware.StaffClaimsFromContext(r.Context())
			if !ok {
				http.Error(w, `{"error":"missing staff claims"}`, http.StatusUnauthorized)
				return
			}

			if claims.Role == httpmiddleware.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}

			if strings.TrimSpace(claims.Subject) != doctorID {
				if logger != nil {
					logger.Warn("portal access denied", "doctor_id", doctorID, "subject", claims.Subject)
				}
				http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
