package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles the application surfaces the router exposes.
type Services struct {
	Deliveries     Deliverer
	Authorizations Authorizer
	TicketStatus   StatusReader
	Shifts         ShiftAdmin
}

// NewRouter wires all routes and middleware.
func NewRouter(svcs Services, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	r.Get("/health", HealthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/deliveries", HandleCreateDelivery(svcs.Deliveries))
	r.Get("/deliveries", HandleListDeliveries(svcs.Deliveries))
	r.Get("/fraud/preview", HandleFraudPreview(svcs.Deliveries))
	r.Post("/authorizations", HandleRecordAuthorization(svcs.Authorizations))
	r.Get("/tickets/{code}", HandleTicketStatus(svcs.TicketStatus))

	r.Route("/admin/shift", func(r chi.Router) {
		r.Get("/", HandleCurrentShift(svcs.Shifts))
		r.Post("/open", HandleOpenShift(svcs.Shifts))
		r.Post("/close", HandleCloseShift(svcs.Shifts))
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})

	return r
}
