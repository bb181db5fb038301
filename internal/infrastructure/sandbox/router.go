package sandbox

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"

	"github.com/rcarvalho-pb/payment_request-go/internal/infra/logging"
)

func NewRouter(handler *Handler) http.Handler {
	if handler.Logger == nil {
		handler.Logger = logging.Nop{}
	}

	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(handler.Logger))

	r.HandleFunc("/api/v1/orders/", handler.CreateOrder).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/orders", handler.CreateOrder).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/orders/{id}", handler.GetOrder).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/orders/{id}/pay", handler.Pay).Methods(http.MethodPost)
	r.HandleFunc("/ws/merchant/{id}", handler.StatusSocket).Methods(http.MethodGet)
	r.HandleFunc("/pay/{id}", handler.PayerPage).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK\n"))
	}).Methods(http.MethodGet)

	return r
}

func requestLogger(logger logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Info("sandbox request", map[string]any{
				"method":     r.Method,
				"path":       r.URL.Path,
				"request-id": middleware.GetReqID(r.Context()),
				"elapsed":    time.Since(start).String(),
			})
		})
	}
}
