package router

import (
	"net/http"
	"strings"

	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	productHandler *handler.ProductHandler,
	orderHandler *handler.OrderHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Product handler function
	productRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		// Check if this is a request for a specific product ID
		if r.URL.Path != "/api/products" && r.URL.Path != "/api/products/" {
			productHandler.GetByID(w, r)
			return
		}
		productHandler.GetAll(w, r)
	}

	// Register product routes (both with and without trailing slash)
	mux.HandleFunc("/api/products", productRouteHandler)
	mux.HandleFunc("/api/products/", productRouteHandler)

	// Order handler function. Routes:
	//   POST /api/orders                  create
	//   GET  /api/orders                  list caller's orders
	//   GET  /api/orders/{id}             materialized order
	//   POST /api/orders/{id}/status      fulfillment transition
	//   POST /api/orders/{id}/cancel      cancellation
	//   POST /api/orders/{id}/payment     payment
	orderRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/orders" || r.URL.Path == "/api/orders/" {
			if r.Method == http.MethodPost {
				orderHandler.Create(w, r)
				return
			}
			orderHandler.List(w, r)
			return
		}

		if strings.HasPrefix(r.URL.Path, "/api/orders/") {
			switch {
			case strings.HasSuffix(r.URL.Path, "/status"):
				orderHandler.UpdateStatus(w, r)
			case strings.HasSuffix(r.URL.Path, "/cancel"):
				orderHandler.Cancel(w, r)
			case strings.HasSuffix(r.URL.Path, "/payment"):
				orderHandler.CreatePayment(w, r)
			default:
				orderHandler.GetByID(w, r)
			}
			return
		}

		http.Error(w, "not found", http.StatusNotFound)
	}

	// Register order routes (both with and without trailing slash)
	mux.HandleFunc("/api/orders", orderRouteHandler)
	mux.HandleFunc("/api/orders/", orderRouteHandler)

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth -> UserIdentity
	var h http.Handler = mux
	h = middleware.UserIdentity(logger)(h)
	h = middleware.APIKeyAuth(apiKey, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
