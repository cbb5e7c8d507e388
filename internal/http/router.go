package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the handlers into the public API surface.
func NewRouter(orders *OrdersHandler, restaurants *RestaurantsHandler, dash *DashboardHandler, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orders.ListOrders)
			r.Post("/", orders.PlaceOrder)
			r.Get("/history", orders.ListHistory)
			r.Post("/{order_id}/advance", orders.AdvanceOrder)
			r.Post("/{order_id}/cancel", orders.CancelOrder)
			r.Post("/{order_id}/deliver", orders.DeliverOrder)
		})
		r.Route("/restaurants", func(r chi.Router) {
			r.Get("/", restaurants.ListRestaurants)
			r.Get("/{restaurant_id}", restaurants.GetRestaurant)
		})
		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/metrics", dash.GetMetrics)
		})
	})

	return r
}
