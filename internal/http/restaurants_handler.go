package http

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shreyasmhade/QickServe/internal/repository"
)

type RestaurantsHandler struct {
	restaurants repository.RestaurantRepository
	timeout     time.Duration
}

func NewRestaurantsHandler(restaurants repository.RestaurantRepository, timeout time.Duration) *RestaurantsHandler {
	return &RestaurantsHandler{
		restaurants: restaurants,
		timeout:     timeout,
	}
}

// GET /api/v1/restaurants
func (h *RestaurantsHandler) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, h.timeout)
	defer cancel()

	restaurants, err := h.restaurants.List(ctx)
	if err != nil {
		log.Printf("[%s] failed to list restaurants: %v", getRequestID(ctx), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load restaurants")
		return
	}

	respondJSON(w, http.StatusOK, restaurants)
}

// GET /api/v1/restaurants/{restaurant_id}
func (h *RestaurantsHandler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, h.timeout)
	defer cancel()

	restaurantID := chi.URLParam(r, "restaurant_id")
	if restaurantID == "" {
		respondError(w, http.StatusBadRequest, "missing_restaurant_id", "restaurant_id is required")
		return
	}

	restaurant, err := h.restaurants.Get(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			respondError(w, http.StatusNotFound, "restaurant_not_found", "no such restaurant")
			return
		}
		log.Printf("[%s] failed to get restaurant %s: %v", getRequestID(ctx), restaurantID, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load restaurant")
		return
	}

	respondJSON(w, http.StatusOK, restaurant)
}
