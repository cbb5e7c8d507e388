package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shreyasmhade/QickServe/internal/domain"
	"github.com/shreyasmhade/QickServe/internal/lifecycle"
	"github.com/shreyasmhade/QickServe/internal/repository"
)

type OrdersHandler struct {
	engine  *lifecycle.Engine
	timeout time.Duration
}

func NewOrdersHandler(engine *lifecycle.Engine, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		engine:  engine,
		timeout: timeout,
	}
}

type OrderItemDTO struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Note     string  `json:"note,omitempty"`
}

type CustomerDTO struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Email           string `json:"email,omitempty"`
	DeliveryAddress string `json:"delivery_address,omitempty"`
	TableID         string `json:"table_id,omitempty"`
}

type PlaceOrderDTO struct {
	RestaurantID        string         `json:"restaurant_id"`
	Customer            CustomerDTO    `json:"customer"`
	Items               []OrderItemDTO `json:"items"`
	OrderType           string         `json:"order_type"`
	SpecialInstructions string         `json:"special_instructions,omitempty"`
}

type OrderResponseDTO struct {
	ID                  string         `json:"id"`
	RestaurantID        string         `json:"restaurant_id"`
	RestaurantName      string         `json:"restaurant_name"`
	Customer            CustomerDTO    `json:"customer"`
	Items               []OrderItemDTO `json:"items"`
	SpecialInstructions string         `json:"special_instructions,omitempty"`
	OrderType           string         `json:"order_type"`
	Status              string         `json:"status"`
	TotalAmount         float64        `json:"total_amount"`
	CreatedAt           string         `json:"created_at"`
	CompletionTime      string         `json:"completion_time,omitempty"`
}

// GET /api/v1/orders?q=&status=
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, h.timeout)
	defer cancel()

	query := r.URL.Query().Get("q")
	status := r.URL.Query().Get("status")

	orders, err := h.engine.SearchLive(ctx, query, status)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load orders")
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, convertOrder(o))
	}
	respondJSON(w, http.StatusOK, dtos)
}

// GET /api/v1/orders/history
func (h *OrdersHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, h.timeout)
	defer cancel()

	orders, err := h.engine.ListArchive(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load order history")
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, convertOrder(o))
	}
	respondJSON(w, http.StatusOK, dtos)
}

// POST /api/v1/orders
func (h *OrdersHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, h.timeout)
	defer cancel()

	var dto PlaceOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	items := make([]domain.OrderItem, 0, len(dto.Items))
	for _, item := range dto.Items {
		items = append(items, domain.OrderItem{
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
			Note:     item.Note,
		})
	}

	order, err := h.engine.PlaceOrder(ctx, lifecycle.PlaceOrderRequest{
		RestaurantID: dto.RestaurantID,
		Customer: domain.Customer{
			Name:            dto.Customer.Name,
			Phone:           dto.Customer.Phone,
			Email:           dto.Customer.Email,
			DeliveryAddress: dto.Customer.DeliveryAddress,
			TableID:         dto.Customer.TableID,
		},
		Items:               items,
		OrderType:           domain.OrderType(dto.OrderType),
		SpecialInstructions: dto.SpecialInstructions,
	})
	if err != nil {
		if isValidationError(err) {
			respondError(w, http.StatusBadRequest, "validation_failure", err.Error())
			return
		}
		log.Printf("[%s] failed to place order: %v", getRequestID(ctx), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to place order")
		return
	}

	respondJSON(w, http.StatusCreated, convertOrder(*order))
}

// POST /api/v1/orders/{order_id}/advance
func (h *OrdersHandler) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, orderID string) (*domain.Order, bool, error) {
		return h.engine.Advance(ctx, orderID)
	})
}

// POST /api/v1/orders/{order_id}/cancel
func (h *OrdersHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, orderID string) (*domain.Order, bool, error) {
		return h.engine.Cancel(ctx, orderID)
	})
}

// POST /api/v1/orders/{order_id}/deliver
func (h *OrdersHandler) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, orderID string) (*domain.Order, bool, error) {
		return h.engine.MarkDelivered(ctx, orderID)
	})
}

type transitionResponseDTO struct {
	Order   OrderResponseDTO `json:"order"`
	Changed bool             `json:"changed"`
}

func (h *OrdersHandler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (*domain.Order, bool, error)) {
	ctx, cancel := contextWithTimeout(r, h.timeout)
	defer cancel()

	orderID := chi.URLParam(r, "order_id")
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "missing_order_id", "order_id is required")
		return
	}

	order, changed, err := fn(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "order_not_found", "no such order")
			return
		}
		log.Printf("[%s] failed to update order %s: %v", getRequestID(ctx), orderID, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update order")
		return
	}

	respondJSON(w, http.StatusOK, transitionResponseDTO{
		Order:   convertOrder(*order),
		Changed: changed,
	})
}

func isValidationError(err error) bool {
	return errors.Is(err, lifecycle.ErrEmptyOrder) ||
		errors.Is(err, lifecycle.ErrBadLineItem) ||
		errors.Is(err, lifecycle.ErrUnknownOrderType) ||
		errors.Is(err, lifecycle.ErrMissingAddress) ||
		errors.Is(err, lifecycle.ErrMissingTable)
}

func convertOrder(o domain.Order) OrderResponseDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
			Note:     item.Note,
		})
	}

	dto := OrderResponseDTO{
		ID:             o.ID,
		RestaurantID:   o.RestaurantID,
		RestaurantName: o.RestaurantName,
		Customer: CustomerDTO{
			Name:            o.Customer.Name,
			Phone:           o.Customer.Phone,
			Email:           o.Customer.Email,
			DeliveryAddress: o.Customer.DeliveryAddress,
			TableID:         o.Customer.TableID,
		},
		Items:               items,
		SpecialInstructions: o.SpecialInstructions,
		OrderType:           o.OrderType.String(),
		Status:              o.Status.String(),
		TotalAmount:         o.TotalAmount,
		CreatedAt:           o.CreatedAt.Format(time.RFC3339),
	}
	if !o.CompletionTime.IsZero() {
		dto.CompletionTime = o.CompletionTime.Format(time.RFC3339)
	}
	return dto
}
