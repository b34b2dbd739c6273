package handlers

import (
	"net/http"

	"github.com/exceptionzofficial/testing-backend-akshaya/service"

	"github.com/gin-gonic/gin"
)

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// PlaceOrder creates an order in the placed state
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req service.CreateOrderInput
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	order, err := h.orders.Create(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Order placed successfully", order)
}

// ListOrders returns orders newest first, filtered by status or customer phone
func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context(), service.OrderQuery{
		Status:        c.Query("status"),
		CustomerPhone: c.Query("customerPhone"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, "", orders)
}

func (h *Handler) ListOrdersByStatus(c *gin.Context) {
	orders, err := h.orders.ListByStatus(c.Request.Context(), c.Param("status"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, "", orders)
}

func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", order)
}

// OrderStats is the dashboard summary
func (h *Handler) OrderStats(c *gin.Context) {
	stats, err := h.orders.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", stats)
}

// UpdateOrderStatus moves the order and notifies its rider, if any
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req updateOrderStatusRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	order, err := h.coord.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Order status updated", order)
}

// AssignRider attaches an available rider to a placed order
func (h *Handler) AssignRider(c *gin.Context) {
	var req service.AssignInput
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	order, err := h.coord.Assign(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Rider assigned", order)
}

func (h *Handler) UpdateOrder(c *gin.Context) {
	var patch service.OrderPatch
	if err := bindPatch(c, &patch); err != nil {
		h.respondError(c, err)
		return
	}
	order, err := h.orders.UpdateDetails(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Order updated", order)
}
