package handlers

import (
	"net/http"

	"github.com/exceptionzofficial/testing-backend-akshaya/apperror"
	"github.com/exceptionzofficial/testing-backend-akshaya/middleware"
	"github.com/exceptionzofficial/testing-backend-akshaya/models"
	"github.com/exceptionzofficial/testing-backend-akshaya/service"

	"github.com/gin-gonic/gin"
)

type pushTokenRequest struct {
	FCMToken string `json:"fcmToken"`
}

// ownRiderOnly stops a rider from acting on another rider's record. Plain
// users (dispatch staff) may act on any rider.
func ownRiderOnly(c *gin.Context, riderID string) error {
	if middleware.GetRole(c) == models.RoleRider && middleware.GetRiderID(c) != riderID {
		return apperror.Forbidden("riders may only update their own record")
	}
	return nil
}

func (h *Handler) CreateRider(c *gin.Context) {
	var req service.CreateRiderInput
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	rider, err := h.riders.Create(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Rider created", rider)
}

func (h *Handler) ListRiders(c *gin.Context) {
	riders, err := h.riders.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, "", riders)
}

func (h *Handler) GetRider(c *gin.Context) {
	rider, err := h.riders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", rider)
}

// GetRiderOrders lists the orders assigned to a rider
func (h *Handler) GetRiderOrders(c *gin.Context) {
	orders, err := h.orders.ListByRider(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, "", orders)
}

// UpdateRiderStatus changes availability. Leaving on-delivery completes the
// current delivery.
func (h *Handler) UpdateRiderStatus(c *gin.Context) {
	id := c.Param("id")
	if err := ownRiderOnly(c, id); err != nil {
		h.respondError(c, err)
		return
	}
	var req service.RiderStatusInput
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	rider, err := h.riders.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Rider status updated", rider)
}

// UpdatePushToken registers the rider's device for notifications
func (h *Handler) UpdatePushToken(c *gin.Context) {
	id := c.Param("id")
	if err := ownRiderOnly(c, id); err != nil {
		h.respondError(c, err)
		return
	}
	var req pushTokenRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.riders.UpdatePushToken(c.Request.Context(), id, req.FCMToken); err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Push token updated", nil)
}

func (h *Handler) UpdateRider(c *gin.Context) {
	id := c.Param("id")
	if err := ownRiderOnly(c, id); err != nil {
		h.respondError(c, err)
		return
	}
	var patch service.RiderPatch
	if err := bindPatch(c, &patch); err != nil {
		h.respondError(c, err)
		return
	}
	rider, err := h.riders.UpdateProfile(c.Request.Context(), id, patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Rider updated", rider)
}
