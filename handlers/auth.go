package handlers

import (
	"net/http"

	"github.com/exceptionzofficial/testing-backend-akshaya/apperror"
	"github.com/exceptionzofficial/testing-backend-akshaya/middleware"
	"github.com/exceptionzofficial/testing-backend-akshaya/service"

	"github.com/gin-gonic/gin"
)

// Register creates a customer account
func (h *Handler) Register(c *gin.Context) {
	var req service.RegisterUserInput
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	res, err := h.registry.RegisterUser(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Account created successfully", res)
}

// RegisterRider creates the login and the rider profile together
func (h *Handler) RegisterRider(c *gin.Context) {
	var req service.RegisterRiderInput
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	res, err := h.registry.RegisterRider(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Rider registered successfully", res)
}

// Login authenticates by phone and returns a token
func (h *Handler) Login(c *gin.Context) {
	var req service.LoginInput
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	res, err := h.registry.Login(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Login successful", res)
}

// GetProfile returns the logged-in account
// GetProfile returns the caller's account along with the expiry of the
// token used for the request.
func (h *Handler) GetProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		h.respondError(c, apperror.Unauthorized("missing token claims"))
		return
	}
	user, err := h.registry.Profile(c.Request.Context(), claims.Phone)
	if err != nil {
		h.respondError(c, err)
		return
	}
	data := gin.H{"user": user}
	if claims.ExpiresAt != nil {
		data["tokenExpiresAt"] = claims.ExpiresAt.Time
	}
	respond(c, http.StatusOK, "", data)
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.registry.ListUsers(c.Request.Context(), c.Query("role"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, "", users)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	var patch service.UserPatch
	if err := bindPatch(c, &patch); err != nil {
		h.respondError(c, err)
		return
	}
	user, err := h.registry.UpdateUser(c.Request.Context(), c.Param("phone"), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "User updated", user)
}
