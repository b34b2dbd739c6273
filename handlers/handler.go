package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/exceptionzofficial/testing-backend-akshaya/apperror"
	"github.com/exceptionzofficial/testing-backend-akshaya/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves every HTTP endpoint. Dependencies are injected once in main.
type Handler struct {
	registry *service.Registry
	riders   *service.RiderDirectory
	orders   *service.OrderLedger
	coord    *service.Coordinator
	catalog  *service.Catalog
	db       Pinger
	log      *zap.Logger
}

type Deps struct {
	Registry    *service.Registry
	Riders      *service.RiderDirectory
	Orders      *service.OrderLedger
	Coordinator *service.Coordinator
	Catalog     *service.Catalog
	DB          Pinger
}

func New(d Deps, log *zap.Logger) *Handler {
	return &Handler{
		registry: d.Registry,
		riders:   d.Riders,
		orders:   d.Orders,
		coord:    d.Coordinator,
		catalog:  d.Catalog,
		db:       d.DB,
		log:      log.Named("http"),
	}
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    int    `json:"code"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, response{Success: true, Message: message, Data: data})
}

func respondList[T any](c *gin.Context, message string, items []T) {
	n := len(items)
	c.JSON(http.StatusOK, response{Success: true, Message: message, Data: items, Count: &n})
}

// respondError maps err onto a status code. Unclassified and store errors
// are logged with their cause; callers only see the public message.
func (h *Handler) respondError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	status := kind.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Stringer("kind", kind),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorResponse{
		Success: false,
		Error:   apperror.PublicMessage(err),
		Code:    status,
	})
}

// bindJSON decodes a create payload.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperror.Validation("invalid request body: %s", err.Error())
	}
	return nil
}

// bindPatch decodes a partial update and rejects fields outside dst.
func bindPatch(c *gin.Context, dst any) error {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return apperror.Validation("invalid request body")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.Validation("request body is empty")
		}
		return apperror.Validation("invalid request body: %s", err.Error())
	}
	return nil
}

// Health reports liveness and store reachability.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code := "healthy", http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"service":   "Meal Delivery API",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
