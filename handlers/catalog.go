package handlers

import (
	"net/http"
	"strconv"

	"github.com/exceptionzofficial/testing-backend-akshaya/apperror"
	"github.com/exceptionzofficial/testing-backend-akshaya/models"
	"github.com/exceptionzofficial/testing-backend-akshaya/service"

	"github.com/gin-gonic/gin"
)

// boolQuery reads an optional true/false query parameter.
func boolQuery(c *gin.Context, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperror.Validation("%s must be true or false", key)
	}
	return &v, nil
}

// ListCatalog returns the items of one kind, filtered by category, veg or availability
func (h *Handler) ListCatalog(kind models.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		veg, err := boolQuery(c, "isVeg")
		if err != nil {
			h.respondError(c, err)
			return
		}
		available, err := boolQuery(c, "isAvailable")
		if err != nil {
			h.respondError(c, err)
			return
		}
		items, err := h.catalog.List(c.Request.Context(), kind, service.CatalogQuery{
			Category:  c.Query("category"),
			Veg:       veg,
			Available: available,
		})
		if err != nil {
			h.respondError(c, err)
			return
		}
		respondList(c, "", items)
	}
}

func (h *Handler) GetCatalogItem(kind models.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, err := h.catalog.Get(c.Request.Context(), kind, c.Param("itemId"))
		if err != nil {
			h.respondError(c, err)
			return
		}
		respond(c, http.StatusOK, "", item)
	}
}

func (h *Handler) CreateCatalogItem(kind models.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CreateCatalogItemInput
		if err := bindJSON(c, &req); err != nil {
			h.respondError(c, err)
			return
		}
		item, err := h.catalog.Create(c.Request.Context(), kind, req)
		if err != nil {
			h.respondError(c, err)
			return
		}
		respond(c, http.StatusCreated, "Item created", item)
	}
}

func (h *Handler) UpdateCatalogItem(kind models.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch service.CatalogPatch
		if err := bindPatch(c, &patch); err != nil {
			h.respondError(c, err)
			return
		}
		item, err := h.catalog.Update(c.Request.Context(), kind, c.Param("itemId"), patch)
		if err != nil {
			h.respondError(c, err)
			return
		}
		respond(c, http.StatusOK, "Item updated", item)
	}
}

func (h *Handler) DeleteCatalogItem(kind models.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.catalog.Delete(c.Request.Context(), kind, c.Param("itemId")); err != nil {
			h.respondError(c, err)
			return
		}
		respond(c, http.StatusOK, "Item deleted", nil)
	}
}
