package routes

import (
	"github.com/exceptionzofficial/testing-backend-akshaya/auth"
	"github.com/exceptionzofficial/testing-backend-akshaya/handlers"
	"github.com/exceptionzofficial/testing-backend-akshaya/logger"
	"github.com/exceptionzofficial/testing-backend-akshaya/metrics"
	"github.com/exceptionzofficial/testing-backend-akshaya/middleware"
	"github.com/exceptionzofficial/testing-backend-akshaya/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// catalogPaths maps each catalog kind onto its collection path.
var catalogPaths = map[models.CatalogKind]string{
	models.KindMenu:    "/menu",
	models.KindPackage: "/packages",
	models.KindSingle:  "/single-items",
}

func SetupRoutes(r *gin.Engine, h *handlers.Handler, issuer *auth.Issuer, log *zap.Logger) {
	r.Use(metrics.GinMiddleware(), logger.GinMiddleware(log))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/register", h.Register)
		public.POST("/auth/register-rider", h.RegisterRider)
		public.POST("/auth/login", h.Login)

		for kind, path := range catalogPaths {
			public.GET(path, h.ListCatalog(kind))
			public.GET(path+"/:itemId", h.GetCatalogItem(kind))
		}

		public.GET("/state-machine", h.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	authed := r.Group("/api")
	authed.Use(middleware.AuthRequired(issuer))
	{
		authed.GET("/auth/profile", h.GetProfile)

		authed.POST("/orders", h.PlaceOrder)
		authed.GET("/orders", h.ListOrders)
		authed.GET("/orders/stats", h.OrderStats)
		authed.GET("/orders/status/:status", h.ListOrdersByStatus)
		authed.GET("/orders/:id", h.GetOrder)
		authed.PATCH("/orders/:id", h.UpdateOrder)
		authed.PUT("/orders/:id/status", h.UpdateOrderStatus)

		authed.GET("/riders", h.ListRiders)
		authed.GET("/riders/:id", h.GetRider)
		authed.GET("/riders/:id/orders", h.GetRiderOrders)
		authed.PUT("/riders/:id/status", h.UpdateRiderStatus)
		authed.PUT("/riders/:id/fcm-token", h.UpdatePushToken)
		authed.PATCH("/riders/:id", h.UpdateRider)
	}

	// ── Staff routes ───────────────────────────────────────────────
	staff := r.Group("/api")
	staff.Use(middleware.AuthRequired(issuer), middleware.RoleRequired(models.RoleUser))
	{
		staff.PUT("/orders/:id/assign", h.AssignRider)
		staff.POST("/riders", h.CreateRider)

		staff.GET("/users", h.ListUsers)
		staff.PATCH("/users/:phone", h.UpdateUser)

		for kind, path := range catalogPaths {
			staff.POST(path, h.CreateCatalogItem(kind))
			staff.PATCH(path+"/:itemId", h.UpdateCatalogItem(kind))
			staff.DELETE(path+"/:itemId", h.DeleteCatalogItem(kind))
		}
	}
}
