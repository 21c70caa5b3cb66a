package http

import (
	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-service/internal/application"
)

// SetupRoutes configures all HTTP routes for the fulfillment service
func SetupRoutes(router *gin.Engine, h *Handlers) {
	v1 := router.Group("/api/v1")

	inventory := v1.Group("/inventory")
	{
		inventory.GET("", h.ListInventory)
		row := inventory.Group("/:goodsId/:warehouseId")
		row.GET("", h.GetInventory)
		row.POST("/lock", h.LockInventory)
		row.POST("/unlock", h.UnlockInventory)
		row.PUT("/thresholds", h.SetThresholds)
		row.GET("/thresholds/check", h.CheckThresholds)
		row.POST("/recompute", h.RecomputeInventory)
		row.GET("/locations", h.ListLocationStock)
	}

	asns := v1.Group("/asns")
	{
		asns.POST("", h.CreateASN)
		asns.GET("", h.ListASNs)
		asns.GET("/:id", h.GetASN)
		asns.PUT("/:id", h.UpdateASN)
		asns.DELETE("/:id", h.DeleteASN)
		asns.POST("/:id/details", h.AddASNDetail)
		asns.PUT("/:id/details", h.SyncASNDetails)
		asns.PUT("/:id/details/:detailId", h.UpdateASNDetail)
		asns.DELETE("/:id/details/:detailId", h.RemoveASNDetail)
		asns.POST("/:id/receive", transition(h, h.services.Inbound.Receive))
		asns.POST("/:id/complete", transition(h, h.services.Inbound.Complete))
		asns.POST("/:id/close", transition(h, h.services.Inbound.Close))
		asns.GET("/:id/status-logs", h.ASNStatusLogs)
		asns.GET("/:id/sorting-task", documentTask(h, h.services.Sorting))
	}

	dns := v1.Group("/dns")
	{
		dns.POST("", h.CreateDN)
		dns.GET("", h.ListDNs)
		dns.GET("/:id", h.GetDN)
		dns.PUT("/:id", h.UpdateDN)
		dns.DELETE("/:id", h.DeleteDN)
		dns.POST("/:id/details", h.AddDNDetail)
		dns.PUT("/:id/details", h.SyncDNDetails)
		dns.PUT("/:id/details/:detailId", h.UpdateDNDetail)
		dns.DELETE("/:id/details/:detailId", h.RemoveDNDetail)
		dns.POST("/:id/progress", transition(h, h.services.Outbound.Progress))
		dns.POST("/:id/picking", transition(h, h.services.Outbound.Picking))
		dns.POST("/:id/packing", transition(h, h.services.Outbound.Packing))
		dns.POST("/:id/delivering", transition(h, h.services.Outbound.Delivering))
		dns.POST("/:id/complete", transition(h, h.services.Outbound.Complete))
		dns.POST("/:id/close", transition(h, h.services.Outbound.Close))
		dns.GET("/:id/status-logs", h.DNStatusLogs)
		dns.GET("/:id/picking-task", documentTask(h, h.services.Picking))
		dns.GET("/:id/packing-task", documentTask(h, h.services.Packing))
		dns.GET("/:id/delivery-task", h.GetDNDeliveryTask)
	}

	taskRoutes(v1.Group("/sorting-tasks"), h, h.services.Sorting)
	taskRoutes(v1.Group("/picking-tasks"), h, h.services.Picking)
	taskRoutes(v1.Group("/packing-tasks"), h, h.services.Packing)

	deliveries := v1.Group("/delivery-tasks")
	{
		deliveries.GET("/:id", h.GetDeliveryTask)
		deliveries.GET("/:id/status-logs", h.DeliveryStatusLogs)
		deliveries.PUT("/:id/shipping", h.UpdateShipping)
		deliveries.POST("/:id/process", transition(h, h.services.Deliveries.Process))
		deliveries.POST("/:id/complete", transition(h, h.services.Deliveries.Complete))
		deliveries.POST("/:id/sign", h.SignDelivery)
	}

	v1.POST("/putaways", h.CreatePutaway)
	v1.GET("/putaways", h.ListPutaways)
	v1.POST("/removals", h.CreateRemoval)
	v1.GET("/removals", h.ListRemovals)
	v1.GET("/snapshots", h.ListSnapshots)
}

func taskRoutes(group *gin.RouterGroup, h *Handlers, tasks *application.TaskService) {
	t := taskHandlers{Handlers: h, tasks: tasks}
	group.GET("/:id", t.get)
	group.GET("/:id/status-logs", t.statusLogs)
	group.POST("/:id/process", transition(h, tasks.Process))
	group.POST("/:id/complete", transition(h, tasks.Complete))
	group.POST("/:id/batches", t.addBatch)
	group.DELETE("/:id/batches/:batchId", t.removeBatch)
	group.POST("/:id/batches/:batchId/details", t.addDetail)
	group.PUT("/:id/details/:detailId", t.updateDetail)
	group.DELETE("/:id/details/:detailId", t.removeDetail)
}
