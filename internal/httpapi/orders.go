package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teresa-solution/tenant-order-service/internal/model"
	"github.com/teresa-solution/tenant-order-service/internal/service"
	"github.com/teresa-solution/tenant-order-service/internal/store"
)

type OrderHandler struct {
	svc   *service.OrderService
	pages pageSizes
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req service.CreateOrderRequest
	if !bindBody(c, &req) {
		return
	}
	order, err := h.svc.CreateOrder(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.svc.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// List filters by tenantId, else by status, else lists everything
func (h *OrderHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	limit := h.pages.limit(c)
	cursor := c.Query("lastEvaluatedKey")

	var (
		page store.Page[model.Order]
		err  error
	)
	switch {
	case c.Query("tenantId") != "":
		page, err = h.svc.GetOrdersByTenant(ctx, c.Query("tenantId"), limit, cursor)
	case c.Query("status") != "":
		page, err = h.svc.GetOrdersByStatus(ctx, model.OrderStatus(c.Query("status")), limit, cursor)
	default:
		page, err = h.svc.ListOrders(ctx, limit, cursor)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(page.Items, page.Cursor))
}

func (h *OrderHandler) Update(c *gin.Context) {
	var patch model.OrderPatch
	if !bindBody(c, &patch) {
		return
	}
	order, err := h.svc.UpdateOrder(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
