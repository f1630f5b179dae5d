package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teresa-solution/tenant-order-service/internal/model"
	"github.com/teresa-solution/tenant-order-service/internal/service"
)

type TenantHandler struct {
	svc   *service.TenantService
	pages pageSizes
}

func (h *TenantHandler) Create(c *gin.Context) {
	var req service.CreateTenantRequest
	if !bindBody(c, &req) {
		return
	}
	tenant, err := h.svc.CreateTenant(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tenant)
}

func (h *TenantHandler) Get(c *gin.Context) {
	tenant, err := h.svc.GetTenant(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (h *TenantHandler) List(c *gin.Context) {
	page, err := h.svc.ListTenants(c.Request.Context(), h.pages.limit(c), c.Query("lastEvaluatedKey"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(page.Items, page.Cursor))
}

func (h *TenantHandler) Update(c *gin.Context) {
	var patch model.TenantPatch
	if !bindBody(c, &patch) {
		return
	}
	tenant, err := h.svc.UpdateTenant(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (h *TenantHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteTenant(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
