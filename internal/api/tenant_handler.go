package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/port"
	"go.uber.org/zap"
)

type tenantHandler struct {
	tenants port.TenantRepository
	logger  *zap.Logger
}

func newTenantHandler(tenants port.TenantRepository, logger *zap.Logger) *tenantHandler {
	return &tenantHandler{tenants: tenants, logger: logger}
}

func (h *tenantHandler) Get(c *gin.Context) {
	claims := claimsFrom(c)

	tenant, err := h.tenants.FindByID(c.Request.Context(), claims.TenantID)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
			return
		}
		h.logger.Error("tenant lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	c.JSON(http.StatusOK, tenantResponseFrom(tenant))
}

type renameTenantRequest struct {
	Name string `json:"name" binding:"required,min=1,max=120"`
}

func (h *tenantHandler) Rename(c *gin.Context) {
	claims := claimsFrom(c)

	var req renameTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenant, err := h.tenants.FindByID(c.Request.Context(), claims.TenantID)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
			return
		}
		h.logger.Error("tenant lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rename failed"})
		return
	}

	tenant.Rename(req.Name)
	if err := h.tenants.Update(c.Request.Context(), tenant); err != nil {
		h.logger.Error("tenant update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rename failed"})
		return
	}

	c.JSON(http.StatusOK, tenantResponseFrom(tenant))
}
