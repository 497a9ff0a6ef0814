package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sidhardha7/content-sensitivity-backend/internal/auth"
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/entity"
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/port"
	"go.uber.org/zap"
)

type authHandler struct {
	tenants port.TenantRepository
	users   port.UserRepository
	tokens  *auth.TokenManager
	logger  *zap.Logger
}

func newAuthHandler(tenants port.TenantRepository, users port.UserRepository, tokens *auth.TokenManager, logger *zap.Logger) *authHandler {
	return &authHandler{tenants: tenants, users: users, tokens: tokens, logger: logger}
}

type registerRequest struct {
	TenantName string `json:"tenant_name" binding:"required"`
	Email      string `json:"email"       binding:"required,email"`
	Password   string `json:"password"    binding:"required,min=8"`
}

// Register creates a tenant and its first admin user in one step.
func (h *authHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password hash failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	tenant := entity.NewTenant(req.TenantName)
	if err := h.tenants.Create(c.Request.Context(), tenant); err != nil {
		h.logger.Error("tenant create failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	user := entity.NewUser(tenant.ID, req.Email, hash, entity.RoleAdmin)
	if err := h.users.Create(c.Request.Context(), user); err != nil {
		// Roll the fresh tenant back so a rejected email leaves nothing behind.
		_ = h.tenants.Delete(c.Request.Context(), tenant.ID)
		if errors.Is(err, port.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		h.logger.Error("user create failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":  token,
		"tenant": tenantResponseFrom(tenant),
		"user":   userResponseFrom(user),
	})
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *authHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.logger.Error("user lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userResponseFrom(user),
	})
}
