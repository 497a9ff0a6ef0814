package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sidhardha7/content-sensitivity-backend/internal/auth"
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/entity"
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/port"
	"go.uber.org/zap"
)

type userHandler struct {
	users  port.UserRepository
	logger *zap.Logger
}

func newUserHandler(users port.UserRepository, logger *zap.Logger) *userHandler {
	return &userHandler{users: users, logger: logger}
}

type createUserRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"     binding:"required"`
}

func (h *userHandler) Create(c *gin.Context) {
	claims := claimsFrom(c)

	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := entity.Role(req.Role)
	if !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be admin or member"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password hash failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user creation failed"})
		return
	}

	user := entity.NewUser(claims.TenantID, req.Email, hash, role)
	if err := h.users.Create(c.Request.Context(), user); err != nil {
		if errors.Is(err, port.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		h.logger.Error("user create failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user creation failed"})
		return
	}

	c.JSON(http.StatusCreated, userResponseFrom(user))
}

func (h *userHandler) List(c *gin.Context) {
	claims := claimsFrom(c)

	users, err := h.users.List(c.Request.Context(), claims.TenantID)
	if err != nil {
		h.logger.Error("user list failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponseFrom(u))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

func (h *userHandler) Get(c *gin.Context) {
	claims := claimsFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), claims.TenantID, id)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("user lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	c.JSON(http.StatusOK, userResponseFrom(user))
}

func (h *userHandler) Delete(c *gin.Context) {
	claims := claimsFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if id == claims.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete own account"})
		return
	}

	if err := h.users.Delete(c.Request.Context(), claims.TenantID, id); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("user delete failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}

	c.Status(http.StatusNoContent)
}
