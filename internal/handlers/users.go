package handlers

import (
	"net/http"

	"letter-tracker/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		handleStoreError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	var users []models.User
	q := h.db.Order("name asc")
	if departmentID := parseOptionalUUID(c.Query("department_id")); departmentID != nil {
		q = q.Where("department_id = ?", *departmentID)
	}
	if err := q.Find(&users).Error; err != nil {
		handleStoreError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// UpdateRole lets an admin change another user's role or active flag.
func (h *UserHandler) UpdateRole(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))

	var input struct {
		Role     string `json:"role"`
		IsActive *bool  `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", id).Error; err != nil {
		handleStoreError(c, err, "user")
		return
	}

	if input.Role != "" {
		role := models.UserRole(input.Role)
		if !role.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
		user.Role = role
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := h.db.Save(&user).Error; err != nil {
		handleStoreError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}
