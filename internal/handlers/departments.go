package handlers

import (
	"net/http"

	"letter-tracker/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type DepartmentHandler struct {
	db *gorm.DB
}

func NewDepartmentHandler(db *gorm.DB) *DepartmentHandler {
	return &DepartmentHandler{db: db}
}

func (h *DepartmentHandler) List(c *gin.Context) {
	var departments []models.Department
	if err := h.db.Order("name asc").Find(&departments).Error; err != nil {
		handleStoreError(c, err, "department")
		return
	}
	c.JSON(http.StatusOK, gin.H{"departments": departments})
}

func (h *DepartmentHandler) Create(c *gin.Context) {
	var input struct {
		Name      string `json:"name" binding:"required"`
		ManagerID string `json:"manager_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := uuid.NewV4()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate department ID"})
		return
	}

	department := models.Department{
		ID:        id,
		Name:      input.Name,
		ManagerID: parseOptionalUUID(input.ManagerID),
	}
	if err := h.db.Create(&department).Error; err != nil {
		handleStoreError(c, err, "department")
		return
	}
	c.JSON(http.StatusCreated, department)
}

// SetManager points the department at its (possibly absent) manager. An
// empty manager_id clears the manager, which silently disables escalation
// for the department's letters.
func (h *DepartmentHandler) SetManager(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))

	var input struct {
		ManagerID string `json:"manager_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var department models.Department
	if err := h.db.First(&department, "id = ?", id).Error; err != nil {
		handleStoreError(c, err, "department")
		return
	}

	department.ManagerID = parseOptionalUUID(input.ManagerID)
	if err := h.db.Save(&department).Error; err != nil {
		handleStoreError(c, err, "department")
		return
	}
	c.JSON(http.StatusOK, department)
}
