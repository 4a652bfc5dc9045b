package handlers

import (
	"net/http"
	"time"

	"letter-tracker/backend/internal/models"
	"letter-tracker/backend/internal/query"
	"letter-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type LetterHandler struct {
	db            *gorm.DB
	letterService services.LetterService
}

func NewLetterHandler(db *gorm.DB, letterService services.LetterService) *LetterHandler {
	return &LetterHandler{db: db, letterService: letterService}
}

func (h *LetterHandler) CreateLetter(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		ReferenceNo  string `json:"reference_no" binding:"required"`
		Subject      string `json:"subject" binding:"required"`
		Stakeholder  string `json:"stakeholder"`
		DepartmentID string `json:"department_id"`
		Priority     string `json:"priority"`
		ReceivedDate string `json:"received_date"`
		DueDate      string `json:"due_date"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receivedDate, err := parseDate(input.ReceivedDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "received_date must be YYYY-MM-DD"})
		return
	}
	dueDate, err := parseDate(input.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be YYYY-MM-DD"})
		return
	}

	letterID, err := uuid.NewV4()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate letter ID"})
		return
	}

	priority := models.TaskPriority(input.Priority)
	if priority == "" {
		priority = models.TaskPriorityMedium
	}

	letter := models.Letter{
		ID:           letterID,
		ReferenceNo:  input.ReferenceNo,
		Subject:      input.Subject,
		Stakeholder:  input.Stakeholder,
		DepartmentID: parseOptionalUUID(input.DepartmentID),
		Priority:     priority,
		Status:       models.LetterStatusOpen,
		UploadedBy:   actorID,
	}
	if receivedDate != nil {
		letter.ReceivedDate = *receivedDate
	} else {
		letter.ReceivedDate = time.Now()
	}
	letter.DueDate = dueDate

	if err := h.letterService.CreateLetter(h.db, letter); err != nil {
		handleStoreError(c, err, "letter")
		return
	}
	c.JSON(http.StatusCreated, letter)
}

func (h *LetterHandler) GetLetterByID(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))
	letter, err := h.letterService.GetLetterByID(h.db, id)
	if err != nil {
		handleStoreError(c, err, "letter")
		return
	}
	c.JSON(http.StatusOK, letter)
}

func (h *LetterHandler) GetLetters(c *gin.Context) {
	sortBy := c.DefaultQuery("sortBy", "created_at")
	order := c.DefaultQuery("order", "desc")
	page := c.DefaultQuery("page", "1")
	pageSize := c.DefaultQuery("pageSize", "10")

	var filters []query.Predicate
	if status := c.Query("status"); status != "" {
		filters = append(filters, query.LetterStatusIs(models.LetterStatus(status)))
	}
	if stakeholder := c.Query("stakeholder"); stakeholder != "" {
		filters = append(filters, query.StakeholderIs(stakeholder))
	}
	if departmentID := parseOptionalUUID(c.Query("department_id")); departmentID != nil {
		filters = append(filters, query.DepartmentIs(*departmentID))
	}
	from, errFrom := parseDate(c.Query("from"))
	to, errTo := parseDate(c.Query("to"))
	if errFrom != nil || errTo != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from/to must be YYYY-MM-DD"})
		return
	}
	if from != nil && to != nil {
		filters = append(filters, query.ReceivedBetween(*from, *to))
	}

	letters, total, err := h.letterService.GetLettersPaginated(h.db, sortBy, order, page, pageSize, filters...)
	if err != nil {
		handleStoreError(c, err, "letter")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"letters": letters,
		"total":   total,
	})
}

func (h *LetterHandler) UpdateLetter(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))

	var input struct {
		Subject      string `json:"subject"`
		Stakeholder  string `json:"stakeholder"`
		DepartmentID string `json:"department_id"`
		Priority     string `json:"priority"`
		Status       string `json:"status"`
		DueDate      string `json:"due_date"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dueDate, err := parseDate(input.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be YYYY-MM-DD"})
		return
	}

	updated := models.Letter{
		Subject:      input.Subject,
		Stakeholder:  input.Stakeholder,
		DepartmentID: parseOptionalUUID(input.DepartmentID),
		Priority:     models.TaskPriority(input.Priority),
		Status:       models.LetterStatus(input.Status),
		DueDate:      dueDate,
	}

	if err := h.letterService.UpdateLetter(h.db, id, updated); err != nil {
		handleStoreError(c, err, "letter")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "letter updated successfully"})
}

func (h *LetterHandler) DeleteLetter(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))
	if err := h.letterService.DeleteLetter(h.db, id); err != nil {
		handleStoreError(c, err, "letter")
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
