package handlers

import (
	"errors"
	"net/http"

	"letter-tracker/backend/internal/models"
	"letter-tracker/backend/internal/query"
	"letter-tracker/backend/internal/services"
	"letter-tracker/backend/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskHandler struct {
	db          *gorm.DB
	taskService services.TaskService
	engine      *workflow.Engine
}

func NewTaskHandler(db *gorm.DB, taskService services.TaskService, engine *workflow.Engine) *TaskHandler {
	return &TaskHandler{db: db, taskService: taskService, engine: engine}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var taskInput struct {
		LetterID      string `json:"letter_id" binding:"required"`
		Title         string `json:"title" binding:"required"`
		Description   string `json:"description"`
		Priority      string `json:"priority"`
		AssignedTo    string `json:"assigned_to"`
		AssignedGroup string `json:"assigned_group"`
		DueDate       string `json:"due_date"`
	}
	if err := c.ShouldBindJSON(&taskInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	letterID := uuid.FromStringOrNil(taskInput.LetterID)
	if letterID == uuid.Nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid letter_id"})
		return
	}

	dueDate, err := parseDate(taskInput.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be YYYY-MM-DD"})
		return
	}

	taskID, err := uuid.NewV4()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate task ID"})
		return
	}

	task := models.Task{
		ID:            taskID,
		LetterID:      letterID,
		Title:         taskInput.Title,
		Description:   taskInput.Description,
		Priority:      models.TaskPriority(taskInput.Priority),
		AssignedTo:    parseOptionalUUID(taskInput.AssignedTo),
		AssignedGroup: taskInput.AssignedGroup,
		DueDate:       dueDate,
		CreatedBy:     actorID,
	}

	if err := h.taskService.CreateTask(h.db, task, actorID); err != nil {
		handleStoreError(c, err, "task")
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))
	task, err := h.taskService.GetTaskByID(h.db, id)
	if err != nil {
		handleStoreError(c, err, "task")
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	sortBy := c.DefaultQuery("sortBy", "created_at")
	order := c.DefaultQuery("order", "desc")
	page := c.DefaultQuery("page", "1")
	pageSize := c.DefaultQuery("pageSize", "10")

	var filters []query.Predicate
	if status := c.Query("status"); status != "" {
		taskStatus := models.TaskStatus(status)
		if !taskStatus.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
			return
		}
		filters = append(filters, query.TaskStatusIn(taskStatus))
	}
	if assignee := parseOptionalUUID(c.Query("assigned_to")); assignee != nil {
		filters = append(filters, query.AssignedToUser(*assignee))
	}
	if letterID := parseOptionalUUID(c.Query("letter_id")); letterID != nil {
		filters = append(filters, query.BelongsToLetter(*letterID))
	}

	tasks, total, err := h.taskService.GetTasksPaginated(h.db, sortBy, order, page, pageSize, filters...)
	if err != nil {
		handleStoreError(c, err, "task")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"total": total,
	})
}

// UpdateStatus routes the transition through the workflow engine so the
// history row and completed_at handling cannot be skipped.
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	id := uuid.FromStringOrNil(c.Param("id"))

	var input struct {
		Status  string `json:"status" binding:"required"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	change, err := h.engine.TransitionStatus(h.db, id, models.TaskStatus(input.Status), &actorID, input.Comment)
	if err != nil {
		if errors.Is(err, workflow.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		handleStoreError(c, err, "task")
		return
	}
	c.JSON(http.StatusOK, change)
}

func (h *TaskHandler) Reassign(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	id := uuid.FromStringOrNil(c.Param("id"))

	var input struct {
		AssignedTo    string `json:"assigned_to"`
		AssignedGroup string `json:"assigned_group"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.taskService.ReassignTask(h.db, id, parseOptionalUUID(input.AssignedTo), input.AssignedGroup, actorID)
	if err != nil {
		handleStoreError(c, err, "task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task reassigned successfully"})
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))
	if err := h.taskService.DeleteTask(h.db, id); err != nil {
		handleStoreError(c, err, "task")
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
