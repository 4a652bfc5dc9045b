package services

import (
	"log"
	"strconv"
	"time"

	"letter-tracker/backend/internal/models"
	"letter-tracker/backend/internal/notify"
	"letter-tracker/backend/internal/query"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskService interface {
	CreateTask(db *gorm.DB, task models.Task, actor uuid.UUID) error
	GetTaskByID(db *gorm.DB, id uuid.UUID) (models.Task, error)
	GetTasksByLetter(db *gorm.DB, letterID uuid.UUID) ([]models.Task, error)
	GetTasksByAssignee(db *gorm.DB, userID uuid.UUID) ([]models.Task, error)
	GetTasksPaginated(db *gorm.DB, sortBy, order, page, pageSize string, filters ...query.Predicate) ([]models.Task, int64, error)
	ReassignTask(db *gorm.DB, id uuid.UUID, assignee *uuid.UUID, group string, actor uuid.UUID) error
	DeleteTask(db *gorm.DB, id uuid.UUID) error
}

// TaskServiceImpl covers task CRUD and assignment. Status transitions are
// not handled here; they go through the workflow engine so the history row
// and completed_at bookkeeping cannot be bypassed.
type TaskServiceImpl struct {
	dispatcher *notify.Dispatcher
}

func NewTaskService(dispatcher *notify.Dispatcher) *TaskServiceImpl {
	return &TaskServiceImpl{dispatcher: dispatcher}
}

func (s *TaskServiceImpl) CreateTask(db *gorm.DB, task models.Task, actor uuid.UUID) error {
	var letter models.Letter
	if err := db.First(&letter, "id = ?", task.LetterID).Error; err != nil {
		return err
	}

	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}
	now := time.Now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
		task.UpdatedAt = now
	}

	if err := db.Create(&task).Error; err != nil {
		return err
	}

	if s.dispatcher != nil && task.AssignedTo != nil {
		if _, err := s.dispatcher.TaskAssigned(db, task.ID, actor); err != nil {
			log.Printf("assignment notification for task %s failed: %v", task.ID, err)
		}
	}
	return nil
}

func (s *TaskServiceImpl) GetTaskByID(db *gorm.DB, id uuid.UUID) (models.Task, error) {
	var task models.Task
	err := db.Preload("StatusChanges", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at asc")
	}).First(&task, "id = ?", id).Error
	return task, err
}

func (s *TaskServiceImpl) GetTasksByLetter(db *gorm.DB, letterID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	err := query.Apply(db, query.BelongsToLetter(letterID)).Order("created_at asc").Find(&tasks).Error
	return tasks, err
}

func (s *TaskServiceImpl) GetTasksByAssignee(db *gorm.DB, userID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	err := query.Apply(db, query.AssignedToUser(userID)).Order("due_date asc").Find(&tasks).Error
	return tasks, err
}

func (s *TaskServiceImpl) GetTasksPaginated(db *gorm.DB, sortBy, order, page, pageSize string, filters ...query.Predicate) ([]models.Task, int64, error) {
	pageNum, err := strconv.Atoi(page)
	if err != nil || pageNum < 1 {
		pageNum = 1
	}
	size, err := strconv.Atoi(pageSize)
	if err != nil || size < 1 || size > 100 {
		size = 10
	}

	switch sortBy {
	case "created_at", "due_date", "priority", "status", "title":
	default:
		sortBy = "created_at"
	}
	if order != "asc" {
		order = "desc"
	}

	base := query.Apply(db.Model(&models.Task{}), filters...)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []models.Task
	err = base.
		Order(sortBy + " " + order).
		Offset((pageNum - 1) * size).
		Limit(size).
		Find(&tasks).Error
	return tasks, total, err
}

// ReassignTask changes who the task is assigned to. The new assignee is
// notified unless they performed the reassignment themselves.
func (s *TaskServiceImpl) ReassignTask(db *gorm.DB, id uuid.UUID, assignee *uuid.UUID, group string, actor uuid.UUID) error {
	var task models.Task
	if err := db.First(&task, "id = ?", id).Error; err != nil {
		return err
	}

	previous := task.AssignedTo
	task.AssignedTo = assignee
	task.AssignedGroup = group
	task.UpdatedAt = time.Now()

	if err := db.Save(&task).Error; err != nil {
		return err
	}

	changed := assignee != nil && (previous == nil || *previous != *assignee)
	if s.dispatcher != nil && changed {
		if _, err := s.dispatcher.TaskAssigned(db, task.ID, actor); err != nil {
			log.Printf("assignment notification for task %s failed: %v", task.ID, err)
		}
	}
	return nil
}

func (s *TaskServiceImpl) DeleteTask(db *gorm.DB, id uuid.UUID) error {
	result := db.Delete(&models.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
