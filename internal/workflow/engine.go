package workflow

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"letter-tracker/backend/internal/models"
	"letter-tracker/backend/internal/notify"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

var ErrInvalidStatus = errors.New("invalid task status")

// Engine applies task status transitions. The status field, the completed_at
// field and the history row always move together in one transaction, and
// transitions for a single task are serialized so the task's status can never
// disagree with its most recent history row.
type Engine struct {
	dispatcher *notify.Dispatcher

	// Striped locks: tasks hashing to the same stripe share a mutex, which
	// keeps memory constant no matter how many tasks ever transition.
	locks [64]sync.Mutex
}

func NewEngine(dispatcher *notify.Dispatcher) *Engine {
	return &Engine{dispatcher: dispatcher}
}

func (e *Engine) taskLock(taskID uuid.UUID) *sync.Mutex {
	return &e.locks[int(taskID[0])&(len(e.locks)-1)]
}

// TransitionStatus moves a task to newStatus and appends one history row. Any
// status may move to any other status, and a history row is written even when
// old == new. A nil actor records the transition as automation-driven.
func (e *Engine) TransitionStatus(db *gorm.DB, taskID uuid.UUID, newStatus models.TaskStatus, actor *uuid.UUID, comment string) (*models.TaskStatusChange, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}

	lock := e.taskLock(taskID)
	lock.Lock()
	defer lock.Unlock()

	var task models.Task
	var change models.TaskStatusChange

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, "id = ?", taskID).Error; err != nil {
			return err
		}

		oldStatus := task.Status
		now := time.Now()

		task.Status = newStatus
		task.UpdatedAt = now
		switch {
		case newStatus == models.TaskStatusCompleted && task.CompletedAt == nil:
			task.CompletedAt = &now
		case newStatus != models.TaskStatusCompleted:
			task.CompletedAt = nil
		}

		if err := tx.Save(&task).Error; err != nil {
			return fmt.Errorf("update task status: %w", err)
		}

		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		change = models.TaskStatusChange{
			ID:        id,
			TaskID:    task.ID,
			OldStatus: &oldStatus,
			NewStatus: newStatus,
			ChangedBy: actor,
			Comment:   comment,
			CreatedAt: now,
		}
		if err := tx.Create(&change).Error; err != nil {
			return fmt.Errorf("record status change: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The transition is committed; the notification fan-out must not undo it.
	if e.dispatcher != nil {
		if _, err := e.dispatcher.TaskStatusChanged(db, task.ID, *change.OldStatus, change.NewStatus, actor); err != nil {
			log.Printf("status change notification for task %s failed: %v", task.ID, err)
		}
	}

	return &change, nil
}
