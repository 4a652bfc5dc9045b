package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityUrgent TaskPriority = "URGENT"
)

type Task struct {
	ID            uuid.UUID    `json:"id" gorm:"primaryKey;type:uuid;default:uuid_generate_v4()"`
	LetterID      uuid.UUID    `json:"letter_id" gorm:"type:uuid;not null;index"`
	Title         string       `json:"title" gorm:"not null"`
	Description   string       `json:"description"`
	Status        TaskStatus   `json:"status" gorm:"not null;default:'PENDING'"`
	Priority      TaskPriority `json:"priority" gorm:"not null;default:'MEDIUM'"`
	AssignedTo    *uuid.UUID   `json:"assigned_to" gorm:"type:uuid"`
	AssignedGroup string       `json:"assigned_group"`
	DueDate       *time.Time   `json:"due_date"`
	CreatedBy     uuid.UUID    `json:"created_by" gorm:"type:uuid;not null"`
	CompletedAt   *time.Time   `json:"completed_at"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`

	StatusChanges []TaskStatusChange `json:"status_changes,omitempty" gorm:"foreignKey:TaskID"`
}

// Open means the task still needs work; COMPLETED and CANCELLED tasks are
// excluded from every deadline scan.
func (t *Task) Open() bool {
	return t.Status == TaskStatusPending || t.Status == TaskStatusInProgress
}

// Assignee resolves the dual assignment fields: a user assignment always wins
// over a free-text group label when both are set.
func (t *Task) Assignee() (uuid.UUID, bool) {
	if t.AssignedTo != nil {
		return *t.AssignedTo, true
	}
	return uuid.Nil, false
}

// TaskStatusChange is the append-only transition history. Rows are never
// updated or deleted; ChangedBy is nil for automation-driven transitions.
type TaskStatusChange struct {
	ID        uuid.UUID   `json:"id" gorm:"primaryKey;type:uuid;default:uuid_generate_v4()"`
	TaskID    uuid.UUID   `json:"task_id" gorm:"type:uuid;not null;index"`
	OldStatus *TaskStatus `json:"old_status"`
	NewStatus TaskStatus  `json:"new_status" gorm:"not null"`
	ChangedBy *uuid.UUID  `json:"changed_by" gorm:"type:uuid"`
	Comment   string      `json:"comment"`
	CreatedAt time.Time   `json:"created_at"`
}
