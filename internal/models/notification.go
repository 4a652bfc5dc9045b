package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// NotificationKind is a closed enumeration; deadline reminders use
// (entity_id, kind, calendar day) as their idempotence key.
type NotificationKind string

const (
	NotificationTaskAssigned  NotificationKind = "task_assigned"
	NotificationTaskUpdated   NotificationKind = "task_updated"
	NotificationDeadline      NotificationKind = "deadline"
	NotificationEscalation    NotificationKind = "escalation"
	NotificationLetterCreated NotificationKind = "letter_created"
	NotificationBroadcast     NotificationKind = "broadcast"
)

type Notification struct {
	ID         uuid.UUID        `json:"id" gorm:"primaryKey;type:uuid;default:uuid_generate_v4()"`
	UserID     uuid.UUID        `json:"user_id" gorm:"type:uuid;not null;index"`
	Title      string           `json:"title" gorm:"not null"`
	Message    string           `json:"message"`
	Kind       NotificationKind `json:"kind" gorm:"not null;index"`
	EntityType string           `json:"entity_type"`
	EntityID   uuid.UUID        `json:"entity_id" gorm:"type:uuid;index"`
	ActionURL  string           `json:"action_url"`
	IsRead     bool             `json:"is_read" gorm:"default:false"`
	CreatedAt  time.Time        `json:"created_at"`
}

// AutomationRun is the audit row written once per scheduled-automation
// invocation, even when everything it scanned was already handled.
type AutomationRun struct {
	ID               uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	RanAt            time.Time `json:"ran_at"`
	OverdueProcessed int       `json:"overdue_processed"`
	RemindersSent    int       `json:"reminders_sent"`
}
