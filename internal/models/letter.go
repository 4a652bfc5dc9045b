package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type LetterStatus string

const (
	LetterStatusOpen   LetterStatus = "OPEN"
	LetterStatusClosed LetterStatus = "CLOSED"
)

type Letter struct {
	ID           uuid.UUID    `json:"id" gorm:"primaryKey;type:uuid;default:uuid_generate_v4()"`
	ReferenceNo  string       `json:"reference_no" gorm:"unique;not null"`
	Subject      string       `json:"subject" gorm:"not null"`
	Stakeholder  string       `json:"stakeholder"`
	DepartmentID *uuid.UUID   `json:"department_id" gorm:"type:uuid"`
	Priority     TaskPriority `json:"priority" gorm:"not null;default:'MEDIUM'"`
	Status       LetterStatus `json:"status" gorm:"not null;default:'OPEN'"`
	ReceivedDate time.Time    `json:"received_date"`
	DueDate      *time.Time   `json:"due_date"`
	UploadedBy   uuid.UUID    `json:"uploaded_by" gorm:"type:uuid;not null"`
	CreatedAt    time.Time    `json:"created_at"`

	Tasks []Task `json:"tasks,omitempty" gorm:"foreignKey:LetterID"`
}
