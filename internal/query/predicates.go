package query

import (
	"time"

	"letter-tracker/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// Predicate is one composable filter condition. Report and list endpoints
// build their queries from these instead of assembling SQL strings, so each
// filter can be tested in isolation and nothing user-supplied reaches the
// query text.
type Predicate func(*gorm.DB) *gorm.DB

// Apply chains the predicates onto db.
func Apply(db *gorm.DB, predicates ...Predicate) *gorm.DB {
	for _, p := range predicates {
		if p != nil {
			db = p(db)
		}
	}
	return db
}

func LetterStatusIs(status models.LetterStatus) Predicate {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", status)
	}
}

func TaskStatusIn(statuses ...models.TaskStatus) Predicate {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status IN ?", statuses)
	}
}

func PriorityIs(priority models.TaskPriority) Predicate {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("priority = ?", priority)
	}
}

func DepartmentIs(departmentID uuid.UUID) Predicate {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("department_id = ?", departmentID)
	}
}

func StakeholderIs(code string) Predicate {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("stakeholder = ?", code)
	}
}

// ReceivedBetween filters letters on received_date, both bounds inclusive at
// day granularity.
func ReceivedBetween(from, to time.Time) Predicate {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("received_date >= ? AND received_date < ?", from, to.AddDate(0, 0, 1))
	}
}

func AssignedToUser(userID uuid.UUID) Predicate {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("assigned_to = ?", userID)
	}
}

func BelongsToLetter(letterID uuid.UUID) Predicate {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("letter_id = ?", letterID)
	}
}

func DueBefore(t time.Time) Predicate {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("due_date IS NOT NULL AND due_date < ?", t)
	}
}
