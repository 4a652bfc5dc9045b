package notify

import (
	"fmt"
	"log"
	"time"

	"letter-tracker/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// Clock supplies the timestamp stamped on notification rows. The deadline
// reminder dedupe window keys on these timestamps, so the dispatcher and the
// deadline monitor should share one clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Dispatcher fans a single logical event out to every interested recipient.
// All Notification rows for one event are committed in a single transaction
// before any external send is attempted; delivery failures are logged only.
type Dispatcher struct {
	delivery Delivery
	clock    Clock
}

func NewDispatcher(delivery Delivery) *Dispatcher {
	return NewDispatcherWithClock(delivery, nil)
}

func NewDispatcherWithClock(delivery Delivery, clock Clock) *Dispatcher {
	if delivery == nil {
		delivery = LogDelivery{}
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &Dispatcher{delivery: delivery, clock: clock}
}

type recipient struct {
	userID uuid.UUID
	email  bool
}

type event struct {
	kind       models.NotificationKind
	entityType string
	entityID   uuid.UUID
	title      string
	message    string
	actionURL  string
}

// TaskAssigned notifies the assignee of a newly assigned task. The actor who
// performed the assignment is never notified, so self-assignment is a no-op.
func (d *Dispatcher) TaskAssigned(db *gorm.DB, taskID uuid.UUID, actor uuid.UUID) (int, error) {
	var task models.Task
	if err := db.First(&task, "id = ?", taskID).Error; err != nil {
		return 0, fmt.Errorf("load task for assignment notification: %w", err)
	}

	assignee, ok := task.Assignee()
	if !ok || assignee == actor {
		return 0, nil
	}

	return d.dispatch(db, event{
		kind:       models.NotificationTaskAssigned,
		entityType: "task",
		entityID:   task.ID,
		title:      "Task assigned to you",
		message:    fmt.Sprintf("You have been assigned the task %q.", task.Title),
		actionURL:  fmt.Sprintf("/tasks/%s", task.ID),
	}, []recipient{{userID: assignee, email: true}})
}

// TaskStatusChanged notifies the assignee and the creator of a status
// transition. Whoever performed the change is suppressed; a nil actor is the
// automation identity and suppresses nobody.
func (d *Dispatcher) TaskStatusChanged(db *gorm.DB, taskID uuid.UUID, oldStatus, newStatus models.TaskStatus, actor *uuid.UUID) (int, error) {
	var task models.Task
	if err := db.First(&task, "id = ?", taskID).Error; err != nil {
		return 0, fmt.Errorf("load task for status notification: %w", err)
	}

	var recipients []recipient
	if assignee, ok := task.Assignee(); ok && (actor == nil || assignee != *actor) {
		recipients = append(recipients, recipient{userID: assignee, email: true})
	}
	if actor == nil || task.CreatedBy != *actor {
		recipients = append(recipients, recipient{userID: task.CreatedBy, email: true})
	}

	return d.dispatch(db, event{
		kind:       models.NotificationTaskUpdated,
		entityType: "task",
		entityID:   task.ID,
		title:      "Task status updated",
		message:    fmt.Sprintf("Task %q moved from %s to %s.", task.Title, oldStatus, newStatus),
		actionURL:  fmt.Sprintf("/tasks/%s", task.ID),
	}, recipients)
}

// DeadlineApproaching reminds the assignee about an upcoming due date. An
// unassigned task produces nothing; the event is dropped, not escalated.
func (d *Dispatcher) DeadlineApproaching(db *gorm.DB, taskID uuid.UUID, daysUntilDue int) (int, error) {
	var task models.Task
	if err := db.First(&task, "id = ?", taskID).Error; err != nil {
		return 0, fmt.Errorf("load task for deadline notification: %w", err)
	}

	assignee, ok := task.Assignee()
	if !ok {
		return 0, nil
	}

	message := fmt.Sprintf("Task %q is due in %d day(s).", task.Title, daysUntilDue)
	if daysUntilDue <= 0 {
		message = fmt.Sprintf("Task %q is due today.", task.Title)
	}

	return d.dispatch(db, event{
		kind:       models.NotificationDeadline,
		entityType: "task",
		entityID:   task.ID,
		title:      "Task deadline approaching",
		message:    message,
		actionURL:  fmt.Sprintf("/tasks/%s", task.ID),
	}, []recipient{{userID: assignee, email: true}})
}

// TaskEscalated notifies a department manager about an overdue task.
func (d *Dispatcher) TaskEscalated(db *gorm.DB, taskID uuid.UUID, managerID uuid.UUID, daysOverdue int) (int, error) {
	var task models.Task
	if err := db.First(&task, "id = ?", taskID).Error; err != nil {
		return 0, fmt.Errorf("load task for escalation notification: %w", err)
	}

	return d.dispatch(db, event{
		kind:       models.NotificationEscalation,
		entityType: "task",
		entityID:   task.ID,
		title:      "Overdue task escalated to you",
		message:    fmt.Sprintf("Task %q in your department is %d day(s) overdue.", task.Title, daysOverdue),
		actionURL:  fmt.Sprintf("/tasks/%s", task.ID),
	}, []recipient{{userID: managerID, email: true}})
}

// LetterCreated notifies the owning department's manager (with email) and all
// active admins (in-app only, deliberately without email) about a new letter.
// The uploader is never notified, even when they are an admin or the manager.
func (d *Dispatcher) LetterCreated(db *gorm.DB, letterID uuid.UUID, uploader uuid.UUID) (int, error) {
	var letter models.Letter
	if err := db.First(&letter, "id = ?", letterID).Error; err != nil {
		return 0, fmt.Errorf("load letter for creation notification: %w", err)
	}

	var recipients []recipient
	if letter.DepartmentID != nil {
		var department models.Department
		if err := db.First(&department, "id = ?", *letter.DepartmentID).Error; err != nil {
			return 0, fmt.Errorf("load department for letter notification: %w", err)
		}
		if department.ManagerID != nil && *department.ManagerID != uploader {
			recipients = append(recipients, recipient{userID: *department.ManagerID, email: true})
		}
	}

	var admins []models.User
	if err := db.Where("role = ? AND is_active = ?", models.RoleAdmin, true).Find(&admins).Error; err != nil {
		return 0, fmt.Errorf("load admins for letter notification: %w", err)
	}
	for _, admin := range admins {
		if admin.ID == uploader {
			continue
		}
		recipients = append(recipients, recipient{userID: admin.ID, email: false})
	}

	return d.dispatch(db, event{
		kind:       models.NotificationLetterCreated,
		entityType: "letter",
		entityID:   letter.ID,
		title:      "New letter received",
		message:    fmt.Sprintf("Letter %s (%s) has been logged.", letter.ReferenceNo, letter.Subject),
		actionURL:  fmt.Sprintf("/letters/%s", letter.ID),
	}, recipients)
}

// Broadcast sends an identical notification to an explicit recipient list.
// Broadcasts are not self-caused, so the initiating actor is not excluded
// unless the caller leaves them out of the list.
func (d *Dispatcher) Broadcast(db *gorm.DB, userIDs []uuid.UUID, title, message string) (int, error) {
	recipients := make([]recipient, 0, len(userIDs))
	for _, id := range userIDs {
		recipients = append(recipients, recipient{userID: id})
	}

	return d.dispatch(db, event{
		kind:    models.NotificationBroadcast,
		title:   title,
		message: message,
	}, recipients)
}

// BroadcastDepartment notifies every active user of a department, optionally
// excluding one user id.
func (d *Dispatcher) BroadcastDepartment(db *gorm.DB, departmentID uuid.UUID, exclude *uuid.UUID, title, message string) (int, error) {
	var users []models.User
	query := db.Where("department_id = ? AND is_active = ?", departmentID, true)
	if exclude != nil {
		query = query.Where("id <> ?", *exclude)
	}
	if err := query.Find(&users).Error; err != nil {
		return 0, fmt.Errorf("load department users for broadcast: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return d.Broadcast(db, ids, title, message)
}

func (d *Dispatcher) dispatch(db *gorm.DB, ev event, recipients []recipient) (int, error) {
	recipients = dedupe(recipients)
	if len(recipients) == 0 {
		return 0, nil
	}

	notifications := make([]models.Notification, 0, len(recipients))
	for _, r := range recipients {
		id, err := uuid.NewV4()
		if err != nil {
			return 0, err
		}
		notifications = append(notifications, models.Notification{
			ID:         id,
			UserID:     r.userID,
			Title:      ev.title,
			Message:    ev.message,
			Kind:       ev.kind,
			EntityType: ev.entityType,
			EntityID:   ev.entityID,
			ActionURL:  ev.actionURL,
			CreatedAt:  d.clock.Now(),
		})
	}

	tx := db.Begin()
	if tx.Error != nil {
		return 0, tx.Error
	}
	for i := range notifications {
		if err := tx.Create(&notifications[i]).Error; err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("create notification: %w", err)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return 0, err
	}

	// Rows are committed; delivery from here on is best-effort.
	for _, r := range recipients {
		if err := d.delivery.SendPush(r.userID, ev.title, ev.message); err != nil {
			log.Printf("push delivery to %s failed: %v", r.userID, err)
		}
		if r.email {
			if err := d.delivery.SendEmail(r.userID, ev.title, ev.message); err != nil {
				log.Printf("email delivery to %s failed: %v", r.userID, err)
			}
		}
	}

	return len(notifications), nil
}

// dedupe keeps the first occurrence of each user id, upgrading it to an email
// recipient if any duplicate requested email.
func dedupe(recipients []recipient) []recipient {
	seen := make(map[uuid.UUID]int, len(recipients))
	out := make([]recipient, 0, len(recipients))
	for _, r := range recipients {
		if i, ok := seen[r.userID]; ok {
			if r.email {
				out[i].email = true
			}
			continue
		}
		seen[r.userID] = len(out)
		out = append(out, r)
	}
	return out
}
