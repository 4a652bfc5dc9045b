package deadline

import (
	"testing"
	"time"

	"letter-tracker/backend/internal/models"
	"letter-tracker/backend/internal/notify"

	"github.com/gofrs/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to access sql DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	statements := []string{
		`CREATE TABLE departments (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			manager_id TEXT,
			created_at DATETIME
		)`,
		`CREATE TABLE letters (
			id TEXT PRIMARY KEY,
			reference_no TEXT NOT NULL,
			subject TEXT NOT NULL,
			stakeholder TEXT,
			department_id TEXT,
			priority TEXT NOT NULL DEFAULT 'MEDIUM',
			status TEXT NOT NULL DEFAULT 'OPEN',
			received_date DATETIME,
			due_date DATETIME,
			uploaded_by TEXT NOT NULL,
			created_at DATETIME
		)`,
		`CREATE TABLE tasks (
			id TEXT PRIMARY KEY,
			letter_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			status TEXT NOT NULL DEFAULT 'PENDING',
			priority TEXT NOT NULL DEFAULT 'MEDIUM',
			assigned_to TEXT,
			assigned_group TEXT,
			due_date DATETIME,
			created_by TEXT NOT NULL,
			completed_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE notifications (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT,
			kind TEXT NOT NULL,
			entity_type TEXT,
			entity_id TEXT,
			action_url TEXT,
			is_read BOOLEAN DEFAULT false,
			created_at DATETIME
		)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("Failed to create test schema: %v", err)
		}
	}
	return db
}

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV4()
	if err != nil {
		t.Fatalf("Failed to generate uuid: %v", err)
	}
	return id
}

func seedTaskDue(t *testing.T, db *gorm.DB, letterID uuid.UUID, status models.TaskStatus, due *time.Time, assignee *uuid.UUID) models.Task {
	t.Helper()
	task := models.Task{
		ID:         mustUUID(t),
		LetterID:   letterID,
		Title:      "Prepare response",
		Status:     status,
		Priority:   models.TaskPriorityMedium,
		AssignedTo: assignee,
		DueDate:    due,
		CreatedBy:  mustUUID(t),
	}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("Failed to seed task: %v", err)
	}
	return task
}

func datePtr(t time.Time) *time.Time { return &t }

func TestFindOverdueTasks(t *testing.T) {
	db := newTestDB(t)
	clock := fixedClock{now: time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)}
	m := NewMonitor(clock, notify.NewDispatcher(notify.LogDelivery{}))

	letterID := mustUUID(t)
	threeDays := seedTaskDue(t, db, letterID, models.TaskStatusPending, datePtr(time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)), nil)
	seedTaskDue(t, db, letterID, models.TaskStatusInProgress, datePtr(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)), nil)
	// Due today is not overdue.
	seedTaskDue(t, db, letterID, models.TaskStatusPending, datePtr(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)), nil)
	// Completed and cancelled tasks never surface.
	seedTaskDue(t, db, letterID, models.TaskStatusCompleted, datePtr(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)), nil)
	seedTaskDue(t, db, letterID, models.TaskStatusCancelled, datePtr(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)), nil)
	// No due date, never overdue.
	seedTaskDue(t, db, letterID, models.TaskStatusPending, nil, nil)

	overdue, err := m.FindOverdueTasks(db)
	if err != nil {
		t.Fatalf("FindOverdueTasks failed: %v", err)
	}
	if len(overdue) != 2 {
		t.Fatalf("Expected 2 overdue tasks, got %d", len(overdue))
	}
	if overdue[0].ID != threeDays.ID {
		t.Errorf("Expected oldest due date first")
	}
	if overdue[0].DaysOverdue != 3 {
		t.Errorf("Expected 3 days overdue, got %d", overdue[0].DaysOverdue)
	}
	if overdue[1].DaysOverdue != 1 {
		t.Errorf("Expected 1 day overdue, got %d", overdue[1].DaysOverdue)
	}
}

func TestFindUpcomingDeadlinesInclusiveWindow(t *testing.T) {
	db := newTestDB(t)
	clock := fixedClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	m := NewMonitor(clock, notify.NewDispatcher(notify.LogDelivery{}))

	letterID := mustUUID(t)
	dueToday := seedTaskDue(t, db, letterID, models.TaskStatusPending, datePtr(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)), nil)
	dueAtEdge := seedTaskDue(t, db, letterID, models.TaskStatusPending, datePtr(time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)), nil)
	// One day past the window.
	seedTaskDue(t, db, letterID, models.TaskStatusPending, datePtr(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)), nil)
	// Yesterday belongs to the overdue scan, not this one.
	seedTaskDue(t, db, letterID, models.TaskStatusPending, datePtr(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)), nil)

	upcoming, err := m.FindUpcomingDeadlines(db, 3)
	if err != nil {
		t.Fatalf("FindUpcomingDeadlines failed: %v", err)
	}
	if len(upcoming) != 2 {
		t.Fatalf("Expected 2 upcoming tasks, got %d", len(upcoming))
	}
	if upcoming[0].ID != dueToday.ID || upcoming[0].DaysUntilDue != 0 {
		t.Errorf("Expected the task due today first with 0 days until due")
	}
	if upcoming[1].ID != dueAtEdge.ID || upcoming[1].DaysUntilDue != 3 {
		t.Errorf("Expected the window edge to be inclusive")
	}
}

func TestFindUpcomingDeadlinesDefaultWindow(t *testing.T) {
	db := newTestDB(t)
	clock := fixedClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	m := NewMonitor(clock, notify.NewDispatcher(notify.LogDelivery{}))

	letterID := mustUUID(t)
	seedTaskDue(t, db, letterID, models.TaskStatusPending, datePtr(time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)), nil)
	seedTaskDue(t, db, letterID, models.TaskStatusPending, datePtr(time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)), nil)

	upcoming, err := m.FindUpcomingDeadlines(db, 0)
	if err != nil {
		t.Fatalf("FindUpcomingDeadlines failed: %v", err)
	}
	if len(upcoming) != 1 {
		t.Errorf("Expected the default 7-day window, got %d tasks", len(upcoming))
	}
}

func TestFindTasksDueTomorrowSkipsAlreadyReminded(t *testing.T) {
	db := newTestDB(t)
	clock := fixedClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	m := NewMonitor(clock, notify.NewDispatcher(notify.LogDelivery{}))

	letterID := mustUUID(t)
	tomorrow := datePtr(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC))

	fresh := seedTaskDue(t, db, letterID, models.TaskStatusPending, tomorrow, nil)
	reminded := seedTaskDue(t, db, letterID, models.TaskStatusInProgress, tomorrow, nil)
	seedTaskDue(t, db, letterID, models.TaskStatusCompleted, tomorrow, nil)

	// A deadline reminder already sent today for one of the tasks.
	existing := models.Notification{
		ID:         mustUUID(t),
		UserID:     mustUUID(t),
		Title:      "Task deadline approaching",
		Kind:       models.NotificationDeadline,
		EntityType: "task",
		EntityID:   reminded.ID,
		CreatedAt:  time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}
	if err := db.Create(&existing).Error; err != nil {
		t.Fatalf("Failed to seed notification: %v", err)
	}

	due, err := m.FindTasksDueTomorrow(db)
	if err != nil {
		t.Fatalf("FindTasksDueTomorrow failed: %v", err)
	}
	if len(due) != 1 || due[0].ID != fresh.ID {
		t.Fatalf("Expected only the task without a reminder today, got %d", len(due))
	}
}

func TestFindTasksDueTomorrowYesterdaysReminderDoesNotCount(t *testing.T) {
	db := newTestDB(t)
	clock := fixedClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	m := NewMonitor(clock, notify.NewDispatcher(notify.LogDelivery{}))

	letterID := mustUUID(t)
	task := seedTaskDue(t, db, letterID, models.TaskStatusPending, datePtr(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)), nil)

	stale := models.Notification{
		ID:         mustUUID(t),
		UserID:     mustUUID(t),
		Title:      "Task deadline approaching",
		Kind:       models.NotificationDeadline,
		EntityType: "task",
		EntityID:   task.ID,
		CreatedAt:  time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC),
	}
	if err := db.Create(&stale).Error; err != nil {
		t.Fatalf("Failed to seed notification: %v", err)
	}

	due, err := m.FindTasksDueTomorrow(db)
	if err != nil {
		t.Fatalf("FindTasksDueTomorrow failed: %v", err)
	}
	if len(due) != 1 {
		t.Errorf("Expected yesterday's reminder not to block today's, got %d tasks", len(due))
	}
}

func TestEscalateTaskNotifiesManager(t *testing.T) {
	db := newTestDB(t)
	clock := fixedClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	m := NewMonitor(clock, notify.NewDispatcher(notify.LogDelivery{}))

	managerID := mustUUID(t)
	department := models.Department{ID: mustUUID(t), Name: "Operations", ManagerID: &managerID}
	if err := db.Create(&department).Error; err != nil {
		t.Fatalf("Failed to seed department: %v", err)
	}
	letter := models.Letter{
		ID:           mustUUID(t),
		ReferenceNo:  "LTR-2026-0100",
		Subject:      "Vendor complaint",
		DepartmentID: &department.ID,
		Status:       models.LetterStatusOpen,
		UploadedBy:   mustUUID(t),
	}
	if err := db.Create(&letter).Error; err != nil {
		t.Fatalf("Failed to seed letter: %v", err)
	}
	task := seedTaskDue(t, db, letter.ID, models.TaskStatusPending, datePtr(time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)), nil)

	n, err := m.EscalateTask(db, task.ID)
	if err != nil {
		t.Fatalf("EscalateTask failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("Expected one escalation notification, got %d", n)
	}

	var row models.Notification
	if err := db.First(&row, "user_id = ?", managerID).Error; err != nil {
		t.Fatalf("Expected an escalation row for the manager: %v", err)
	}
	if row.Kind != models.NotificationEscalation {
		t.Errorf("Expected escalation kind, got %s", row.Kind)
	}
}

func TestEscalateTaskNoManagerIsSilent(t *testing.T) {
	db := newTestDB(t)
	clock := fixedClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	m := NewMonitor(clock, notify.NewDispatcher(notify.LogDelivery{}))

	department := models.Department{ID: mustUUID(t), Name: "Archive"}
	if err := db.Create(&department).Error; err != nil {
		t.Fatalf("Failed to seed department: %v", err)
	}
	letter := models.Letter{
		ID:           mustUUID(t),
		ReferenceNo:  "LTR-2026-0101",
		Subject:      "Records request",
		DepartmentID: &department.ID,
		Status:       models.LetterStatusOpen,
		UploadedBy:   mustUUID(t),
	}
	if err := db.Create(&letter).Error; err != nil {
		t.Fatalf("Failed to seed letter: %v", err)
	}
	task := seedTaskDue(t, db, letter.ID, models.TaskStatusPending, datePtr(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)), nil)

	n, err := m.EscalateTask(db, task.ID)
	if err != nil {
		t.Fatalf("Expected a silent no-op, got error: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected no escalation without a manager, got %d", n)
	}
}

func TestEscalateTaskNoDepartmentIsSilent(t *testing.T) {
	db := newTestDB(t)
	clock := fixedClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	m := NewMonitor(clock, notify.NewDispatcher(notify.LogDelivery{}))

	letter := models.Letter{
		ID:          mustUUID(t),
		ReferenceNo: "LTR-2026-0102",
		Subject:     "Unrouted letter",
		Status:      models.LetterStatusOpen,
		UploadedBy:  mustUUID(t),
	}
	if err := db.Create(&letter).Error; err != nil {
		t.Fatalf("Failed to seed letter: %v", err)
	}
	task := seedTaskDue(t, db, letter.ID, models.TaskStatusPending, datePtr(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)), nil)

	n, err := m.EscalateTask(db, task.ID)
	if err != nil {
		t.Fatalf("Expected a silent no-op, got error: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected no escalation without a department, got %d", n)
	}
}

func TestDayAndDaysBetween(t *testing.T) {
	a := time.Date(2026, 3, 7, 23, 59, 0, 0, time.UTC)
	b := time.Date(2026, 3, 10, 0, 1, 0, 0, time.UTC)

	if got := DaysBetween(a, b); got != 3 {
		t.Errorf("Expected 3 days between, got %d", got)
	}
	if got := DaysBetween(b, a); got != -3 {
		t.Errorf("Expected -3 days between reversed, got %d", got)
	}
	if day := Day(b); day.Hour() != 0 || day.Minute() != 0 {
		t.Errorf("Expected Day to truncate to midnight, got %v", day)
	}
}
