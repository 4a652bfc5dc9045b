package automation

import (
	"context"
	"testing"
	"time"

	"letter-tracker/backend/internal/deadline"
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
		`CREATE TABLE automation_runs (
			id TEXT PRIMARY KEY,
			ran_at DATETIME,
			overdue_processed INTEGER,
			reminders_sent INTEGER
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

func datePtr(t time.Time) *time.Time { return &t }

// newRunnerFixture wires a monitor, dispatcher and runner that all share one
// fixed clock, so reminder idempotence can be tested at an arbitrary date.
func newRunnerFixture(budget time.Duration) (fixedClock, *Runner) {
	clock := fixedClock{now: time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)}
	dispatcher := notify.NewDispatcherWithClock(notify.LogDelivery{}, clock)
	monitor := deadline.NewMonitor(clock, dispatcher)
	return clock, NewRunner(monitor, clock, budget)
}

// seedDeadlineScenario builds a department with a manager, one letter, two
// overdue tasks and one task due tomorrow relative to now.
func seedDeadlineScenario(t *testing.T, db *gorm.DB, now time.Time) (manager, assignee uuid.UUID) {
	t.Helper()

	manager = mustUUID(t)
	assignee = mustUUID(t)

	department := models.Department{ID: mustUUID(t), Name: "Operations", ManagerID: &manager}
	if err := db.Create(&department).Error; err != nil {
		t.Fatalf("Failed to seed department: %v", err)
	}
	letter := models.Letter{
		ID:           mustUUID(t),
		ReferenceNo:  "LTR-2026-0200",
		Subject:      "Compliance filing",
		DepartmentID: &department.ID,
		Status:       models.LetterStatusOpen,
		UploadedBy:   mustUUID(t),
	}
	if err := db.Create(&letter).Error; err != nil {
		t.Fatalf("Failed to seed letter: %v", err)
	}

	today := deadline.Day(now)
	tasks := []models.Task{
		{
			ID:        mustUUID(t),
			LetterID:  letter.ID,
			Title:     "Overdue draft",
			Status:    models.TaskStatusPending,
			Priority:  models.TaskPriorityHigh,
			DueDate:   datePtr(today.AddDate(0, 0, -3)),
			CreatedBy: mustUUID(t),
		},
		{
			ID:        mustUUID(t),
			LetterID:  letter.ID,
			Title:     "Overdue review",
			Status:    models.TaskStatusInProgress,
			Priority:  models.TaskPriorityMedium,
			DueDate:   datePtr(today.AddDate(0, 0, -1)),
			CreatedBy: mustUUID(t),
		},
		{
			ID:         mustUUID(t),
			LetterID:   letter.ID,
			Title:      "Due tomorrow",
			Status:     models.TaskStatusPending,
			Priority:   models.TaskPriorityMedium,
			AssignedTo: &assignee,
			DueDate:    datePtr(today.AddDate(0, 0, 1)),
			CreatedBy:  mustUUID(t),
		},
	}
	for i := range tasks {
		if err := db.Create(&tasks[i]).Error; err != nil {
			t.Fatalf("Failed to seed task: %v", err)
		}
	}
	return manager, assignee
}

func TestRunnerProcessesOverdueAndReminders(t *testing.T) {
	db := newTestDB(t)

	clock, runner := newRunnerFixture(time.Minute)
	manager, assignee := seedDeadlineScenario(t, db, clock.now)

	summary, err := runner.Run(context.Background(), db)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.OverdueProcessed != 2 {
		t.Errorf("Expected 2 overdue tasks processed, got %d", summary.OverdueProcessed)
	}
	if summary.RemindersSent != 1 {
		t.Errorf("Expected 1 reminder sent, got %d", summary.RemindersSent)
	}

	var escalations int64
	db.Model(&models.Notification{}).
		Where("kind = ? AND user_id = ?", models.NotificationEscalation, manager).
		Count(&escalations)
	if escalations != 2 {
		t.Errorf("Expected 2 escalation notifications for the manager, got %d", escalations)
	}

	var reminders int64
	db.Model(&models.Notification{}).
		Where("kind = ? AND user_id = ?", models.NotificationDeadline, assignee).
		Count(&reminders)
	if reminders != 1 {
		t.Errorf("Expected 1 deadline reminder for the assignee, got %d", reminders)
	}
}

func TestRunnerSecondRunSameDaySendsNoReminders(t *testing.T) {
	db := newTestDB(t)

	clock, runner := newRunnerFixture(time.Minute)
	seedDeadlineScenario(t, db, clock.now)

	first, err := runner.Run(context.Background(), db)
	if err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	if first.OverdueProcessed != 2 || first.RemindersSent != 1 {
		t.Fatalf("Unexpected first summary: %+v", first)
	}

	second, err := runner.Run(context.Background(), db)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if second.OverdueProcessed != 2 {
		t.Errorf("Expected the overdue pass to reflect current state again, got %d", second.OverdueProcessed)
	}
	if second.RemindersSent != 0 {
		t.Errorf("Expected the same-day repeat to send no reminders, got %d", second.RemindersSent)
	}
}

func TestRunnerWritesAuditRowEveryInvocation(t *testing.T) {
	db := newTestDB(t)

	_, runner := newRunnerFixture(time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := runner.Run(context.Background(), db); err != nil {
			t.Fatalf("Run %d failed: %v", i, err)
		}
	}

	var count int64
	db.Model(&models.AutomationRun{}).Count(&count)
	if count != 3 {
		t.Errorf("Expected 3 audit rows, got %d", count)
	}
}

func TestRunnerEmptyStore(t *testing.T) {
	db := newTestDB(t)

	_, runner := newRunnerFixture(time.Minute)

	summary, err := runner.Run(context.Background(), db)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.OverdueProcessed != 0 || summary.RemindersSent != 0 {
		t.Errorf("Expected an empty summary, got %+v", summary)
	}
}

func TestRunnerContinuesPastFailingTask(t *testing.T) {
	db := newTestDB(t)

	clock, runner := newRunnerFixture(time.Minute)
	manager, _ := seedDeadlineScenario(t, db, clock.now)

	// A task pointing at a missing letter makes its escalation fail; the
	// batch must still process the rest.
	today := deadline.Day(clock.now)
	broken := models.Task{
		ID:        mustUUID(t),
		LetterID:  mustUUID(t),
		Title:     "Orphaned task",
		Status:    models.TaskStatusPending,
		Priority:  models.TaskPriorityLow,
		DueDate:   datePtr(today.AddDate(0, 0, -2)),
		CreatedBy: mustUUID(t),
	}
	if err := db.Create(&broken).Error; err != nil {
		t.Fatalf("Failed to seed task: %v", err)
	}

	summary, err := runner.Run(context.Background(), db)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.OverdueProcessed != 2 {
		t.Errorf("Expected the two healthy tasks to be processed, got %d", summary.OverdueProcessed)
	}

	var escalations int64
	db.Model(&models.Notification{}).
		Where("kind = ? AND user_id = ?", models.NotificationEscalation, manager).
		Count(&escalations)
	if escalations != 2 {
		t.Errorf("Expected 2 escalations despite the failing task, got %d", escalations)
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	runner := NewRunner(nil, nil, 0)
	if runner.budget != DefaultBudget {
		t.Errorf("Expected the default budget, got %v", runner.budget)
	}
	if runner.clock == nil {
		t.Error("Expected a system clock fallback")
	}
}
