package query

import (
	"testing"
	"time"

	"letter-tracker/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

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

func seedLetter(t *testing.T, db *gorm.DB, status models.LetterStatus, stakeholder string, received time.Time) models.Letter {
	t.Helper()
	letter := models.Letter{
		ID:           mustUUID(t),
		ReferenceNo:  "LTR-" + mustUUID(t).String()[:8],
		Subject:      "Subject",
		Stakeholder:  stakeholder,
		Status:       status,
		ReceivedDate: received,
		UploadedBy:   mustUUID(t),
	}
	if err := db.Create(&letter).Error; err != nil {
		t.Fatalf("Failed to seed letter: %v", err)
	}
	return letter
}

func TestLetterStatusIs(t *testing.T) {
	db := newTestDB(t)
	received := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	seedLetter(t, db, models.LetterStatusOpen, "MOF", received)
	seedLetter(t, db, models.LetterStatusClosed, "MOF", received)

	var letters []models.Letter
	if err := Apply(db.Model(&models.Letter{}), LetterStatusIs(models.LetterStatusOpen)).Find(&letters).Error; err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(letters) != 1 || letters[0].Status != models.LetterStatusOpen {
		t.Errorf("Expected only the open letter, got %d", len(letters))
	}
}

func TestReceivedBetweenInclusiveBounds(t *testing.T) {
	db := newTestDB(t)

	from := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC)

	seedLetter(t, db, models.LetterStatusOpen, "MOF", time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC))
	onFrom := seedLetter(t, db, models.LetterStatusOpen, "MOF", from)
	onTo := seedLetter(t, db, models.LetterStatusOpen, "MOF", time.Date(2026, 2, 12, 18, 0, 0, 0, time.UTC))
	seedLetter(t, db, models.LetterStatusOpen, "MOF", time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC))

	var letters []models.Letter
	if err := Apply(db.Model(&models.Letter{}), ReceivedBetween(from, to)).Find(&letters).Error; err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(letters) != 2 {
		t.Fatalf("Expected both boundary letters, got %d", len(letters))
	}
	found := map[uuid.UUID]bool{}
	for _, l := range letters {
		found[l.ID] = true
	}
	if !found[onFrom.ID] || !found[onTo.ID] {
		t.Error("Expected the letters received on the from and to dates")
	}
}

func TestApplyChainsPredicates(t *testing.T) {
	db := newTestDB(t)
	received := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	target := seedLetter(t, db, models.LetterStatusOpen, "CBK", received)
	seedLetter(t, db, models.LetterStatusOpen, "MOF", received)
	seedLetter(t, db, models.LetterStatusClosed, "CBK", received)

	var letters []models.Letter
	err := Apply(db.Model(&models.Letter{}),
		LetterStatusIs(models.LetterStatusOpen),
		StakeholderIs("CBK"),
	).Find(&letters).Error
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(letters) != 1 || letters[0].ID != target.ID {
		t.Errorf("Expected predicates to AND together, got %d rows", len(letters))
	}
}

func TestApplySkipsNilPredicates(t *testing.T) {
	db := newTestDB(t)
	seedLetter(t, db, models.LetterStatusOpen, "MOF", time.Now())

	var letters []models.Letter
	if err := Apply(db.Model(&models.Letter{}), nil, LetterStatusIs(models.LetterStatusOpen), nil).Find(&letters).Error; err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(letters) != 1 {
		t.Errorf("Expected nil predicates to be skipped, got %d rows", len(letters))
	}
}

func TestTaskPredicates(t *testing.T) {
	db := newTestDB(t)

	letterID := mustUUID(t)
	assignee := mustUUID(t)
	due := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)

	tasks := []models.Task{
		{ID: mustUUID(t), LetterID: letterID, Title: "a", Status: models.TaskStatusPending, Priority: models.TaskPriorityHigh, AssignedTo: &assignee, DueDate: &due, CreatedBy: mustUUID(t)},
		{ID: mustUUID(t), LetterID: letterID, Title: "b", Status: models.TaskStatusCompleted, Priority: models.TaskPriorityLow, CreatedBy: mustUUID(t)},
		{ID: mustUUID(t), LetterID: mustUUID(t), Title: "c", Status: models.TaskStatusPending, Priority: models.TaskPriorityHigh, CreatedBy: mustUUID(t)},
	}
	for i := range tasks {
		if err := db.Create(&tasks[i]).Error; err != nil {
			t.Fatalf("Failed to seed task: %v", err)
		}
	}

	var got []models.Task
	err := Apply(db.Model(&models.Task{}),
		BelongsToLetter(letterID),
		TaskStatusIn(models.TaskStatusPending, models.TaskStatusInProgress),
		PriorityIs(models.TaskPriorityHigh),
		AssignedToUser(assignee),
		DueBefore(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)),
	).Find(&got).Error
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != tasks[0].ID {
		t.Errorf("Expected exactly the matching task, got %d rows", len(got))
	}
}
