package models_test

import (
	"testing"
	"time"

	"letter-tracker/backend/internal/models"

	"github.com/gofrs/uuid"
)

func TestTaskStatus_Valid(t *testing.T) {
	valid := []models.TaskStatus{
		models.TaskStatusPending,
		models.TaskStatusInProgress,
		models.TaskStatusCompleted,
		models.TaskStatusCancelled,
	}
	for _, status := range valid {
		if !status.Valid() {
			t.Errorf("Expected status '%s' to be valid", status)
		}
	}

	if models.TaskStatus("ARCHIVED").Valid() {
		t.Error("Expected status 'ARCHIVED' to be invalid")
	}
	if models.TaskStatus("pending").Valid() {
		t.Error("Expected lowercase status to be invalid")
	}
}

func TestTask_Open(t *testing.T) {
	task := models.Task{Status: models.TaskStatusPending}
	if !task.Open() {
		t.Error("Expected PENDING task to be open")
	}

	task.Status = models.TaskStatusInProgress
	if !task.Open() {
		t.Error("Expected IN_PROGRESS task to be open")
	}

	task.Status = models.TaskStatusCompleted
	if task.Open() {
		t.Error("Expected COMPLETED task to not be open")
	}

	task.Status = models.TaskStatusCancelled
	if task.Open() {
		t.Error("Expected CANCELLED task to not be open")
	}
}

func TestTask_AssigneeUserWins(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	task := models.Task{
		AssignedTo:    &userID,
		AssignedGroup: "registry",
	}

	assignee, ok := task.Assignee()
	if !ok {
		t.Fatal("Expected an assignee")
	}
	if assignee != userID {
		t.Errorf("Expected assignee %s, got %s", userID, assignee)
	}
}

func TestTask_AssigneeGroupOnly(t *testing.T) {
	task := models.Task{AssignedGroup: "registry"}

	_, ok := task.Assignee()
	if ok {
		t.Error("Expected no user assignee for a group-only assignment")
	}
}

func TestUserRole_Valid(t *testing.T) {
	for _, role := range []models.UserRole{models.RoleAdmin, models.RoleManager, models.RoleMember, models.RoleViewer} {
		if !role.Valid() {
			t.Errorf("Expected role '%s' to be valid", role)
		}
	}

	if models.UserRole("SUPERUSER").Valid() {
		t.Error("Expected role 'SUPERUSER' to be invalid")
	}
}

func TestToken_Validation(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	refreshToken := uuid.Must(uuid.NewV4())
	expiresAt := time.Now().Add(24 * time.Hour)

	token := models.Token{
		ID:           uuid.Must(uuid.NewV4()),
		UserId:       userID,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}

	if token.UserId != userID {
		t.Errorf("Expected UserID %s, got %s", userID.String(), token.UserId.String())
	}

	if token.RefreshToken != refreshToken {
		t.Errorf("Expected RefreshToken %s, got %s", refreshToken.String(), token.RefreshToken.String())
	}

	if token.ExpiresAt != expiresAt {
		t.Errorf("Expected ExpiresAt %v, got %v", expiresAt, token.ExpiresAt)
	}
}
