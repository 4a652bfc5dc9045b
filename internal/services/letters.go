package services

import (
	"log"
	"strconv"
	"time"

	"letter-tracker/backend/internal/models"
	"letter-tracker/backend/internal/notify"
	"letter-tracker/backend/internal/query"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type LetterService interface {
	CreateLetter(db *gorm.DB, letter models.Letter) error
	GetLetterByID(db *gorm.DB, id uuid.UUID) (models.Letter, error)
	GetLettersPaginated(db *gorm.DB, sortBy, order, page, pageSize string, filters ...query.Predicate) ([]models.Letter, int64, error)
	UpdateLetter(db *gorm.DB, id uuid.UUID, updated models.Letter) error
	DeleteLetter(db *gorm.DB, id uuid.UUID) error
}

type LetterServiceImpl struct {
	dispatcher *notify.Dispatcher
}

func NewLetterService(dispatcher *notify.Dispatcher) *LetterServiceImpl {
	return &LetterServiceImpl{dispatcher: dispatcher}
}

func (s *LetterServiceImpl) CreateLetter(db *gorm.DB, letter models.Letter) error {
	if letter.CreatedAt.IsZero() {
		letter.CreatedAt = time.Now()
	}
	if err := db.Create(&letter).Error; err != nil {
		return err
	}

	if s.dispatcher != nil {
		if _, err := s.dispatcher.LetterCreated(db, letter.ID, letter.UploadedBy); err != nil {
			log.Printf("letter created notification for %s failed: %v", letter.ID, err)
		}
	}
	return nil
}

func (s *LetterServiceImpl) GetLetterByID(db *gorm.DB, id uuid.UUID) (models.Letter, error) {
	var letter models.Letter
	err := db.Preload("Tasks").First(&letter, "id = ?", id).Error
	return letter, err
}

func (s *LetterServiceImpl) GetLettersPaginated(db *gorm.DB, sortBy, order, page, pageSize string, filters ...query.Predicate) ([]models.Letter, int64, error) {
	pageNum, err := strconv.Atoi(page)
	if err != nil || pageNum < 1 {
		pageNum = 1
	}
	size, err := strconv.Atoi(pageSize)
	if err != nil || size < 1 || size > 100 {
		size = 10
	}

	switch sortBy {
	case "created_at", "received_date", "due_date", "reference_no", "priority":
	default:
		sortBy = "created_at"
	}
	if order != "asc" {
		order = "desc"
	}

	base := query.Apply(db.Model(&models.Letter{}), filters...)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var letters []models.Letter
	err = base.
		Order(sortBy + " " + order).
		Offset((pageNum - 1) * size).
		Limit(size).
		Find(&letters).Error
	return letters, total, err
}

func (s *LetterServiceImpl) UpdateLetter(db *gorm.DB, id uuid.UUID, updated models.Letter) error {
	var letter models.Letter
	if err := db.First(&letter, "id = ?", id).Error; err != nil {
		return err
	}

	if updated.Subject != "" {
		letter.Subject = updated.Subject
	}
	if updated.Stakeholder != "" {
		letter.Stakeholder = updated.Stakeholder
	}
	if updated.Priority != "" {
		letter.Priority = updated.Priority
	}
	if updated.Status != "" {
		letter.Status = updated.Status
	}
	if updated.DepartmentID != nil {
		letter.DepartmentID = updated.DepartmentID
	}
	if updated.DueDate != nil {
		letter.DueDate = updated.DueDate
	}

	return db.Save(&letter).Error
}

func (s *LetterServiceImpl) DeleteLetter(db *gorm.DB, id uuid.UUID) error {
	result := db.Delete(&models.Letter{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
