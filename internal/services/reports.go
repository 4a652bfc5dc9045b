package services

import (
	"letter-tracker/backend/internal/models"
	"letter-tracker/backend/internal/query"

	"gorm.io/gorm"
)

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type GroupCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type ReportService interface {
	LettersByStatus(db *gorm.DB, filters ...query.Predicate) ([]StatusCount, error)
	LettersByStakeholder(db *gorm.DB, filters ...query.Predicate) ([]GroupCount, error)
	TasksByStatus(db *gorm.DB, filters ...query.Predicate) ([]StatusCount, error)
	TasksByAssignee(db *gorm.DB, filters ...query.Predicate) ([]GroupCount, error)
}

// ReportServiceImpl builds its summaries from the typed predicates in
// internal/query; nothing caller-supplied ever reaches the SQL text.
type ReportServiceImpl struct{}

func NewReportService() *ReportServiceImpl {
	return &ReportServiceImpl{}
}

func (s *ReportServiceImpl) LettersByStatus(db *gorm.DB, filters ...query.Predicate) ([]StatusCount, error) {
	var rows []StatusCount
	err := query.Apply(db.Model(&models.Letter{}), filters...).
		Select("status, count(*) as count").
		Group("status").
		Order("status asc").
		Scan(&rows).Error
	return rows, err
}

func (s *ReportServiceImpl) LettersByStakeholder(db *gorm.DB, filters ...query.Predicate) ([]GroupCount, error) {
	var rows []GroupCount
	err := query.Apply(db.Model(&models.Letter{}), filters...).
		Select("stakeholder as key, count(*) as count").
		Group("stakeholder").
		Order("count desc").
		Scan(&rows).Error
	return rows, err
}

func (s *ReportServiceImpl) TasksByStatus(db *gorm.DB, filters ...query.Predicate) ([]StatusCount, error) {
	var rows []StatusCount
	err := query.Apply(db.Model(&models.Task{}), filters...).
		Select("status, count(*) as count").
		Group("status").
		Order("status asc").
		Scan(&rows).Error
	return rows, err
}

func (s *ReportServiceImpl) TasksByAssignee(db *gorm.DB, filters ...query.Predicate) ([]GroupCount, error) {
	var rows []GroupCount
	err := query.Apply(db.Model(&models.Task{}), filters...).
		Where("assigned_to IS NOT NULL").
		Select("assigned_to as key, count(*) as count").
		Group("assigned_to").
		Order("count desc").
		Scan(&rows).Error
	return rows, err
}
