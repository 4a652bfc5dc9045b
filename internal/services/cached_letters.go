package services

import (
	"fmt"
	"time"

	"letter-tracker/backend/internal/cache"
	"letter-tracker/backend/internal/models"
	"letter-tracker/backend/internal/query"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// CachedLetterService caches the letter read paths. Filtered listings bypass
// the cache entirely; only the unfiltered default listing and single-letter
// reads are cached, and every write invalidates them.
type CachedLetterService struct {
	letterService LetterService
	cache         *cache.RedisCache
}

func NewCachedLetterService(letterService LetterService, cacheInstance *cache.RedisCache) *CachedLetterService {
	return &CachedLetterService{
		letterService: letterService,
		cache:         cacheInstance,
	}
}

func (s *CachedLetterService) CreateLetter(db *gorm.DB, letter models.Letter) error {
	if err := s.letterService.CreateLetter(db, letter); err != nil {
		return err
	}

	s.cache.DeletePattern("letters_paginated:*")
	return nil
}

func (s *CachedLetterService) GetLetterByID(db *gorm.DB, id uuid.UUID) (models.Letter, error) {
	cacheKey := fmt.Sprintf("letter:%s", id.String())

	var cached models.Letter
	if err := s.cache.Get(cacheKey, &cached); err == nil {
		return cached, nil
	}

	letter, err := s.letterService.GetLetterByID(db, id)
	if err != nil {
		return letter, err
	}

	s.cache.Set(cacheKey, letter, 30*time.Minute)
	return letter, nil
}

func (s *CachedLetterService) GetLettersPaginated(db *gorm.DB, sortBy, order, page, pageSize string, filters ...query.Predicate) ([]models.Letter, int64, error) {
	if len(filters) > 0 {
		return s.letterService.GetLettersPaginated(db, sortBy, order, page, pageSize, filters...)
	}

	cacheKey := fmt.Sprintf("letters_paginated:%s:%s:%s:%s", sortBy, order, page, pageSize)

	var cached struct {
		Letters []models.Letter `json:"letters"`
		Total   int64           `json:"total"`
	}
	if err := s.cache.Get(cacheKey, &cached); err == nil {
		return cached.Letters, cached.Total, nil
	}

	letters, total, err := s.letterService.GetLettersPaginated(db, sortBy, order, page, pageSize)
	if err != nil {
		return letters, total, err
	}

	cached.Letters = letters
	cached.Total = total
	s.cache.Set(cacheKey, cached, 5*time.Minute)

	return letters, total, nil
}

func (s *CachedLetterService) UpdateLetter(db *gorm.DB, id uuid.UUID, updated models.Letter) error {
	if err := s.letterService.UpdateLetter(db, id, updated); err != nil {
		return err
	}

	s.cache.Delete(fmt.Sprintf("letter:%s", id.String()))
	s.cache.DeletePattern("letters_paginated:*")
	return nil
}

func (s *CachedLetterService) DeleteLetter(db *gorm.DB, id uuid.UUID) error {
	if err := s.letterService.DeleteLetter(db, id); err != nil {
		return err
	}

	s.cache.Delete(fmt.Sprintf("letter:%s", id.String()))
	s.cache.DeletePattern("letters_paginated:*")
	return nil
}
