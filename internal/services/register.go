package services

import (
	"errors"
	"time"

	"letter-tracker/backend/internal/models"

	"github.com/gofrs/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegistrationRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=100"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	DepartmentID string `json:"department_id,omitempty"`
}

type RegisterService interface {
	RegisterUser(db *gorm.DB, req RegistrationRequest) (*models.User, error)
}

type RegisterServiceImpl struct{}

func NewRegisterService() *RegisterServiceImpl {
	return &RegisterServiceImpl{}
}

func (s *RegisterServiceImpl) RegisterUser(db *gorm.DB, req RegistrationRequest) (*models.User, error) {
	var existing models.User
	if err := db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, errors.New("email already exists")
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var departmentID *uuid.UUID
	if req.DepartmentID != "" {
		id := uuid.FromStringOrNil(req.DepartmentID)
		if id == uuid.Nil {
			return nil, errors.New("invalid department id")
		}
		var department models.Department
		if err := db.First(&department, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, errors.New("department not found")
			}
			return nil, err
		}
		departmentID = &id
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		ID:           uuid.Must(uuid.NewV4()),
		Name:         req.Name,
		Email:        req.Email,
		Password:     string(hashedPassword),
		Role:         models.RoleMember,
		DepartmentID: departmentID,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}
