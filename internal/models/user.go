package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleManager UserRole = "MANAGER"
	RoleMember  UserRole = "MEMBER"
	RoleViewer  UserRole = "VIEWER"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleMember, RoleViewer:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid;default:uuid_generate_v4()"`
	Name         string     `json:"name" gorm:"not null"`
	Email        string     `json:"email" gorm:"unique;not null"`
	Password     string     `json:"-" gorm:"not null"`
	Role         UserRole   `json:"role" gorm:"not null;default:'MEMBER'"`
	DepartmentID *uuid.UUID `json:"department_id" gorm:"type:uuid"`
	// No default tag on is_active: gorm omits zero-value fields that carry
	// one, so a user inserted with IsActive=false would come back active.
	IsActive bool `json:"is_active" gorm:"not null"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Department struct {
	ID        uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid;default:uuid_generate_v4()"`
	Name      string     `json:"name" gorm:"unique;not null"`
	ManagerID *uuid.UUID `json:"manager_id" gorm:"type:uuid"`
	CreatedAt time.Time  `json:"created_at"`
}

type Token struct {
	ID           uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	UserId       uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	RefreshToken uuid.UUID `json:"refresh_token" gorm:"type:uuid;unique;not null"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}
