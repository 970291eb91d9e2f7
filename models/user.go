package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Valid account roles
const (
	RoleStaff   = "staff"
	RoleTrapper = "trapper"
	RoleAdmin   = "admin"
)

type User struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	FirstName   string     `gorm:"not null" json:"first_name"`
	LastName    string     `json:"last_name"`
	Role        string     `gorm:"not null;default:staff" json:"role"` // staff, trapper, admin
	Title       string     `json:"title"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// BeforeCreate hook to generate UUID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// IsValidRole reports whether role is one of the recognized account roles
func IsValidRole(role string) bool {
	return role == RoleStaff || role == RoleTrapper || role == RoleAdmin
}

// FullName returns the display name for the user
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
