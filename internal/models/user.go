package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
	RoleParent  UserRole = "parent"
)

// User mirrors the Casdoor account; ID is the Casdoor subject.
type User struct {
	ID        string         `json:"id" gorm:"primaryKey;size:255"`
	Name      string         `json:"name" gorm:"size:255;not null"`
	Email     string         `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Role      UserRole       `json:"role" gorm:"size:20;not null;default:student"`
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Student fields, empty for other roles
	Grade       int    `json:"grade,omitempty" gorm:"default:0"`
	Section     string `json:"section,omitempty" gorm:"size:10"`
	RollNumber  string `json:"roll_number,omitempty" gorm:"size:50"`
	ParentEmail string `json:"parent_email,omitempty" gorm:"size:255"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher || u.Role == RoleAdmin
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}
