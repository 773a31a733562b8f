package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account created on first successful Google sign-in
type User struct {
	ID        string    `json:"user_id" gorm:"primaryKey;size:36"`
	GoogleID  string    `json:"-" gorm:"not null;size:255;uniqueIndex"`
	Email     string    `json:"email" gorm:"not null;size:255;uniqueIndex"`
	FullName  string    `json:"full_name" gorm:"not null;size:255"`
	Picture   string    `json:"picture,omitempty" gorm:"size:255"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	LastLogin time.Time `json:"last_login"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// ExternalIdentity is what the identity provider vouches for after verifying a token
type ExternalIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}
