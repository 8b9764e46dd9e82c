package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"

	UserStatusActive    = "active"
	UserStatusInactive  = "inactive"
	UserStatusSuspended = "suspended"
)

type User struct {
	ID            string         `json:"id" gorm:"primaryKey;type:text;not null"`
	Email         string         `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Username      string         `json:"username" gorm:"uniqueIndex;not null;size:30"`
	PasswordHash  string         `json:"-" gorm:"not null"`
	FirstName     string         `json:"first_name" gorm:"size:50"`
	LastName      string         `json:"last_name" gorm:"size:50"`
	Bio           string         `json:"bio" gorm:"size:500"`
	Website       string         `json:"website"`
	Location      string         `json:"location" gorm:"size:100"`
	Avatar        string         `json:"avatar"`
	SocialLinks   string         `json:"-" gorm:"type:text"`
	Role          string         `json:"role" gorm:"default:user;not null;size:20;index"`
	Status        string         `json:"status" gorm:"default:active;not null;size:20;index"`
	EmailVerified bool           `json:"email_verified" gorm:"default:false;not null"`
	LastLogin     *time.Time     `json:"last_login,omitempty"`
	CreatedAt     time.Time      `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time      `json:"updated_at" gorm:"not null"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

type UserSettings struct {
	UserID             string    `json:"-" gorm:"primaryKey;type:text;not null"`
	EmailNotifications bool      `json:"email_notifications" gorm:"default:true;not null"`
	PushNotifications  bool      `json:"push_notifications" gorm:"default:true;not null"`
	MarketingEmails    bool      `json:"marketing_emails" gorm:"default:false;not null"`
	TwoFactorEnabled   bool      `json:"two_factor_enabled" gorm:"default:false;not null"`
	Language           string    `json:"language" gorm:"default:en;size:5"`
	Timezone           string    `json:"timezone" gorm:"default:UTC;size:64"`
	Currency           string    `json:"currency" gorm:"default:USD;size:5"`
	Theme              string    `json:"theme" gorm:"default:auto;size:10"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DefaultUserSettings is what a user sees before saving any preference.
func DefaultUserSettings(userID string) UserSettings {
	return UserSettings{
		UserID:             userID,
		EmailNotifications: true,
		PushNotifications:  true,
		Language:           "en",
		Timezone:           "UTC",
		Currency:           "USD",
		Theme:              "auto",
	}
}
