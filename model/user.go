// model/user.go
package model

import "time"

type User struct {
	ID            string `json:"id" gorm:"primaryKey"`
	Email         string `json:"email" gorm:"uniqueIndex;not null"`
	Username      string `json:"username" gorm:"uniqueIndex;not null"`
	Password      string `json:"-"`
	AvatarURL     string `json:"avatar_url"`
	GoogleSubject string `json:"-" gorm:"index"` // set when the account came through Google sign-in
	IsActive      bool   `json:"is_active" gorm:"default:true"`

	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
