package models

import "time"

// Application is a program sign-up (education, fitness, fashion, ...).
// Immutable after creation; read by admin.
type Application struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FirstName string    `gorm:"size:64;not null" json:"first_name"`
	LastName  string    `gorm:"size:64;not null" json:"last_name"`
	Email     string    `gorm:"size:255;not null;index" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Program   string    `gorm:"size:128;not null;index" json:"program"`
	Message   string    `gorm:"type:text" json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
