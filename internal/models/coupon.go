package models

import "time"

type Coupon struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Code       string     `gorm:"size:32;uniqueIndex;not null" json:"code"`
	PercentOff int64      `gorm:"not null" json:"percent_off"` // whole percent, 1..100
	Active     bool       `gorm:"default:true;index" json:"active"`
	ExpiresAt  *time.Time `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Usable reports whether the coupon can be applied at time t.
func (c *Coupon) Usable(t time.Time) bool {
	if !c.Active {
		return false
	}
	if c.ExpiresAt != nil && t.After(*c.ExpiresAt) {
		return false
	}
	return true
}
