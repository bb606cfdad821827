package models

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Name           string         `gorm:"size:255;not null" json:"name"`
	Slug           string         `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Category       string         `gorm:"size:64;index" json:"category"`
	Description    string         `gorm:"type:text" json:"description"`
	PriceCents     int64          `gorm:"not null" json:"price_cents"`
	SalePriceCents int64          `json:"sale_price_cents"`
	Currency       string         `gorm:"size:3;not null;default:'KES'" json:"currency"`
	Rating         float64        `gorm:"default:0" json:"rating"`
	InStock        bool           `gorm:"default:true;index" json:"in_stock"`
	Featured       bool           `gorm:"default:false;index" json:"featured"`
	OnSale         bool           `gorm:"default:false;index" json:"on_sale"`
	Images         string         `gorm:"type:text" json:"images"` // JSON array of Cloudinary URLs
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// EffectivePriceCents is the price a buyer pays right now.
func (p *Product) EffectivePriceCents() int64 {
	if p.OnSale && p.SalePriceCents > 0 {
		return p.SalePriceCents
	}
	return p.PriceCents
}
