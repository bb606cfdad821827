package repository

import (
	"tumaini/internal/models"

	"gorm.io/gorm"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(m *models.ContactMessage) error {
	return r.db.Create(m).Error
}

func (r *ContactRepository) List(unreadOnly bool, page, limit int) ([]models.ContactMessage, int64, error) {
	var msgs []models.ContactMessage
	var total int64
	q := r.db.Model(&models.ContactMessage{})
	if unreadOnly {
		q = q.Where("`read` = ?", false)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&msgs).Error
	return msgs, total, err
}

func (r *ContactRepository) MarkRead(id uint) error {
	return r.db.Model(&models.ContactMessage{}).Where("id = ?", id).Update("read", true).Error
}

func (r *ContactRepository) CountUnread() (int64, error) {
	var count int64
	err := r.db.Model(&models.ContactMessage{}).Where("`read` = ?", false).Count(&count).Error
	return count, err
}
