package repository

import (
	"tumaini/internal/models"

	"gorm.io/gorm"
)

type ApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(a *models.Application) error {
	return r.db.Create(a).Error
}

func (r *ApplicationRepository) List(program string, page, limit int) ([]models.Application, int64, error) {
	var apps []models.Application
	var total int64
	q := r.db.Model(&models.Application{})
	if program != "" {
		q = q.Where("program = ?", program)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&apps).Error
	return apps, total, err
}

func (r *ApplicationRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Application{}).Count(&count).Error
	return count, err
}
