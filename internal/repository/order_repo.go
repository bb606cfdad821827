package repository

import (
	"time"

	"tumaini/internal/domain"
	"tumaini/internal/models"

	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create persists the order and its line items in one transaction.
func (r *OrderRepository) Create(o *models.Order) error {
	return r.db.Create(o).Error
}

func (r *OrderRepository) GetByID(id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.Preload("Items").First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByReference(ref string) (*models.Order, error) {
	var o models.Order
	err := r.db.Preload("Items").Where("reference = ?", ref).First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByCheckoutRequestID(id string) (*models.Order, error) {
	var o models.Order
	err := r.db.Where("checkout_request_id = ?", id).First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByProviderOrderID(id string) (*models.Order, error) {
	var o models.Order
	err := r.db.Where("provider_order_id = ?", id).First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) Update(o *models.Order) error {
	return r.db.Save(o).Error
}

func (r *OrderRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *OrderRepository) List(status string, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64
	q := r.db.Model(&models.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Items").Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&orders).Error
	return orders, total, err
}

// CancelUnpaid cancels unpaid PROCESSING orders created before cutoff.
func (r *OrderRepository) CancelUnpaid(cutoff time.Time) (int64, error) {
	res := r.db.Model(&models.Order{}).
		Where("status = ? AND paid = ? AND created_at < ?", domain.OrderStatusProcessing, false, cutoff).
		Update("status", domain.OrderStatusCancelled)
	return res.RowsAffected, res.Error
}

func (r *OrderRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).Count(&count).Error
	return count, err
}
