package repository

import (
	"time"

	"tumaini/internal/domain"
	"tumaini/internal/models"

	"gorm.io/gorm"
)

type DonationRepository struct {
	db *gorm.DB
}

func NewDonationRepository(db *gorm.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

func (r *DonationRepository) Create(d *models.Donation) error {
	return r.db.Create(d).Error
}

func (r *DonationRepository) GetByID(id uint) (*models.Donation, error) {
	var d models.Donation
	err := r.db.First(&d, id).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DonationRepository) GetByReference(ref string) (*models.Donation, error) {
	var d models.Donation
	err := r.db.Where("reference = ?", ref).First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetByCheckoutRequestID correlates a Daraja callback with its pending donation.
func (r *DonationRepository) GetByCheckoutRequestID(id string) (*models.Donation, error) {
	var d models.Donation
	err := r.db.Where("checkout_request_id = ?", id).First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DonationRepository) GetByProviderOrderID(id string) (*models.Donation, error) {
	var d models.Donation
	err := r.db.Where("provider_order_id = ?", id).First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DonationRepository) Update(d *models.Donation) error {
	return r.db.Save(d).Error
}

func (r *DonationRepository) List(status string, page, limit int) ([]models.Donation, int64, error) {
	var donations []models.Donation
	var total int64
	q := r.db.Model(&models.Donation{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&donations).Error
	return donations, total, err
}

// ExpirePending marks PENDING donations created before cutoff as EXPIRED and
// returns how many rows changed.
func (r *DonationRepository) ExpirePending(cutoff time.Time) (int64, error) {
	res := r.db.Model(&models.Donation{}).
		Where("status = ? AND created_at < ?", domain.DonationStatusPending, cutoff).
		Update("status", domain.DonationStatusExpired)
	return res.RowsAffected, res.Error
}

// TotalCompletedCents sums completed donation amounts for the dashboard.
func (r *DonationRepository) TotalCompletedCents() (int64, error) {
	var total *int64
	err := r.db.Model(&models.Donation{}).
		Where("status = ?", domain.DonationStatusCompleted).
		Select("SUM(amount_cents)").Scan(&total).Error
	if err != nil || total == nil {
		return 0, err
	}
	return *total, nil
}

func (r *DonationRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Donation{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
