package database

import (
	"log"

	"tumaini/config"
	"tumaini/internal/domain"
	"tumaini/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Donation{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Application{},
		&models.ContactMessage{},
		&models.Coupon{},
		&models.AuditLog{},
	)
}

// SeedAdmin creates the initial admin account from ADMIN_EMAIL/ADMIN_PASSWORD
// if no admin exists yet.
func SeedAdmin(db *gorm.DB, cfg *config.AdminConfig) {
	if cfg.Email == "" || cfg.Password == "" {
		return
	}
	var count int64
	db.Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&count)
	if count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[seed] admin password hash failed: %v", err)
		return
	}
	u := &models.User{
		Name:         "Administrator",
		Email:        cfg.Email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}
	if err := db.Create(u).Error; err != nil {
		log.Printf("[seed] admin create failed: %v", err)
		return
	}
	log.Printf("[seed] admin account created for %s", cfg.Email)
}

// SeedCoupons inserts the default shop coupons when missing.
func SeedCoupons(db *gorm.DB) {
	coupons := []models.Coupon{
		{Code: "DISCOUNT10", PercentOff: 10, Active: true},
	}
	for _, c := range coupons {
		var count int64
		db.Model(&models.Coupon{}).Where("code = ?", c.Code).Count(&count)
		if count == 0 {
			if err := db.Create(&c).Error; err != nil {
				log.Printf("[seed] coupon %s create failed: %v", c.Code, err)
			}
		}
	}
}
