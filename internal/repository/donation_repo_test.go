package repository

import (
	"testing"
	"time"

	"tumaini/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	return gdb, mock
}

func TestDonationGetByCheckoutRequestID(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewDonationRepository(gdb)

	rows := sqlmock.NewRows([]string{"id", "reference", "status", "amount_cents", "checkout_request_id"}).
		AddRow(7, "don-abc", domain.DonationStatusPending, 100, "ws_CO_191220191020363925")
	mock.ExpectQuery("SELECT (.+) FROM `donations` WHERE checkout_request_id = ").
		WillReturnRows(rows)

	d, err := repo.GetByCheckoutRequestID("ws_CO_191220191020363925")
	if err != nil {
		t.Fatalf("GetByCheckoutRequestID() error = %v", err)
	}
	if d.Reference != "don-abc" {
		t.Errorf("Reference = %q, want don-abc", d.Reference)
	}
	if d.Status != domain.DonationStatusPending {
		t.Errorf("Status = %q, want PENDING", d.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDonationExpirePending(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewDonationRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `donations` SET").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := repo.ExpirePending(time.Now().Add(-30 * time.Minute))
	if err != nil {
		t.Fatalf("ExpirePending() error = %v", err)
	}
	if n != 3 {
		t.Errorf("rows affected = %d, want 3", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDonationCountByStatus(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewDonationRepository(gdb)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `donations`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	n, err := repo.CountByStatus(domain.DonationStatusCompleted)
	if err != nil {
		t.Fatalf("CountByStatus() error = %v", err)
	}
	if n != 12 {
		t.Errorf("count = %d, want 12", n)
	}
}
