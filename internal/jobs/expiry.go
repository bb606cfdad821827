package jobs

import (
	"log"
	"time"

	"tumaini/internal/repository"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the background jobs that keep payment state tidy. Pending
// donations and unpaid orders whose provider never called back are expired
// after cfg.Payment.PaymentExpiry.
type Scheduler struct {
	cron      *cron.Cron
	donations *repository.DonationRepository
	orders    *repository.OrderRepository
	expiry    time.Duration
}

func NewScheduler(donations *repository.DonationRepository, orders *repository.OrderRepository, expiry time.Duration) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		donations: donations,
		orders:    orders,
		expiry:    expiry,
	}
}

// Start registers the jobs and starts the cron loop in its own goroutine.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@every 5m", s.expirePending); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[JOBS] scheduler started, payment expiry=%s", s.expiry)
	return nil
}

// Stop stops the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) expirePending() {
	cutoff := time.Now().Add(-s.expiry)
	n, err := s.donations.ExpirePending(cutoff)
	if err != nil {
		log.Printf("[JOBS] expire donations: %v", err)
	} else if n > 0 {
		log.Printf("[JOBS] expired %d pending donations older than %s", n, s.expiry)
	}
	n, err = s.orders.CancelUnpaid(cutoff)
	if err != nil {
		log.Printf("[JOBS] cancel unpaid orders: %v", err)
	} else if n > 0 {
		log.Printf("[JOBS] cancelled %d unpaid orders older than %s", n, s.expiry)
	}
}
