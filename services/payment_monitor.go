package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cleanmate-app/models"
	"github.com/yeremiapane/cleanmate-app/utils"
	"gorm.io/gorm"
)

// PaymentMetrics counts bookings by payment status, plus how many pending
// MoMo payments this process has expired.
type PaymentMetrics struct {
	Unpaid  int64 `json:"unpaid"`
	Pending int64 `json:"pending"`
	Paid    int64 `json:"paid"`
	Failed  int64 `json:"failed"`
	Expired int64 `json:"expired"`
}

// PaymentMonitor fails MoMo payments that never got a callback.
type PaymentMonitor struct {
	db       *gorm.DB
	timeout  time.Duration
	interval time.Duration
	now      func() time.Time

	mutex   sync.Mutex
	expired int64
}

func NewPaymentMonitor(db *gorm.DB, timeout time.Duration) *PaymentMonitor {
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	// cron's @every has one-second resolution
	interval := (timeout / 3).Truncate(time.Second)
	if interval < time.Second {
		interval = time.Second
	}
	return &PaymentMonitor{db: db, timeout: timeout, interval: interval, now: time.Now}
}

// Start schedules the expiry sweep; it stops when ctx is cancelled.
func (pm *PaymentMonitor) Start(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc("@every "+pm.interval.String(), func() {
		if _, err := pm.ExpireStale(ctx); err != nil && ctx.Err() == nil {
			utils.ErrorLogger.Errorf("payment expiry sweep: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule payment expiry: %w", err)
	}
	c.Start()

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()

	utils.InfoLogger.WithField("timeout", pm.timeout).Info("Payment monitor started")
	return nil
}

// ExpireStale marks Pending payments older than the timeout as Failed and
// returns how many it changed.
func (pm *PaymentMonitor) ExpireStale(ctx context.Context) (int64, error) {
	cutoff := pm.now().Add(-pm.timeout)
	res := pm.db.WithContext(ctx).Model(&models.Booking{}).
		Where("payment_status = ? AND updated_at < ?", models.PaymentStatusPending, cutoff).
		Update("payment_status", models.PaymentStatusFailed)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		pm.mutex.Lock()
		pm.expired += res.RowsAffected
		pm.mutex.Unlock()
		utils.InfoLogger.WithFields(logrus.Fields{"count": res.RowsAffected, "cutoff": cutoff}).Info("expired pending payments")
	}
	return res.RowsAffected, nil
}

// Metrics is admin-only.
func (pm *PaymentMonitor) Metrics(ctx context.Context, p Principal) (*PaymentMetrics, error) {
	if !p.IsAdmin() {
		return nil, forbiddenError("admin access required")
	}

	var rows []struct {
		PaymentStatus models.PaymentStatus
		Count         int64
	}
	err := pm.db.WithContext(ctx).Model(&models.Booking{}).
		Select("payment_status, COUNT(*) AS count").
		Group("payment_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	m := &PaymentMetrics{}
	for _, r := range rows {
		switch r.PaymentStatus {
		case models.PaymentStatusUnpaid:
			m.Unpaid = r.Count
		case models.PaymentStatusPending:
			m.Pending = r.Count
		case models.PaymentStatusPaid:
			m.Paid = r.Count
		case models.PaymentStatusFailed:
			m.Failed = r.Count
		}
	}

	pm.mutex.Lock()
	m.Expired = pm.expired
	pm.mutex.Unlock()
	return m, nil
}
