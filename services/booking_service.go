package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cleanmate-app/models"
	"github.com/yeremiapane/cleanmate-app/utils"
	"gorm.io/gorm"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingAccepted  = "booking_accepted"
	EventBookingCancelled = "booking_cancelled"
	EventBookingCompleted = "booking_completed"
)

// BookingNotifier receives every successful lifecycle change.
type BookingNotifier interface {
	NotifyBooking(event string, booking *models.Booking)
}

type NopNotifier struct{}

func (NopNotifier) NotifyBooking(string, *models.Booking) {}

// BookingDetails is the client-editable part of a booking. Ownership,
// status and timestamps never come from the request.
type BookingDetails struct {
	StartTime     time.Time `json:"startTime"`
	DurationHours int       `json:"durationHours"`
	Price         int64     `json:"price"`
	Address       string    `json:"address"`
	Notes         *string   `json:"notes"`
	PaymentMethod *string   `json:"paymentMethod"`
}

type BookingUpdate = BookingDetails

func (d *BookingDetails) validate() error {
	switch {
	case d.StartTime.IsZero():
		return validationError("startTime is required")
	case d.DurationHours < 1:
		return validationError("durationHours must be at least 1")
	case d.Price < 0:
		return validationError("price must not be negative")
	case strings.TrimSpace(d.Address) == "":
		return validationError("address is required")
	}
	return nil
}

type BookingService struct {
	db       *gorm.DB
	notifier BookingNotifier
	now      func() time.Time
}

func NewBookingService(db *gorm.DB, notifier BookingNotifier) *BookingService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &BookingService{db: db, notifier: notifier, now: time.Now}
}

func (s *BookingService) CreateBooking(ctx context.Context, p Principal, d BookingDetails) (*models.Booking, error) {
	switch p.Role {
	case models.RoleCustomer, models.RoleAdmin:
	case models.RoleCleaner:
		return nil, forbiddenError("only customers can create bookings")
	default:
		return nil, forbiddenError("unknown role")
	}
	if err := d.validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	booking := models.Booking{
		UserID:        p.UserID,
		StartTime:     d.StartTime.UTC(),
		DurationHours: d.DurationHours,
		Price:         d.Price,
		Address:       strings.TrimSpace(d.Address),
		Notes:         d.Notes,
		PaymentMethod: trimmedOrNil(d.PaymentMethod),
		PaymentStatus: models.PaymentStatusUnpaid,
		Status:        models.BookingStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.db.WithContext(ctx).Create(&booking).Error; err != nil {
		return nil, err
	}

	s.logTransition(&booking, p, "created")
	s.notifier.NotifyBooking(EventBookingCreated, &booking)
	return &booking, nil
}

// transition is one conditional UPDATE. When no row changes, explain is
// handed the current row so the caller can say why.
type transition struct {
	id      uint
	from    []models.BookingStatus
	set     map[string]interface{}
	scope   func(*gorm.DB) *gorm.DB
	explain func(current *models.Booking) error
}

func (s *BookingService) apply(ctx context.Context, t transition) (*models.Booking, error) {
	db := s.db.WithContext(ctx)

	t.set["updated_at"] = s.now().UTC()
	q := db.Model(&models.Booking{}).Where("id = ? AND status IN ?", t.id, t.from)
	if t.scope != nil {
		q = t.scope(q)
	}
	res := q.Updates(t.set)
	if res.Error != nil {
		return nil, res.Error
	}

	booking, err := s.find(ctx, t.id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, t.explain(booking)
	}
	return booking, nil
}

func (s *BookingService) find(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).First(&booking, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("booking")
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// AcceptBooking assigns the calling cleaner. Of several concurrent accepts
// on one Pending booking exactly one succeeds.
func (s *BookingService) AcceptBooking(ctx context.Context, p Principal, id uint) (*models.Booking, error) {
	switch p.Role {
	case models.RoleCleaner:
	case models.RoleCustomer, models.RoleAdmin:
		return nil, forbiddenError("only cleaners can accept bookings")
	default:
		return nil, forbiddenError("unknown role")
	}

	booking, err := s.apply(ctx, transition{
		id:   id,
		from: []models.BookingStatus{models.BookingStatusPending},
		set: map[string]interface{}{
			"status":     models.BookingStatusAccepted,
			"cleaner_id": p.UserID,
		},
		explain: func(current *models.Booking) error {
			if current.Status == models.BookingStatusCancelled {
				return newError(ErrInvalidState, "booking is cancelled")
			}
			return newError(ErrInvalidState, "booking already accepted or completed")
		},
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(booking, p, "accepted")
	s.notifier.NotifyBooking(EventBookingAccepted, booking)
	return booking, nil
}

func (s *BookingService) CompleteBooking(ctx context.Context, p Principal, id uint) (*models.Booking, error) {
	var scope func(*gorm.DB) *gorm.DB
	switch p.Role {
	case models.RoleAdmin:
	case models.RoleCleaner:
		scope = func(q *gorm.DB) *gorm.DB { return q.Where("cleaner_id = ?", p.UserID) }
	case models.RoleCustomer:
		return nil, forbiddenError("only the assigned cleaner can complete a booking")
	default:
		return nil, forbiddenError("unknown role")
	}

	booking, err := s.apply(ctx, transition{
		id:    id,
		from:  []models.BookingStatus{models.BookingStatusAccepted},
		set:   map[string]interface{}{"status": models.BookingStatusCompleted},
		scope: scope,
		explain: func(current *models.Booking) error {
			if current.Status != models.BookingStatusAccepted {
				return newError(ErrInvalidState, "only accepted bookings can be completed")
			}
			return forbiddenError("booking is not assigned to you")
		},
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(booking, p, "completed")
	s.notifier.NotifyBooking(EventBookingCompleted, booking)
	return booking, nil
}

// CancelBooking is open to the owning customer, the assigned cleaner and
// admins. Both user_id and an assigned cleaner_id are immutable, so the
// ownership read cannot go stale before the conditional update.
func (s *BookingService) CancelBooking(ctx context.Context, p Principal, id uint) (*models.Booking, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(p, current) && !isAssignedCleaner(p, current) {
		return nil, forbiddenError("you cannot cancel this booking")
	}

	booking, err := s.apply(ctx, transition{
		id:   id,
		from: []models.BookingStatus{models.BookingStatusPending, models.BookingStatusAccepted},
		set:  map[string]interface{}{"status": models.BookingStatusCancelled},
		explain: func(*models.Booking) error {
			return newError(ErrInvalidState, "booking is already completed or cancelled")
		},
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(booking, p, "cancelled")
	s.notifier.NotifyBooking(EventBookingCancelled, booking)
	return booking, nil
}

// UpdateBooking overwrites the editable fields. Completed and cancelled
// bookings are read-only.
func (s *BookingService) UpdateBooking(ctx context.Context, p Principal, id uint, u BookingUpdate) (*models.Booking, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(p, current) {
		return nil, forbiddenError("you cannot edit this booking")
	}
	if current.Status.Terminal() {
		return nil, newError(ErrInvalidState, "completed or cancelled bookings cannot be edited")
	}
	if err := u.validate(); err != nil {
		return nil, err
	}

	booking, err := s.apply(ctx, transition{
		id:   id,
		from: []models.BookingStatus{models.BookingStatusPending, models.BookingStatusAccepted},
		set: map[string]interface{}{
			"address":        strings.TrimSpace(u.Address),
			"notes":          u.Notes,
			"payment_method": trimmedOrNil(u.PaymentMethod),
			"start_time":     u.StartTime.UTC(),
			"duration_hours": u.DurationHours,
			"price":          u.Price,
		},
		explain: func(*models.Booking) error {
			return newError(ErrInvalidState, "completed or cancelled bookings cannot be edited")
		},
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(booking, p, "updated")
	return booking, nil
}

func (s *BookingService) DeleteBooking(ctx context.Context, p Principal, id uint) error {
	current, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(p, current) {
		return forbiddenError("you cannot delete this booking")
	}

	res := s.db.WithContext(ctx).Delete(&models.Booking{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFoundError("booking")
	}

	s.logTransition(current, p, "deleted")
	return nil
}

// ListBookingsForCustomer returns newest first. customerID 0 means the caller.
func (s *BookingService) ListBookingsForCustomer(ctx context.Context, p Principal, customerID uint) ([]models.Booking, error) {
	if customerID == 0 {
		customerID = p.UserID
	}
	switch p.Role {
	case models.RoleAdmin:
	case models.RoleCustomer, models.RoleCleaner:
		if customerID != p.UserID {
			return nil, forbiddenError("you can only list your own bookings")
		}
	default:
		return nil, forbiddenError("unknown role")
	}

	bookings := []models.Booking{}
	err := s.db.WithContext(ctx).
		Preload("Cleaner").
		Where("user_id = ?", customerID).
		Order("created_at DESC").Order("id DESC").
		Find(&bookings).Error
	return bookings, err
}

func (s *BookingService) ListJobsForCleaner(ctx context.Context, p Principal) ([]models.Booking, error) {
	if !p.IsCleaner() {
		return nil, forbiddenError("only cleaners have jobs")
	}

	bookings := []models.Booking{}
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("cleaner_id = ?", p.UserID).
		Order("start_time DESC").Order("id DESC").
		Find(&bookings).Error
	return bookings, err
}

// ListOpenBookings returns every Pending booking, the cleaners' job board.
func (s *BookingService) ListOpenBookings(ctx context.Context, p Principal) ([]models.Booking, error) {
	switch p.Role {
	case models.RoleCleaner, models.RoleAdmin:
	case models.RoleCustomer:
		return nil, forbiddenError("only cleaners can browse open bookings")
	default:
		return nil, forbiddenError("unknown role")
	}

	bookings := []models.Booking{}
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("status = ?", models.BookingStatusPending).
		Order("start_time DESC").Order("id DESC").
		Find(&bookings).Error
	return bookings, err
}

func (s *BookingService) GetBooking(ctx context.Context, p Principal, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).Preload("User").Preload("Cleaner").First(&booking, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("booking")
	}
	if err != nil {
		return nil, err
	}

	openToCleaner := p.IsCleaner() && booking.Status == models.BookingStatusPending
	if !canManage(p, &booking) && !isAssignedCleaner(p, &booking) && !openToCleaner {
		return nil, forbiddenError("you cannot view this booking")
	}
	return &booking, nil
}

// canManage: the owning customer or an admin.
func canManage(p Principal, b *models.Booking) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleCustomer:
		return b.UserID == p.UserID
	case models.RoleCleaner:
		return false
	default:
		return false
	}
}

func isAssignedCleaner(p Principal, b *models.Booking) bool {
	return p.IsCleaner() && b.AssignedTo(p.UserID)
}

func (s *BookingService) logTransition(b *models.Booking, p Principal, action string) {
	utils.InfoLogger.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"status":     b.Status,
		"principal":  p.String(),
	}).Infof("booking %s", action)
}
