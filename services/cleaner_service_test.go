package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cleanmate-app/models"
)

func TestListCleaners(t *testing.T) {
	db := setupTestDB(t)
	auth := newTestAuth(db, nil)
	svc := NewCleanerService(db)
	ctx := context.Background()

	empty, err := svc.ListCleaners(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	a := mustRegister(t, auth, "Cleaner A", "a@test.com", models.RoleCleaner)
	mustRegister(t, auth, "Customer B", "b@test.com", models.RoleCustomer)
	c := mustRegister(t, auth, "Cleaner C", "c@test.com", models.RoleCleaner)

	rate := int64(150000)
	city := "Da Nang"
	_, err = svc.UpdateCleanerProfile(ctx, c, ProfileUpdate{HourlyRate: &rate, City: &city})
	require.NoError(t, err)

	listings, err := svc.ListCleaners(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 2)

	assert.Equal(t, a.UserID, listings[0].UserID)
	assert.Equal(t, "Cleaner A", listings[0].Name)
	assert.Equal(t, "Hanoi", listings[0].City)
	assert.Equal(t, int64(120000), listings[0].HourlyRate)
	assert.Equal(t, models.DefaultCleanerBio, listings[0].Bio)

	var profile models.CleanerProfile
	require.NoError(t, db.Where("user_id = ?", c.UserID).First(&profile).Error)
	assert.Equal(t, profile.ID, listings[1].ID)
	assert.Equal(t, "Cleaner C", listings[1].Name)
	assert.Equal(t, "Da Nang", listings[1].City)
	assert.Equal(t, int64(150000), listings[1].HourlyRate)
}

func TestUpdateCleanerProfile(t *testing.T) {
	db := setupTestDB(t)
	auth := newTestAuth(db, nil)
	svc := NewCleanerService(db)
	ctx := context.Background()
	a := mustRegister(t, auth, "Cleaner A", "a@test.com", models.RoleCleaner)

	bio := "  Ten years of experience "
	lat, lng := 21.0285, 105.8542
	name := "Nguyen Thi A"
	phone := "0912345678"
	p, err := svc.UpdateCleanerProfile(ctx, a, ProfileUpdate{
		Bio:         &bio,
		Latitude:    &lat,
		Longitude:   &lng,
		FullName:    &name,
		PhoneNumber: &phone,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ten years of experience", p.Bio)
	assert.Equal(t, models.DefaultCleanerHourlyRate, p.HourlyRate, "untouched fields keep their value")
	assert.Equal(t, "Hanoi", p.City)
	assert.InDelta(t, 21.0285, p.Latitude, 1e-9)
	require.NotNil(t, p.User)
	assert.Equal(t, "Nguyen Thi A", p.User.FullName)
	assert.Equal(t, "0912345678", *p.User.PhoneNumber)

	got, err := svc.GetProfile(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	negative := int64(-1)
	_, err = svc.UpdateCleanerProfile(ctx, a, ProfileUpdate{HourlyRate: &negative})
	assert.ErrorIs(t, err, ErrValidation)
	badLat := 91.0
	_, err = svc.UpdateCleanerProfile(ctx, a, ProfileUpdate{Latitude: &badLat})
	assert.ErrorIs(t, err, ErrValidation)

	customer := mustRegister(t, auth, "Customer B", "b@test.com", models.RoleCustomer)
	_, err = svc.UpdateCleanerProfile(ctx, customer, ProfileUpdate{Bio: &bio})
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, db.Where("user_id = ?", a.UserID).Delete(&models.CleanerProfile{}).Error)
	_, err = svc.UpdateCleanerProfile(ctx, a, ProfileUpdate{Bio: &bio})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetProfile(ctx, a)
	assert.ErrorIs(t, err, ErrNotFound)
}
