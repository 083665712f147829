package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cleanmate-app/database"
	"github.com/yeremiapane/cleanmate-app/models"
)

type listing struct {
	UserID     uint    `json:"userId"`
	Name       string  `json:"name"`
	City       string  `json:"city"`
	HourlyRate int64   `json:"hourlyRate"`
	AvgRating  float64 `json:"avgRating"`
	Bio        string  `json:"bio"`
}

func TestListCleaners(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/cleaners", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", string(decode(t, w, nil).Data))

	require.NoError(t, database.SeedDemoData(s.db))
	s.signup("Customer Only", "c@example.com", "Customer")

	w = s.do(http.MethodGet, "/api/cleaners", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cleaners []listing
	decode(t, w, &cleaners)
	require.Len(t, cleaners, 2)
	assert.Equal(t, "Nguyen Van A", cleaners[0].Name)
	assert.Equal(t, int64(120000), cleaners[0].HourlyRate)
	assert.InDelta(t, 4.6, cleaners[0].AvgRating, 0.001)
	assert.Equal(t, "Tran Thi B", cleaners[1].Name)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestUpdateCleanerProfile(t *testing.T) {
	s := newTestServer(t)
	cleanerID, cleaner := s.signup("Hoang Yen", "yen@example.com", "Cleaner")
	_, customer := s.signup("Customer", "c@example.com", "Customer")

	w := s.do(http.MethodPut, "/api/cleaner/profile", cleaner, map[string]interface{}{
		"fullName":   "Hoang Thi Yen",
		"bio":        "Deep cleaning, ironing",
		"hourlyRate": 150000,
		"city":       "Da Nang",
		"latitude":   16.05,
		"longitude":  108.2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var profile models.CleanerProfile
	require.NoError(t, s.db.Preload("User").Where("user_id = ?", cleanerID).First(&profile).Error)
	assert.Equal(t, "Deep cleaning, ironing", profile.Bio)
	assert.Equal(t, int64(150000), profile.HourlyRate)
	assert.Equal(t, "Da Nang", profile.City)
	assert.Equal(t, "Hoang Thi Yen", profile.User.FullName)

	// omitted fields are untouched
	w = s.do(http.MethodPut, "/api/cleaner/profile", cleaner, map[string]interface{}{"city": "Hue"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, s.db.Where("user_id = ?", cleanerID).First(&profile).Error)
	assert.Equal(t, "Hue", profile.City)
	assert.Equal(t, int64(150000), profile.HourlyRate)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPut, "/api/cleaner/profile", cleaner, map[string]interface{}{"hourlyRate": -5}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPut, "/api/cleaner/profile", cleaner, map[string]interface{}{"latitude": 120}).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPut, "/api/cleaner/profile", customer, map[string]interface{}{"city": "Hue"}).Code)
}
