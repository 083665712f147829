package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cleanmate-app/config"
	"github.com/yeremiapane/cleanmate-app/database"
	"github.com/yeremiapane/cleanmate-app/router"
	"github.com/yeremiapane/cleanmate-app/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.InitLogger("error")
	os.Exit(m.Run())
}

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiClient struct {
	t *testing.T
	r *gin.Engine
}

func (a apiClient) call(method, path, token string, body interface{}, out interface{}) int {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)

	if out != nil && w.Code < 300 {
		var env apiResponse
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
		require.NoError(a.t, json.Unmarshal(env.Data, out), w.Body.String())
	}
	return w.Code
}

func (a apiClient) login(email, password string) (uint, string) {
	a.t.Helper()
	var res struct {
		User struct {
			ID uint `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}
	code := a.call(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password}, &res)
	require.Equal(a.t, http.StatusOK, code)
	return res.User.ID, res.Token
}

func setupApp(t *testing.T) (*gorm.DB, apiClient) {
	t.Helper()
	dsn := fmt.Sprintf("file:integration_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedDemoData(db))

	cfg := &config.Config{
		JWTSecret:  "integration-secret",
		TokenTTL:   time.Hour,
		SessionTTL: time.Hour,
		Momo: config.MomoConfig{
			PartnerCode: "MOMO",
			AccessKey:   "ak",
			SecretKey:   "sk",
			Endpoint:    "https://test-payment.momo.vn/v2/gateway/api/create",
		},
	}
	r, err := router.SetupRouter(router.Options{Config: cfg, DB: db})
	require.NoError(t, err)
	return db, apiClient{t: t, r: r}
}

// TestEndToEnd walks one booking through its whole life:
// register, book, accept, complete, pay, receipt.
func TestEndToEnd(t *testing.T) {
	_, api := setupApp(t)

	var cleaners []struct {
		UserID uint   `json:"userId"`
		Name   string `json:"name"`
	}
	require.Equal(t, http.StatusOK, api.call(http.MethodGet, "/api/cleaners", "", nil, &cleaners))
	require.Len(t, cleaners, 2)

	require.Equal(t, http.StatusCreated, api.call(http.MethodPost, "/api/auth/register", "", map[string]string{
		"fullName": "Mai Anh", "email": "maianh@example.com", "password": "pw-123456", "role": "Customer",
	}, nil))
	_, customer := api.login("maianh@example.com", "pw-123456")
	cleanerID, cleaner := api.login("a@test.com", database.DemoPassword)
	assert.Equal(t, cleaners[0].UserID, cleanerID)

	type booking struct {
		ID            uint   `json:"id"`
		Status        string `json:"status"`
		PaymentStatus string `json:"paymentStatus"`
		CleanerID     *uint  `json:"cleanerId"`
		Price         int64  `json:"price"`
	}
	var b booking
	require.Equal(t, http.StatusCreated, api.call(http.MethodPost, "/api/bookings", customer, map[string]interface{}{
		"startTime":     "2026-12-01T08:00:00Z",
		"durationHours": 2,
		"price":         240000,
		"address":       "Hồ Tân Xã, Hà Nội",
	}, &b))
	assert.Equal(t, "Pending", b.Status)

	require.Equal(t, http.StatusOK, api.call(http.MethodPut, fmt.Sprintf("/api/bookings/%d/accept", b.ID), cleaner, nil, &b))
	assert.Equal(t, "Accepted", b.Status)
	require.Equal(t, http.StatusOK, api.call(http.MethodPut, fmt.Sprintf("/api/bookings/%d/complete", b.ID), cleaner, nil, &b))
	assert.Equal(t, "Completed", b.Status)

	var pay struct {
		OrderID   string `json:"orderId"`
		RequestID string `json:"requestId"`
	}
	require.Equal(t, http.StatusOK, api.call(http.MethodPost, "/api/payment/momo", customer, map[string]uint{"bookingId": b.ID}, &pay))

	raw := fmt.Sprintf("accessKey=ak&amount=%d&extraData=&message=ok&orderId=%s&orderInfo=&orderType=momo_wallet&partnerCode=MOMO&payType=app&requestId=%s&responseTime=1&resultCode=0&transId=77",
		b.Price, pay.OrderID, pay.RequestID)
	mac := hmac.New(sha256.New, []byte("sk"))
	mac.Write([]byte(raw))
	require.Equal(t, http.StatusNoContent, api.call(http.MethodPost, "/api/payment/momo-callback", "", map[string]interface{}{
		"partnerCode": "MOMO", "orderId": pay.OrderID, "requestId": pay.RequestID, "amount": b.Price,
		"orderType": "momo_wallet", "transId": 77, "resultCode": 0, "message": "ok", "payType": "app",
		"responseTime": 1, "signature": hex.EncodeToString(mac.Sum(nil)),
	}, nil))

	var orders []struct {
		ID            uint   `json:"id"`
		Status        string `json:"status"`
		PaymentStatus string `json:"paymentStatus"`
		CleanerName   string `json:"cleanerName"`
	}
	require.Equal(t, http.StatusOK, api.call(http.MethodGet, "/api/orders", customer, nil, &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, "Completed", orders[0].Status)
	assert.Equal(t, "Paid", orders[0].PaymentStatus)
	assert.Equal(t, "Nguyen Van A", orders[0].CleanerName)

	assert.Equal(t, http.StatusOK, api.call(http.MethodGet, fmt.Sprintf("/api/orders/%d/receipt", b.ID), cleaner, nil, nil))
}

// TestConcurrentAccept races every seeded cleaner for one booking over HTTP.
func TestConcurrentAccept(t *testing.T) {
	_, api := setupApp(t)

	require.Equal(t, http.StatusCreated, api.call(http.MethodPost, "/api/auth/register", "", map[string]string{
		"fullName": "Race Owner", "email": "owner@example.com", "password": "pw", "role": "Customer",
	}, nil))
	_, customer := api.login("owner@example.com", "pw")

	tokens := []string{}
	for _, email := range []string{"a@test.com", "b@test.com"} {
		_, tok := api.login(email, database.DemoPassword)
		tokens = append(tokens, tok)
	}
	for i := 0; i < 4; i++ {
		email := fmt.Sprintf("racer%d@example.com", i)
		require.Equal(t, http.StatusCreated, api.call(http.MethodPost, "/api/auth/register", "", map[string]string{
			"fullName": email, "email": email, "password": "pw", "role": "Cleaner",
		}, nil))
		_, tok := api.login(email, "pw")
		tokens = append(tokens, tok)
	}

	var b struct {
		ID uint `json:"id"`
	}
	require.Equal(t, http.StatusCreated, api.call(http.MethodPost, "/api/bookings", customer, map[string]interface{}{
		"startTime": "2026-12-02T08:00:00Z", "durationHours": 1, "price": 120000, "address": "Thôn 2",
	}, &b))

	codes := make([]int, len(tokens))
	var wg sync.WaitGroup
	for i, tok := range tokens {
		wg.Add(1)
		go func(i int, tok string) {
			defer wg.Done()
			codes[i] = api.call(http.MethodPut, fmt.Sprintf("/api/bookings/%d/accept", b.ID), tok, nil, nil)
		}(i, tok)
	}
	wg.Wait()

	won, lost := 0, 0
	for _, c := range codes {
		switch c {
		case http.StatusOK:
			won++
		case http.StatusConflict:
			lost++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, len(tokens)-1, lost)
}
