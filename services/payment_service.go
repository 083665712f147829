package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cleanmate-app/config"
	"github.com/yeremiapane/cleanmate-app/models"
	"github.com/yeremiapane/cleanmate-app/utils"
	"gorm.io/gorm"
)

const momoRequestType = "captureWallet"

// MomoPaymentRequest mirrors the body MoMo's create endpoint expects, plus
// the pay URL handed back to the client.
type MomoPaymentRequest struct {
	PartnerCode string `json:"partnerCode"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IpnURL      string `json:"ipnUrl"`
	RequestType string `json:"requestType"`
	ExtraData   string `json:"extraData"`
	Lang        string `json:"lang"`
	Signature   string `json:"signature"`
	PayURL      string `json:"payUrl"`
}

// MomoCallback is the IPN body MoMo posts after a payment attempt.
type MomoCallback struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	TransID      int64  `json:"transId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayType      string `json:"payType"`
	ResponseTime int64  `json:"responseTime"`
	ExtraData    string `json:"extraData"`
	Signature    string `json:"signature"`
}

// rawSignature is the key-sorted field string MoMo signs for IPN callbacks.
func (cb *MomoCallback) rawSignature(accessKey string) string {
	return fmt.Sprintf("accessKey=%s&amount=%d&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%d&resultCode=%d&transId=%d",
		accessKey, cb.Amount, cb.ExtraData, cb.Message, cb.OrderID, cb.OrderInfo, cb.OrderType,
		cb.PartnerCode, cb.PayType, cb.RequestID, cb.ResponseTime, cb.ResultCode, cb.TransID)
}

// PaymentService is a stub of the MoMo wallet flow: requests are signed but
// never sent, callbacks are verified and recorded.
type PaymentService struct {
	db    *gorm.DB
	cfg   config.MomoConfig
	newID func() string
}

func NewPaymentService(db *gorm.DB, cfg config.MomoConfig) *PaymentService {
	return &PaymentService{db: db, cfg: cfg, newID: uuid.NewString}
}

func (s *PaymentService) sign(raw string) string {
	mac := hmac.New(sha256.New, []byte(s.cfg.SecretKey))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *PaymentService) CreateMomoPayment(ctx context.Context, p Principal, bookingID uint) (*MomoPaymentRequest, error) {
	booking, err := s.find(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canManage(p, booking) {
		return nil, forbiddenError("you cannot pay for this booking")
	}
	switch {
	case booking.Status == models.BookingStatusCancelled:
		return nil, newError(ErrInvalidState, "booking is cancelled")
	case booking.PaymentStatus == models.PaymentStatusPaid:
		return nil, newError(ErrInvalidState, "booking is already paid")
	}

	requestID := s.newID()
	req := &MomoPaymentRequest{
		PartnerCode: s.cfg.PartnerCode,
		RequestID:   requestID,
		Amount:      booking.Price,
		OrderID:     fmt.Sprintf("%s-%s", booking.OrderCode(), requestID),
		OrderInfo:   fmt.Sprintf("CleanMate booking %s", booking.OrderCode()),
		RedirectURL: s.cfg.RedirectURL,
		IpnURL:      s.cfg.IPNURL,
		RequestType: momoRequestType,
		Lang:        "vi",
	}
	raw := fmt.Sprintf("accessKey=%s&amount=%d&extraData=%s&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=%s",
		s.cfg.AccessKey, req.Amount, req.ExtraData, req.IpnURL, req.OrderID, req.OrderInfo,
		req.PartnerCode, req.RedirectURL, req.RequestID, req.RequestType)
	req.Signature = s.sign(raw)
	req.PayURL = s.cfg.Endpoint + "?" + url.Values{"orderId": {req.OrderID}, "requestId": {requestID}}.Encode()

	err = s.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ? AND payment_status <> ?", booking.ID, models.PaymentStatusPaid).
		Updates(map[string]interface{}{
			"payment_method": models.PaymentMethodMomo,
			"payment_status": models.PaymentStatusPending,
		}).Error
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{"booking_id": booking.ID, "order_id": req.OrderID}).Info("momo payment requested")
	return req, nil
}

// HandleMomoCallback records the payment outcome. resultCode 0 is success.
func (s *PaymentService) HandleMomoCallback(ctx context.Context, cb MomoCallback) error {
	expected := s.sign(cb.rawSignature(s.cfg.AccessKey))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(cb.Signature))) {
		utils.ErrorLogger.WithField("order_id", cb.OrderID).Error("momo callback with bad signature")
		return newError(ErrUnauthenticated, "invalid signature")
	}

	bookingID, err := parseMomoOrderID(cb.OrderID)
	if err != nil {
		return err
	}
	booking, err := s.find(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Price != cb.Amount {
		return validationError("amount does not match booking")
	}

	status := models.PaymentStatusFailed
	if cb.ResultCode == 0 {
		status = models.PaymentStatusPaid
	}
	err = s.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", booking.ID).
		Updates(map[string]interface{}{
			"payment_status": status,
			"payment_method": models.PaymentMethodMomo,
		}).Error
	if err != nil {
		return err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"result_code": cb.ResultCode,
		"trans_id":    cb.TransID,
	}).Infof("momo payment %s", strings.ToLower(string(status)))
	return nil
}

// parseMomoOrderID extracts 42 from "CM42-<uuid>".
func parseMomoOrderID(orderID string) (uint, error) {
	code, _, _ := strings.Cut(orderID, "-")
	if !strings.HasPrefix(code, "CM") {
		return 0, validationError("malformed orderId")
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(code, "CM"), 10, 64)
	if err != nil || id == 0 {
		return 0, validationError("malformed orderId")
	}
	return uint(id), nil
}

func (s *PaymentService) find(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).Preload("User").Preload("Cleaner").First(&booking, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("booking")
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}
