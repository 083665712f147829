package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cleanmate-app/services"
	"github.com/yeremiapane/cleanmate-app/utils"
)

type PaymentController struct {
	Payments *services.PaymentService
	Monitor  *services.PaymentMonitor
}

func NewPaymentController(payments *services.PaymentService, monitor *services.PaymentMonitor) *PaymentController {
	return &PaymentController{Payments: payments, Monitor: monitor}
}

func (pc *PaymentController) CreateMomoPayment(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req struct {
		BookingID uint `json:"bookingId"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.BookingID == 0 {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("bookingId is required"))
		return
	}

	payment, err := pc.Payments.CreateMomoPayment(c.Request.Context(), p, req.BookingID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "MoMo payment created", payment)
}

// MomoCallback is MoMo's IPN hook; the signature is the only credential.
func (pc *PaymentController) MomoCallback(c *gin.Context) {
	var cb services.MomoCallback
	if !bindJSON(c, &cb) {
		return
	}

	if err := pc.Payments.HandleMomoCallback(c.Request.Context(), cb); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (pc *PaymentController) Receipt(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	pdf, err := pc.Payments.Receipt(c.Request.Context(), p, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="receipt-CM%d.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (pc *PaymentController) Metrics(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	metrics, err := pc.Monitor.Metrics(c.Request.Context(), p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment metrics", metrics)
}
