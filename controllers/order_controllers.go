package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cleanmate-app/models"
	"github.com/yeremiapane/cleanmate-app/services"
	"github.com/yeremiapane/cleanmate-app/utils"
)

type OrderController struct {
	Bookings *services.BookingService
}

func NewOrderController(bookings *services.BookingService) *OrderController {
	return &OrderController{Bookings: bookings}
}

// orderView is the customer-facing order history row.
type orderView struct {
	ID            uint                 `json:"id"`
	OrderCode     string               `json:"orderCode"`
	Date          time.Time            `json:"date"`
	DurationHours int                  `json:"durationHours"`
	Price         int64                `json:"price"`
	Address       string               `json:"address"`
	Notes         *string              `json:"notes"`
	PaymentMethod *string              `json:"paymentMethod"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	Status        models.BookingStatus `json:"status"`
	CleanerID     *uint                `json:"cleanerId"`
	CleanerName   string               `json:"cleanerName,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
}

func newOrderView(b *models.Booking) orderView {
	v := orderView{
		ID:            b.ID,
		OrderCode:     b.OrderCode(),
		Date:          b.StartTime,
		DurationHours: b.DurationHours,
		Price:         b.Price,
		Address:       b.Address,
		Notes:         b.Notes,
		PaymentMethod: b.PaymentMethod,
		PaymentStatus: b.PaymentStatus,
		Status:        b.Status,
		CleanerID:     b.CleanerID,
		CreatedAt:     b.CreatedAt,
	}
	if b.Cleaner != nil {
		v.CleanerName = b.Cleaner.FullName
	}
	return v
}

// CreateBooking ignores any userId, status or cleanerId in the body.
func (oc *OrderController) CreateBooking(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req services.BookingDetails
	if !bindJSON(c, &req) {
		return
	}

	booking, err := oc.Bookings.CreateBooking(c.Request.Context(), p, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Booking created", booking)
}

func (oc *OrderController) GetBooking(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := oc.Bookings.GetBooking(c.Request.Context(), p, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking retrieved", booking)
}

func (oc *OrderController) OpenBookings(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	bookings, err := oc.Bookings.ListOpenBookings(c.Request.Context(), p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Open bookings", bookings)
}

// AcceptBooking assigns the calling cleaner. A cleanerId query parameter is
// accepted for older clients but must name the caller.
func (oc *OrderController) AcceptBooking(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if raw := c.Query("cleanerId"); raw != "" {
		cleanerID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid cleanerId"))
			return
		}
		if uint(cleanerID) != p.UserID {
			utils.RespondError(c, http.StatusForbidden, errors.New("cleanerId does not match the signed-in cleaner"))
			return
		}
	}

	booking, err := oc.Bookings.AcceptBooking(c.Request.Context(), p, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking accepted", booking)
}

func (oc *OrderController) CompleteBooking(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := oc.Bookings.CompleteBooking(c.Request.Context(), p, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking completed", booking)
}

func (oc *OrderController) CancelBooking(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := oc.Bookings.CancelBooking(c.Request.Context(), p, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking cancelled", booking)
}

// ListOrders defaults to the caller's own orders when userId is absent.
func (oc *OrderController) ListOrders(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var customerID uint
	if raw := c.Query("userId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid userId"))
			return
		}
		customerID = uint(id)
	}

	bookings, err := oc.Bookings.ListBookingsForCustomer(c.Request.Context(), p, customerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	orders := make([]orderView, 0, len(bookings))
	for i := range bookings {
		orders = append(orders, newOrderView(&bookings[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

func (oc *OrderController) UpdateOrder(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.BookingUpdate
	if !bindJSON(c, &req) {
		return
	}

	booking, err := oc.Bookings.UpdateBooking(c.Request.Context(), p, id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order updated", newOrderView(booking))
}

func (oc *OrderController) DeleteOrder(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := oc.Bookings.DeleteBooking(c.Request.Context(), p, id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order deleted", nil)
}
