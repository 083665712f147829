package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yeremiapane/cleanmate-app/models"
	"github.com/yeremiapane/cleanmate-app/utils"
)

// Receipt renders a PDF receipt for a paid booking.
func (s *PaymentService) Receipt(ctx context.Context, p Principal, bookingID uint) ([]byte, error) {
	booking, err := s.find(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canManage(p, booking) && !isAssignedCleaner(p, booking) {
		return nil, forbiddenError("you cannot view this receipt")
	}
	if booking.PaymentStatus != models.PaymentStatusPaid {
		return nil, newError(ErrInvalidState, "receipt is only available for paid bookings")
	}
	return renderReceipt(booking)
}

func renderReceipt(b *models.Booking) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A5", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("CleanMate receipt "+b.OrderCode(), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "CleanMate", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Payment receipt", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	customer := ""
	if b.User != nil {
		customer = b.User.FullName
	}
	cleaner := "-"
	if b.Cleaner != nil {
		cleaner = b.Cleaner.FullName
	}
	method := "-"
	if b.PaymentMethod != nil {
		method = *b.PaymentMethod
	}

	rows := [][2]string{
		{"Order", b.OrderCode()},
		{"Customer", customer},
		{"Cleaner", cleaner},
		{"Address", b.Address},
		{"Start", b.StartTime.Format("02/01/2006 15:04")},
		{"Duration", fmt.Sprintf("%d h", b.DurationHours)},
		{"Status", string(b.Status)},
		{"Payment", method + " / " + string(b.PaymentStatus)},
	}
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(35, 7, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 7, tr(row[1]), "", "L", false)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	// core fonts have no dong sign
	total := strings.Replace(utils.FormatCurrencyVND(b.Price), "₫", "VND", 1)
	pdf.CellFormat(35, 10, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 10, total, "T", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
