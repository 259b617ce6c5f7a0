// Package folio turns a checked-out booking's folio into an invoice.
package folio

import (
	"context"
	"fmt"
	"time"

	"roomsync/pkg/logger"
	"roomsync/pkg/metrics"
	"roomsync/pkg/model"
)

type Deriver struct {
	billing Billing
	taxes   TaxPolicy
	log     *logger.Logger
}

func NewDeriver(billing Billing, taxes TaxPolicy, log *logger.Logger) *Deriver {
	return &Deriver{billing: billing, taxes: taxes, log: log}
}

// EnsureRoomRent posts the room charge at postedAt if it is not on the
// folio yet and recomputes the totals.
func EnsureRoomRent(b *model.Booking, postedAt time.Time) {
	if _, ok := b.Folio.RoomRentLine(); !ok {
		b.Folio.Lines = append(b.Folio.Lines, model.FolioLine{
			Description: fmt.Sprintf("Room %s, %d night(s) at %.2f", b.RoomNumber, b.Nights, b.Rate),
			Amount:      b.Amount,
			Type:        model.FolioRoomRent,
			PostedAt:    postedAt,
		})
	}
	b.Folio.Recompute(b.Amount, b.AdvancePayment)
}

// BuildRequest assembles the invoice for b. The room charge comes first,
// followed by every other folio line with its absolute taxes turned back
// into percentages.
func (d *Deriver) BuildRequest(b *model.Booking) InvoiceRequest {
	roomRates, overridden := d.taxes.RoomRates(b.RoomType)
	if !overridden {
		d.log.Debug("No tax override for room type, using default split",
			"room_type", b.RoomType,
			"booking_id", b.ID,
		)
	}

	rent, ok := b.Folio.RoomRentLine()
	rentAmount := b.Amount
	if ok {
		rentAmount = rent.Amount
	}

	lines := []InvoiceLine{{
		Description: fmt.Sprintf("Room %s (%s)", b.RoomNumber, b.RoomType),
		Type:        string(model.FolioRoomRent),
		Quantity:    b.Nights,
		UnitPrice:   b.Rate,
		Amount:      rentAmount,
		Taxes:       roomRates,
	}}
	for _, l := range b.Folio.Lines {
		if l.Type == model.FolioRoomRent {
			continue
		}
		var rates []TaxRate
		for _, t := range l.Taxes {
			rates = append(rates, TaxRate{Name: t.Name, Percent: PercentOf(t.Amount, l.Amount)})
		}
		lines = append(lines, InvoiceLine{
			Description: l.Description,
			Type:        string(l.Type),
			Quantity:    1,
			UnitPrice:   l.Amount,
			Amount:      l.Amount,
			Taxes:       rates,
		})
	}

	return InvoiceRequest{
		BookingID:         b.ID,
		ReservationNumber: b.ReservationNumber,
		Customer: Customer{
			Name:  b.Guest.Name,
			Phone: b.Guest.Phone,
			Email: b.Guest.Email,
		},
		Lines:          lines,
		PaymentMethod:  b.PaymentMethod,
		AdvancePayment: b.AdvancePayment,
		BalanceDue:     b.Folio.Balance,
		CheckInDate:    b.CheckInDate,
		CheckOutDate:   b.CheckOutDate,
	}
}

// Derive posts the room charge if missing, calls billing once and stores the
// invoice reference on b. The caller persists b.
func (d *Deriver) Derive(ctx context.Context, b *model.Booking) (Invoice, error) {
	postedAt := b.UpdatedAt
	if b.ActualCheckOutDate != nil {
		postedAt = *b.ActualCheckOutDate
	}
	EnsureRoomRent(b, postedAt)
	req := d.BuildRequest(b)

	inv, err := d.billing.CreateInvoice(ctx, req)
	metrics.InvoicesCreated.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return Invoice{}, fmt.Errorf("failed to create invoice: %w", err)
	}

	b.InvoiceID = inv.ID
	b.InvoiceNumber = inv.Number
	d.log.Info("Invoice created",
		"booking_id", b.ID,
		"reservation_number", b.ReservationNumber,
		"invoice_id", inv.ID,
		"invoice_number", inv.Number,
		"lines", len(req.Lines),
		"balance_due", req.BalanceDue,
	)
	return inv, nil
}
