package folio

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"roomsync/pkg/client"
	"roomsync/pkg/logger"
	"roomsync/pkg/model"
	"roomsync/pkg/sequence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBilling struct {
	calls []InvoiceRequest
	err   error
}

func (s *stubBilling) CreateInvoice(_ context.Context, req InvoiceRequest) (Invoice, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return Invoice{}, s.err
	}
	return Invoice{ID: "inv-1", Number: "INV-000001"}, nil
}

func checkedOutBooking() *model.Booking {
	in, _ := model.ParseDate("2025-12-10")
	out, _ := model.ParseDate("2025-12-12")
	b := &model.Booking{
		ID:                "b1",
		ReservationNumber: "RES-000001",
		Guest:             model.Guest{Name: "Asha Rao", Phone: "+919876543210", Email: "asha@example.com"},
		RoomNumber:        "101",
		RoomType:          "Deluxe",
		CheckInDate:       in,
		CheckOutDate:      out,
		Rate:              1500,
		AdvancePayment:    500,
		Status:            model.BookingCheckedOut,
	}
	b.Reprice()
	return b
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Config{Output: io.Discard})
}

func TestDerive_RoomChargeOnly(t *testing.T) {
	billing := &stubBilling{}
	d := NewDeriver(billing, TaxPolicy{DefaultPercent: 12}, quietLogger())
	b := checkedOutBooking()

	inv, err := d.Derive(context.Background(), b)
	require.NoError(t, err)

	require.Len(t, billing.calls, 1)
	req := billing.calls[0]
	require.Len(t, req.Lines, 1)
	assert.Equal(t, 3000.0, req.Lines[0].Amount)
	assert.Equal(t, 2, req.Lines[0].Quantity)
	assert.Equal(t, []TaxRate{{Name: "CGST", Percent: 6}, {Name: "SGST", Percent: 6}}, req.Lines[0].Taxes)
	assert.Equal(t, 2500.0, req.BalanceDue)
	assert.Equal(t, 500.0, req.AdvancePayment)

	assert.Equal(t, "inv-1", b.InvoiceID)
	assert.Equal(t, inv.Number, b.InvoiceNumber)
	rent, ok := b.Folio.RoomRentLine()
	require.True(t, ok)
	assert.Equal(t, 3000.0, rent.Amount)
}

func TestDerive_ExtraLinesCarryPercentTaxes(t *testing.T) {
	billing := &stubBilling{}
	d := NewDeriver(billing, TaxPolicy{DefaultPercent: 12, Overrides: map[string]float64{"Deluxe": 18}}, quietLogger())
	b := checkedOutBooking()
	b.Folio.Lines = append(b.Folio.Lines, model.FolioLine{
		Description: "Dinner",
		Amount:      1000,
		Type:        model.FolioFoodBeverage,
		Taxes:       []model.LineTax{{Name: "CGST", Amount: 25}, {Name: "SGST", Amount: 25}},
	})
	b.Folio.Payments = append(b.Folio.Payments, model.Payment{Method: "card", Amount: 2000})

	_, err := d.Derive(context.Background(), b)
	require.NoError(t, err)

	req := billing.calls[0]
	require.Len(t, req.Lines, 2)
	assert.Equal(t, 9.0, req.Lines[0].Taxes[0].Percent)
	assert.Equal(t, "Dinner", req.Lines[1].Description)
	assert.Equal(t, []TaxRate{{Name: "CGST", Percent: 2.5}, {Name: "SGST", Percent: 2.5}}, req.Lines[1].Taxes)
	// 3000 + 1050 - 2000 - 500
	assert.Equal(t, 1550.0, req.BalanceDue)
}

func TestDerive_ExistingRentLineNotDuplicated(t *testing.T) {
	billing := &stubBilling{}
	d := NewDeriver(billing, TaxPolicy{}, quietLogger())
	b := checkedOutBooking()
	posted := time.Date(2025, 12, 12, 10, 30, 0, 0, time.UTC)
	EnsureRoomRent(b, posted)
	EnsureRoomRent(b, posted.Add(time.Hour))

	_, err := d.Derive(context.Background(), b)
	require.NoError(t, err)

	rentLines := 0
	for _, l := range b.Folio.Lines {
		if l.Type == model.FolioRoomRent {
			rentLines++
		}
	}
	assert.Equal(t, 1, rentLines)
	assert.Equal(t, posted, b.Folio.Lines[0].PostedAt)
	assert.Empty(t, billing.calls[0].Lines[0].Taxes)
}

func TestDerive_BillingFailure(t *testing.T) {
	d := NewDeriver(&stubBilling{err: errors.New("billing down")}, TaxPolicy{DefaultPercent: 12}, quietLogger())
	b := checkedOutBooking()

	_, err := d.Derive(context.Background(), b)
	require.Error(t, err)
	assert.Empty(t, b.InvoiceID)
}

func TestLocalBilling_NumbersInvoices(t *testing.T) {
	billing := NewLocalBilling(sequence.NewMemory(), "INV")

	first, err := billing.CreateInvoice(context.Background(), InvoiceRequest{BookingID: "b1"})
	require.NoError(t, err)
	second, err := billing.CreateInvoice(context.Background(), InvoiceRequest{BookingID: "b2"})
	require.NoError(t, err)

	assert.Equal(t, "INV-000001", first.Number)
	assert.Equal(t, "INV-000002", second.Number)
	req, ok := billing.Get(second.ID)
	require.True(t, ok)
	assert.Equal(t, "b2", req.BookingID)
}

func TestRemoteBilling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, invoicesPath, r.URL.Path)
		assert.Equal(t, "checkout-b1", r.Header.Get("Idempotency-Key"))

		var req InvoiceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 2500.0, req.BalanceDue)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"ext-9","number":"B-77"}}`))
	}))
	defer srv.Close()

	billing := NewRemoteBilling(client.NewHttpClient(srv.URL, time.Second))
	inv, err := billing.CreateInvoice(context.Background(), InvoiceRequest{BookingID: "b1", BalanceDue: 2500})
	require.NoError(t, err)
	assert.Equal(t, Invoice{ID: "ext-9", Number: "B-77"}, inv)
}

func TestRemoteBilling_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"ledger offline"}`))
	}))
	defer srv.Close()

	billing := NewRemoteBilling(client.NewHttpClient(srv.URL, time.Second))
	_, err := billing.CreateInvoice(context.Background(), InvoiceRequest{BookingID: "b1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger offline")
}
