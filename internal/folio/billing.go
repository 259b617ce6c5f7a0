package folio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"roomsync/pkg/client"
	"roomsync/pkg/sequence"

	"github.com/google/uuid"
)

type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type InvoiceLine struct {
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	Amount      float64   `json:"amount"`
	Taxes       []TaxRate `json:"taxes,omitempty"`
}

type InvoiceRequest struct {
	BookingID         string        `json:"booking_id"`
	ReservationNumber string        `json:"reservation_number"`
	Customer          Customer      `json:"customer"`
	Lines             []InvoiceLine `json:"lines"`
	PaymentMethod     string        `json:"payment_method,omitempty"`
	AdvancePayment    float64       `json:"advance_payment"`
	BalanceDue        float64       `json:"balance_due"`
	CheckInDate       time.Time     `json:"check_in_date"`
	CheckOutDate      time.Time     `json:"check_out_date"`
}

type Invoice struct {
	ID     string `json:"id"`
	Number string `json:"number"`
}

// Billing creates the final invoice for a stay.
type Billing interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (Invoice, error)
}

// LocalBilling numbers invoices from the sequence generator and keeps the
// requests in memory. Used when no billing service is configured.
type LocalBilling struct {
	seq    sequence.Generator
	prefix string

	mu       sync.RWMutex
	invoices map[string]InvoiceRequest
}

func NewLocalBilling(seq sequence.Generator, prefix string) *LocalBilling {
	return &LocalBilling{
		seq:      seq,
		prefix:   prefix,
		invoices: make(map[string]InvoiceRequest),
	}
}

func (b *LocalBilling) CreateInvoice(ctx context.Context, req InvoiceRequest) (Invoice, error) {
	number, err := b.seq.Next(ctx, b.prefix)
	if err != nil {
		return Invoice{}, fmt.Errorf("failed to allocate invoice number: %w", err)
	}
	inv := Invoice{ID: uuid.NewString(), Number: number}

	b.mu.Lock()
	b.invoices[inv.ID] = req
	b.mu.Unlock()
	return inv, nil
}

// Get returns the request an invoice was created from.
func (b *LocalBilling) Get(id string) (InvoiceRequest, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	req, ok := b.invoices[id]
	return req, ok
}

const invoicesPath = "/api/v1/invoices"

type remoteBilling struct {
	http *client.HttpClient
}

// NewRemoteBilling posts invoices to an external billing service.
func NewRemoteBilling(httpClient *client.HttpClient) Billing {
	return &remoteBilling{http: httpClient}
}

func (b *remoteBilling) CreateInvoice(ctx context.Context, req InvoiceRequest) (Invoice, error) {
	resp, err := b.http.PostIdempotent(ctx, invoicesPath, req, "checkout-"+req.BookingID)
	if err != nil {
		return Invoice{}, fmt.Errorf("failed to call billing service: %w", err)
	}
	if !resp.OK() {
		return Invoice{}, fmt.Errorf("billing service returned %d: %s", resp.StatusCode, resp.ErrorMessage())
	}

	var body struct {
		Data Invoice `json:"data"`
	}
	if err := resp.DecodeJSON(&body); err != nil {
		return Invoice{}, fmt.Errorf("failed to decode billing response: %w", err)
	}
	if body.Data.ID == "" {
		return Invoice{}, fmt.Errorf("billing service returned no invoice id")
	}
	return body.Data, nil
}
