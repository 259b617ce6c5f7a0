package model

import "time"

type FolioLineType string

const (
	FolioRoomRent     FolioLineType = "ROOM_RENT"
	FolioFoodBeverage FolioLineType = "FOOD_BEVERAGE"
	FolioLaundry      FolioLineType = "LAUNDRY"
	FolioMinibar      FolioLineType = "MINIBAR"
	FolioService      FolioLineType = "SERVICE"
	FolioOther        FolioLineType = "OTHER"
)

// LineTax is an absolute tax amount charged on a folio line.
type LineTax struct {
	Name   string  `json:"name" bson:"name" validate:"required,min=2,max=20"`
	Amount float64 `json:"amount" bson:"amount" validate:"min=0"`
}

type FolioLine struct {
	Description string        `json:"description" bson:"description" validate:"required,min=2,max=200"`
	Amount      float64       `json:"amount" bson:"amount" validate:"gt=0"`
	Type        FolioLineType `json:"type" bson:"type" validate:"required,oneof=ROOM_RENT FOOD_BEVERAGE LAUNDRY MINIBAR SERVICE OTHER"`
	Taxes       []LineTax     `json:"taxes,omitempty" bson:"taxes,omitempty" validate:"omitempty,max=5,dive"`
	PostedAt    time.Time     `json:"posted_at" bson:"posted_at"`
}

// TaxTotal sums the absolute taxes on the line.
func (l FolioLine) TaxTotal() float64 {
	var sum float64
	for _, t := range l.Taxes {
		sum += t.Amount
	}
	return sum
}

type Payment struct {
	Method     string    `json:"method" bson:"method" validate:"required,oneof=cash card upi bank_transfer online"`
	Amount     float64   `json:"amount" bson:"amount" validate:"gt=0"`
	Reference  string    `json:"reference,omitempty" bson:"reference,omitempty" validate:"omitempty,max=100"`
	ReceivedAt time.Time `json:"received_at" bson:"received_at"`
}

// Folio is the running ledger of a stay. Balance may go negative when the guest is in credit.
type Folio struct {
	Lines    []FolioLine `json:"lines" bson:"lines"`
	Payments []Payment   `json:"payments" bson:"payments"`
	Total    float64     `json:"total" bson:"total"`
	Balance  float64     `json:"balance" bson:"balance"`
}

// RoomRentLine returns the first room-rent line, if posted.
func (f *Folio) RoomRentLine() (FolioLine, bool) {
	for _, l := range f.Lines {
		if l.Type == FolioRoomRent {
			return l, true
		}
	}
	return FolioLine{}, false
}

func (f *Folio) PaymentsTotal() float64 {
	var sum float64
	for _, p := range f.Payments {
		sum += p.Amount
	}
	return sum
}

// Recompute derives Total and Balance. The room charge counts once: through the
// posted room-rent line when present, otherwise through roomCharge.
//
//	balance = total - sum(payments) - advancePayment
func (f *Folio) Recompute(roomCharge, advancePayment float64) {
	total := 0.0
	rentPosted := false
	for _, l := range f.Lines {
		if l.Type == FolioRoomRent {
			if rentPosted {
				continue
			}
			rentPosted = true
		}
		total += l.Amount + l.TaxTotal()
	}
	if !rentPosted {
		total += roomCharge
	}
	f.Total = roundMoney(total)
	f.Balance = roundMoney(f.Total - f.PaymentsTotal() - advancePayment)
}

func (f Folio) Clone() Folio {
	c := f
	if f.Lines != nil {
		c.Lines = make([]FolioLine, len(f.Lines))
		for i, l := range f.Lines {
			c.Lines[i] = l
			if l.Taxes != nil {
				c.Lines[i].Taxes = append([]LineTax(nil), l.Taxes...)
			}
		}
	}
	if f.Payments != nil {
		c.Payments = append([]Payment(nil), f.Payments...)
	}
	return c
}
