package folio

import "math"

// TaxRate is a percentage applied by the billing side.
type TaxRate struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
}

// TaxPolicy splits the room tax into equal central and state components.
// Room types listed in Overrides use their own total percent.
type TaxPolicy struct {
	DefaultPercent float64
	Overrides      map[string]float64
}

// RoomRates returns the tax rates for a room type and whether an override
// applied. An unknown room type falls back to the default split.
func (p TaxPolicy) RoomRates(roomType string) ([]TaxRate, bool) {
	total, overridden := p.Overrides[roomType]
	if !overridden {
		total = p.DefaultPercent
	}
	if total <= 0 {
		return nil, overridden
	}
	half := round2(total / 2)
	return []TaxRate{
		{Name: "CGST", Percent: half},
		{Name: "SGST", Percent: half},
	}, overridden
}

// PercentOf converts an absolute tax amount on base into a percentage.
func PercentOf(taxAmount, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return round2(taxAmount / base * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
