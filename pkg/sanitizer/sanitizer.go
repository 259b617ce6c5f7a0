package sanitizer

import (
	"roomsync/pkg/locale"
	"roomsync/pkg/model"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var phonePipeline = Pipeline{TrimAndNormalize, NormalizePhone}

// SanitizeGuest normalizes guest contact fields in place. A phone that cannot
// be parsed keeps its trimmed raw form so validation can report it.
func SanitizeGuest(g *model.Guest) {
	g.Name = NormalizeName(g.Name)
	g.Email = NormalizeEmail(g.Email)
	raw := TrimAndNormalize(g.Phone)
	if normalized := phonePipeline.Apply(raw); normalized != "" {
		g.Phone = normalized
	} else {
		g.Phone = raw
	}
	if country := locale.InferCountryFromPhone(g.Phone); country != nil {
		g.Country = country.Code
	}
}

func SanitizeBookingRequest(req *model.CreateBookingRequest) {
	SanitizeGuest(&req.Guest)
	req.RoomType = NormalizeRoomType(req.RoomType)
	req.CheckInDate = TrimAndNormalize(req.CheckInDate)
	req.CheckOutDate = TrimAndNormalize(req.CheckOutDate)
}

func SanitizeRoom(r *model.Room) {
	r.Number = TrimAndNormalize(r.Number)
	r.RoomType = NormalizeRoomType(r.RoomType)
	r.Floor = TrimAndNormalize(r.Floor)
}
