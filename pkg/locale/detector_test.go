package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferCountryFromPhone(t *testing.T) {
	tests := []struct {
		name     string
		phone    string
		wantCode string
	}{
		{name: "India", phone: "+919876543210", wantCode: "IN"},
		{name: "Israel", phone: "+972541234567", wantCode: "IL"},
		{name: "US", phone: "+12125551234", wantCode: "US"},
		{name: "unknown calling code", phone: "+442071234567"},
		{name: "national format", phone: "9876543210"},
		{name: "empty", phone: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferCountryFromPhone(tt.phone)
			if tt.wantCode == "" {
				assert.Nil(t, got)
				return
			}
			if assert.NotNil(t, got) {
				assert.Equal(t, tt.wantCode, got.Code)
			}
		})
	}
}

func TestDetectRegion(t *testing.T) {
	tests := []struct {
		timezone string
		want     string
	}{
		{"Asia/Kolkata", "IN"},
		{"asia/calcutta", "IN"},
		{"America/Los_Angeles", "US"},
		{"Asia/Jerusalem", "IL"},
		{"Europe/London", DefaultRegion},
		{"", DefaultRegion},
	}

	for _, tt := range tests {
		t.Run(tt.timezone, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectRegion(tt.timezone))
		})
	}
}

func TestRegionsKeepsPreferenceOrder(t *testing.T) {
	assert.Equal(t, []string{"IN", "US", "IL"}, Regions())

	c, ok := Lookup("us")
	assert.True(t, ok)
	assert.Equal(t, "United States", c.Name)
}
