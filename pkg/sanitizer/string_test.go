package sanitizer

import (
	"roomsync/pkg/model"
	"testing"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  Asha Rao  ",
			want:  "Asha Rao",
		},
		{
			name:  "multiple spaces between words",
			input: "Asha    Rao",
			want:  "Asha Rao",
		},
		{
			name:  "tabs and newlines",
			input: "Asha\t\nRao",
			want:  "Asha Rao",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "preserve non-ascii",
			input: " José Müller ",
			want:  "José Müller",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeRoomType(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"deluxe", "Deluxe"},
		{"  DELUXE   king ", "Deluxe King"},
		{"Suite", "Suite"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeRoomType(tt.input); got != tt.want {
				t.Errorf("NormalizeRoomType(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := NormalizeRoomType(tt.want); again != tt.want {
				t.Errorf("NormalizeRoomType is not idempotent: %q -> %q", tt.want, again)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Asha@Example.COM "); got != "asha@example.com" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}

func TestSanitizeGuest(t *testing.T) {
	g := model.Guest{Name: "  Asha   Rao ", Phone: " +91 98765 43210 ", Email: "ASHA@example.com"}
	SanitizeGuest(&g)

	if g.Name != "Asha Rao" {
		t.Errorf("Name = %q", g.Name)
	}
	if g.Phone != "+919876543210" {
		t.Errorf("Phone = %q", g.Phone)
	}
	if g.Email != "asha@example.com" {
		t.Errorf("Email = %q", g.Email)
	}
	if g.Country != "IN" {
		t.Errorf("Country = %q", g.Country)
	}

	bad := model.Guest{Phone: "  not a phone "}
	SanitizeGuest(&bad)
	if bad.Phone != "not a phone" {
		t.Errorf("unparseable phone should keep trimmed raw form, got %q", bad.Phone)
	}
	if bad.Country != "" {
		t.Errorf("unparseable phone should not infer a country, got %q", bad.Country)
	}
}
