package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name   string
		phone  string
		region string
		want   string
		wantOK bool
	}{
		{"romanian national number", "0721 234 567", "RO", "+40721234567", true},
		{"already e164", "+40721234567", "RO", "+40721234567", true},
		{"foreign e164 keeps its country", "+49 151 23456789", "RO", "+4915123456789", true},
		{"empty region uses default", "0721234567", "", "+40721234567", true},
		{"lower-case region", "0721234567", "ro", "+40721234567", true},
		{"garbage is kept trimmed", "  call me  ", "RO", "call me", false},
		{"empty", "   ", "RO", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizePhone(tt.phone, tt.region)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("NormalizePhone(%q, %q) = (%q, %v), want (%q, %v)", tt.phone, tt.region, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	once, _ := NormalizePhone("0721234567", "RO")
	twice, _ := NormalizePhone(once, "RO")
	if once != twice {
		t.Errorf("not idempotent: %q then %q", once, twice)
	}
}

func TestRegionForPhone(t *testing.T) {
	tests := map[string]string{
		"+40721234567":   "RO",
		"+4915123456789": "DE",
		"0721234567":     "",
		"":               "",
	}
	for phone, want := range tests {
		if got := RegionForPhone(phone); got != want {
			t.Errorf("RegionForPhone(%q) = %q, want %q", phone, got, want)
		}
	}
}
