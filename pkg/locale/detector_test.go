package locale

import "testing"

func TestInferCountryFromPhone(t *testing.T) {
	tests := []struct {
		name     string
		phone    string
		wantCode string
		wantName string
		wantNil  bool
	}{
		{name: "romanian mobile", phone: "+40721234567", wantCode: "RO", wantName: "Romania"},
		{name: "moldovan number", phone: "+37369123456", wantCode: "MD", wantName: "Moldova"},
		{name: "german mobile", phone: "+4915123456789", wantCode: "DE", wantName: "Germany"},
		{name: "unlisted country keeps code", phone: "+972541234567", wantCode: "IL"},
		{name: "national number without prefix", phone: "0721234567", wantNil: true},
		{name: "empty phone", phone: "", wantNil: true},
		{name: "invalid phone", phone: "not-a-phone", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferCountryFromPhone(tt.phone)
			if tt.wantNil {
				if got != nil {
					t.Errorf("InferCountryFromPhone(%q) = %v, want nil", tt.phone, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("InferCountryFromPhone(%q) = nil, want %q", tt.phone, tt.wantCode)
			}
			if got.Code != tt.wantCode || got.Name != tt.wantName {
				t.Errorf("InferCountryFromPhone(%q) = %+v, want code %q name %q", tt.phone, got, tt.wantCode, tt.wantName)
			}
		})
	}
}

func TestCountryCodeForPhone(t *testing.T) {
	if got := CountryCodeForPhone("", DefaultCountryCode); got != "RO" {
		t.Errorf("expected fallback RO, got %q", got)
	}
	if got := CountryCodeForPhone("+33612345678", DefaultCountryCode); got != "FR" {
		t.Errorf("expected FR, got %q", got)
	}
}
