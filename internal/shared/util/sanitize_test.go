package util

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "invoice.pdf", want: "invoice.pdf"},
		{name: "slashes replaced", in: "2026/01/invoice.pdf", want: "2026_01_invoice.pdf"},
		{name: "backslashes replaced", in: `a\b.pdf`, want: "a_b.pdf"},
		{name: "traversal rejected", in: "../etc/passwd", wantErr: true},
		{name: "empty rejected", in: "   ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeFileName(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeVAT(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"NL 8123.45.678.B01", "NL812345678B01"},
		{"be-0123456789", "BE0123456789"},
		{"  de129273398 ", "DE129273398"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeVAT(tt.in); got != tt.want {
			t.Fatalf("NormalizeVAT(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
