package proxy

import (
	"net/netip"
	"testing"
)

func TestParseTrustedProxies(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.1.2.3/8", "192.168.0.5", "fd00::/8"})
	if err != nil {
		t.Fatalf("ParseTrustedProxies() failed: %v", err)
	}

	tests := []struct {
		addr string
		want bool
	}{
		{"10.200.0.1", true},
		{"192.168.0.5", true},
		{"192.168.0.6", false},
		{"::ffff:10.0.0.1", true},
		{"fd12::1", true},
		{"2001:db8::1", false},
		{"not-an-ip", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := trusted.ContainsString(tt.addr); got != tt.want {
			t.Errorf("ContainsString(%q) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}

func TestParseTrustedProxies_Empty(t *testing.T) {
	trusted, err := ParseTrustedProxies(nil)
	if err != nil {
		t.Fatalf("ParseTrustedProxies() failed: %v", err)
	}
	if trusted != nil {
		t.Errorf("Expected nil set for no entries, got %+v", trusted)
	}
	if trusted.Contains(netip.MustParseAddr("127.0.0.1")) {
		t.Error("Expected nil set to trust nobody")
	}
}

func TestParseTrustedProxies_Invalid(t *testing.T) {
	if _, err := ParseTrustedProxies([]string{"10.0.0.0/8", "proxy.internal"}); err == nil {
		t.Error("Expected error for hostname entry")
	}
}
