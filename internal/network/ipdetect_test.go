package network

import (
	"net"
	"testing"
)

func TestIPv4Addresses_AllIPv4NonLoopback(t *testing.T) {
	ips, err := IPv4Addresses()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range ips {
		ip := net.ParseIP(s)
		if ip == nil || ip.To4() == nil {
			t.Errorf("expected IPv4 address, got %q", s)
		}
		if ip.IsLoopback() {
			t.Errorf("loopback address returned: %q", s)
		}
	}
}

func TestPreferredIP(t *testing.T) {
	addrs := []string{"192.168.1.10", "10.0.0.7"}

	tests := []struct {
		name    string
		addrs   []string
		pattern string
		want    string
	}{
		{"no pattern picks first", addrs, "", "192.168.1.10"},
		{"pattern match", addrs, `^10\.`, "10.0.0.7"},
		{"no match falls back to first", addrs, `^172\.`, "192.168.1.10"},
		{"empty list", nil, `^10\.`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PreferredIP(tt.addrs, tt.pattern)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPreferredIP_InvalidPattern(t *testing.T) {
	if _, err := PreferredIP([]string{"10.0.0.1"}, "("); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}
