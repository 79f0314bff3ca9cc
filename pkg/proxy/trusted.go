package proxy

import (
	"fmt"
	"net/netip"
)

// TrustedProxies is a set of peers allowed to report the client address in
// X-Forwarded-For. The zero value and nil trust nobody.
type TrustedProxies struct {
	prefixes []netip.Prefix
}

// ParseTrustedProxies builds a set from IP addresses and CIDR prefixes.
// An empty list yields nil.
func ParseTrustedProxies(entries []string) (*TrustedProxies, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	t := &TrustedProxies{prefixes: make([]netip.Prefix, 0, len(entries))}
	for _, entry := range entries {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			t.prefixes = append(t.prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q is not an IP address or CIDR", entry)
		}
		addr = addr.Unmap()
		t.prefixes = append(t.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return t, nil
}

// Contains reports whether addr belongs to a trusted proxy.
func (t *TrustedProxies) Contains(addr netip.Addr) bool {
	if t == nil || !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range t.prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ContainsString is Contains for a textual address. Anything that does not
// parse as an IP is untrusted.
func (t *TrustedProxies) ContainsString(addr string) bool {
	if t == nil {
		return false
	}
	parsed, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}
	return t.Contains(parsed)
}
