package merchant

import (
	"fmt"
	"net/netip"
	"strings"
	"time"
)

// Domain is an allowlisted origin for a merchant.
type Domain struct {
	ID         string    `json:"id"`
	MerchantID string    `json:"merchantId"`
	Domain     string    `json:"domain"`
	Verified   bool      `json:"verified"`
	CreatedAt  time.Time `json:"createdAt"`
}

// IP is an allowlisted address or CIDR range for a merchant.
type IP struct {
	ID         string    `json:"id"`
	MerchantID string    `json:"merchantId"`
	IPAddress  string    `json:"ipAddress"`
	Label      string    `json:"label,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NormalizeDomain lowercases d and checks it is a plain hostname with at least
// one dot. Schemes, ports and paths are rejected.
func NormalizeDomain(d string) (string, error) {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimSuffix(d, ".")
	if d == "" || len(d) > 253 || !strings.Contains(d, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, d)
	}
	for _, label := range strings.Split(d, ".") {
		if !validLabel(label) {
			return "", fmt.Errorf("%w: %q", ErrInvalidDomain, d)
		}
	}
	return d, nil
}

func validLabel(l string) bool {
	if l == "*" {
		return true
	}
	if l == "" || len(l) > 63 || l[0] == '-' || l[len(l)-1] == '-' {
		return false
	}
	for _, c := range l {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-':
		default:
			return false
		}
	}
	return true
}

// NormalizeIP accepts a single address or a CIDR prefix and returns its
// canonical form.
func NormalizeIP(s string) (string, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidIP, s)
		}
		return p.Masked().String(), nil
	}
	a, err := netip.ParseAddr(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidIP, s)
	}
	return a.String(), nil
}
