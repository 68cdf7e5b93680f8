package dns

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// MiekgResolver is the production SystemResolver, issuing A and AAAA
// queries against a configured upstream with github.com/miekg/dns. When
// Upstream is empty it falls back to the OS resolver via
// net.DefaultResolver, which is what most embedding applications actually
// want in development.
type MiekgResolver struct {
	// Upstream is a "host:port" UDP resolver address, e.g. "1.1.1.1:53".
	// Empty means "use the OS resolver instead".
	Upstream string

	// Timeout bounds a single upstream query. Zero means the client's
	// built-in default (2s).
	Timeout time.Duration
}

// Resolve implements SystemResolver.
func (m *MiekgResolver) Resolve(ctx context.Context, hostname string) ([]Address, error) {
	if m.Upstream == "" {
		return m.resolveViaOS(ctx, hostname)
	}
	return m.resolveViaUpstream(ctx, hostname)
}

func (m *MiekgResolver) resolveViaOS(ctx context.Context, hostname string) ([]Address, error) {
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", hostname)
	if err != nil {
		return nil, fmt.Errorf("system resolver: %w", err)
	}
	out := make([]Address, 0, len(ips))
	for _, ip := range ips {
		if a, ok := AddressFromIP(ip); ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MiekgResolver) resolveViaUpstream(ctx context.Context, hostname string) ([]Address, error) {
	client := &dns.Client{Timeout: m.Timeout}

	var out []Address
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(hostname), qtype)
		msg.RecursionDesired = true

		resp, _, err := client.ExchangeContext(ctx, msg, m.Upstream)
		if err != nil {
			return nil, fmt.Errorf("system resolver query %s: %w", hostname, err)
		}
		for _, rr := range resp.Answer {
			switch rec := rr.(type) {
			case *dns.A:
				if a, ok := AddressFromIP(rec.A); ok {
					out = append(out, a)
				}
			case *dns.AAAA:
				if a, ok := AddressFromIP(rec.AAAA); ok {
					out = append(out, a)
				}
			}
		}
	}
	return out, nil
}
