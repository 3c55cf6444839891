// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: the teacher's dialer.go sequential-connect [*Dialer]. The
// teacher resolved through a pluggable [DialerResolver] (itself capable of
// recursing through the library being built); here ZeroDNS must never
// recurse through itself to resolve an upstream's own hostname, so the
// bootstrap resolver is always the system resolver.

package upstream

import (
	"context"
	"errors"
	"net"
)

// NetDialer abstracts over [*net.Dialer], the same seam the teacher used.
type NetDialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// BootstrapDialer dials connections to upstreams named by hostname (DoT,
// DoH) by resolving through the system resolver first. IP-literal
// addresses are dialed directly, without a lookup.
//
// ZeroDNS never uses its own filter chain to resolve an upstream's
// hostname: that would make an upstream's reachability depend on another
// upstream's being already reachable.
type BootstrapDialer struct {
	Dialer   NetDialer
	Resolver *net.Resolver
}

// NewBootstrapDialer constructs a [*BootstrapDialer] using the system
// resolver.
func NewBootstrapDialer(dialer NetDialer) *BootstrapDialer {
	return &BootstrapDialer{Dialer: dialer, Resolver: net.DefaultResolver}
}

// DialContext creates a new [net.Conn], resolving address's host via the
// bootstrap resolver first if it is not already an IP literal.
func (d *BootstrapDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}

	addrs, err := d.lookupHost(ctx, host)
	if err != nil {
		return nil, err
	}

	errv := make([]error, 0, len(addrs))
	for _, addr := range addrs {
		conn, err := d.Dialer.DialContext(ctx, network, net.JoinHostPort(addr, port))
		if err != nil {
			errv = append(errv, err)
			continue
		}
		return conn, nil
	}
	return nil, errors.Join(errv...)
}

func (d *BootstrapDialer) lookupHost(ctx context.Context, host string) ([]string, error) {
	if net.ParseIP(host) != nil {
		return []string{host}, nil
	}
	return d.Resolver.LookupHost(ctx, host)
}
