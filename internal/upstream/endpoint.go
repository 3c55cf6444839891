// SPDX-License-Identifier: GPL-3.0-or-later

package upstream

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/zerodns-io/zerodns/internal/wire"
)

// Scheme is one of the four transports the specification names.
type Scheme string

const (
	SchemeUDP Scheme = "udp"
	SchemeTCP Scheme = "tcp"
	SchemeDoT Scheme = "dot"
	SchemeDoH Scheme = "doh"
)

// defaultPorts maps each scheme to its default port, per the
// specification's Upstream data model.
var defaultPorts = map[Scheme]string{
	SchemeUDP: "53",
	SchemeTCP: "53",
	SchemeDoT: "853",
	SchemeDoH: "443",
}

// Endpoint is a parsed upstream URI.
type Endpoint struct {
	Scheme Scheme
	Host   string // hostname or IP, no port
	Port   string
	Path   string // DoH query path, defaults to /dns-query
	Raw    string // the original URI, as given to Parse
}

// Addr returns "host:port", suitable for dialing.
func (e *Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, e.Port)
}

// Parse parses an upstream URI of the form `<scheme>://<host>[:port]`.
// `udp` is assumed when no scheme is present, matching the specification.
func Parse(raw string) (*Endpoint, error) {
	s := raw
	if !strings.Contains(s, "://") {
		s = "udp://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, wire.Errorf(wire.KindConfig, "upstream.Parse", err)
	}

	scheme := Scheme(strings.ToLower(u.Scheme))
	switch scheme {
	case SchemeUDP, SchemeTCP, SchemeDoT, SchemeDoH:
	default:
		return nil, wire.Errorf(wire.KindConfig, "upstream.Parse",
			fmt.Errorf("unsupported scheme %q", u.Scheme))
	}

	host := u.Hostname()
	if host == "" {
		return nil, wire.Errorf(wire.KindConfig, "upstream.Parse",
			fmt.Errorf("missing host in %q", raw))
	}

	port := u.Port()
	if port == "" {
		port = defaultPorts[scheme]
	}

	path := u.Path
	if path == "" && scheme == SchemeDoH {
		path = "/dns-query"
	}

	return &Endpoint{Scheme: scheme, Host: host, Port: port, Path: path, Raw: raw}, nil
}

// PoolKey identifies the connection-pool bucket for this endpoint:
// (scheme, host, port) per the specification's connection pool slot, plus
// the URI path (always set for DoH, otherwise only when one was given).
func (e *Endpoint) PoolKey() string {
	return string(e.Scheme) + "://" + e.Addr() + e.Path
}

// URL returns the full https URL to use for DoH requests.
func (e *Endpoint) URL() string {
	return "https://" + e.Addr() + e.Path
}
