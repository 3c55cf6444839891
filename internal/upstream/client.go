// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: the teacher's Resolver/Client lookup loop in resolver.go,
// collapsed from "try each configured transport in turn" into "pick the
// one transport this endpoint's scheme names".

package upstream

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"

	"github.com/miekg/dns"
)

// Client exchanges queries with upstreams over UDP, TCP, DoT, or DoH,
// picking the transport from the endpoint's scheme.
//
// Construct with [NewClient].
type Client struct {
	udp *udpTransport
	tcp *streamTransport
	dot *streamTransport
	doh *dohTransport
}

// NewClient builds a [*Client]. dialer is used for UDP/TCP/DoT connections
// (wrap it in a [*BootstrapDialer] to resolve hostname upstreams);
// httpClient is used for DoH (its Transport's DialContext, if set, governs
// how the underlying TCP/TLS connection for DoH is established).
func NewClient(dialer NetDialer, httpClient HTTPClient) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		udp: &udpTransport{dialer: dialer},
		tcp: newStreamTransport(dialer, nil),
		dot: newStreamTransport(dialer, &tls.Config{MinVersion: tls.VersionTLS12}),
		doh: &dohTransport{client: httpClient},
	}
}

// Query sends msg to ep and returns its reply. A fresh pseudo-random
// message id is assigned before sending, per the specification; replies
// whose id does not match are discarded by the transport as malformed.
//
// For UDP, a truncated reply is retried once over TCP against the same
// host and port, per the specification's UDP truncation-retry rule.
func (c *Client) Query(ctx context.Context, ep *Endpoint, msg *dns.Msg) (*dns.Msg, error) {
	query := msg.Copy()
	query.Id = dns.Id()

	switch ep.Scheme {
	case SchemeUDP:
		reply, err := c.udp.exchange(ctx, ep, query)
		if err != nil {
			return nil, err
		}
		if reply.Truncated {
			tcpEp := &Endpoint{Scheme: SchemeTCP, Host: ep.Host, Port: ep.Port, Raw: ep.Raw}
			return c.tcp.exchange(ctx, tcpEp, query)
		}
		return reply, nil
	case SchemeTCP:
		return c.tcp.exchange(ctx, ep, query)
	case SchemeDoT:
		return c.dot.exchange(ctx, ep, query)
	case SchemeDoH:
		return c.doh.exchange(ctx, ep, query)
	default:
		return nil, &net.AddrError{Err: "unsupported upstream scheme", Addr: string(ep.Scheme)}
	}
}
