// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: the teacher's dnsoverudp.go ExchangeWithConn split into
// SendQuery/RecvResponse, generalized to operate on *dns.Msg and to honor
// the specification's default 2s per-attempt timeout.

package upstream

import (
	"context"
	"time"

	"github.com/miekg/dns"
	"github.com/zerodns-io/zerodns/internal/wire"
)

// DefaultAttemptTimeout is the per-attempt timeout the specification
// requires for a single UDP exchange (and each TCP/DoT/DoH attempt).
const DefaultAttemptTimeout = 2 * time.Second

type udpTransport struct {
	dialer NetDialer
}

func (t *udpTransport) exchange(ctx context.Context, ep *Endpoint, query *dns.Msg) (*dns.Msg, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultAttemptTimeout)
	defer cancel()

	conn, err := t.dialer.DialContext(ctx, "udp", ep.Addr())
	if err != nil {
		return nil, wire.Errorf(wire.KindIO, "upstream.udp.dial", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	raw, err := wire.Encode(query)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(raw); err != nil {
		return nil, wire.Errorf(wire.KindIO, "upstream.udp.write", err)
	}

	buf := make([]byte, dns.MaxMsgSize)
	n, err := conn.Read(buf)
	if err != nil {
		if ctx.Err() != nil {
			return nil, wire.Errorf(wire.KindTimeout, "upstream.udp.read", ctx.Err())
		}
		return nil, wire.Errorf(wire.KindIO, "upstream.udp.read", err)
	}

	reply, err := wire.Decode(buf[:n])
	if err != nil {
		return nil, err
	}
	if reply.Id != query.Id {
		// Mismatched id: a stray or spoofed reply. Discard it as malformed
		// for this exchange's purposes, per the specification.
		return nil, wire.Errorf(wire.KindMalformed, "upstream.udp", dns.ErrId)
	}
	return reply, nil
}
