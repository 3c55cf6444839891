// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: the teacher's stream.go StreamExchanger, generalized to
// operate on *dns.Msg and to optionally wrap the dialer in TLS for DoT,
// SNI defaulting to the upstream host per RFC 7858. Connection reuse is
// grounded on the specification's C3 Connection Pool: a pooled connection
// is tried first, and on first I/O failure against it the exchange is
// retried exactly once over a fresh connection, per spec.md §4.3.

package upstream

import (
	"bufio"
	"context"
	"crypto/tls"
	"io"
	"math"
	"net"
	"time"

	"github.com/miekg/dns"
	"github.com/zerodns-io/zerodns/internal/pool"
	"github.com/zerodns-io/zerodns/internal/wire"
)

// DefaultPoolSize is the default maximum number of idle connections kept
// per upstream key, per the specification's connection pool.
const DefaultPoolSize = 8

// DefaultIdleTimeout is the default duration an idle pooled connection is
// kept before being closed, per the specification.
const DefaultIdleTimeout = 30 * time.Second

type streamTransport struct {
	dialer NetDialer
	tls    *tls.Config // non-nil for DoT
	pool   *pool.Pool[net.Conn]
}

func newStreamTransport(dialer NetDialer, tlsConfig *tls.Config) *streamTransport {
	return &streamTransport{
		dialer: dialer,
		tls:    tlsConfig,
		pool:   pool.New[net.Conn](DefaultPoolSize, DefaultIdleTimeout),
	}
}

func (t *streamTransport) exchange(ctx context.Context, ep *Endpoint, query *dns.Msg) (*dns.Msg, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultAttemptTimeout)
	defer cancel()

	key := ep.PoolKey()
	if conn, ok := t.pool.Get(key); ok {
		reply, err := t.roundtrip(ctx, conn, query)
		if err == nil {
			t.pool.Put(key, conn)
			return reply, nil
		}
		conn.Close() // discard: one-shot retry over a fresh connection below
	}

	conn, err := t.dial(ctx, ep)
	if err != nil {
		return nil, err
	}
	reply, err := t.roundtrip(ctx, conn, query)
	if err != nil {
		conn.Close()
		return nil, err
	}
	t.pool.Put(key, conn)
	return reply, nil
}

func (t *streamTransport) dial(ctx context.Context, ep *Endpoint) (net.Conn, error) {
	dialer := t.dialer
	if t.tls != nil {
		cfg := t.tls.Clone()
		if cfg.ServerName == "" {
			cfg.ServerName = ep.Host
		}
		dialer = &tlsDialerAdapter{base: t.dialer, config: cfg}
	}

	conn, err := dialer.DialContext(ctx, "tcp", ep.Addr())
	if err != nil {
		kind := wire.KindIO
		if t.tls != nil {
			kind = wire.KindTLS
		}
		return nil, wire.Errorf(kind, "upstream.stream.dial", err)
	}
	return conn, nil
}

func (t *streamTransport) roundtrip(ctx context.Context, conn net.Conn, query *dns.Msg) (*dns.Msg, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	raw, err := wire.Encode(query)
	if err != nil {
		return nil, err
	}
	if len(raw) > math.MaxUint16 {
		return nil, wire.Errorf(wire.KindMalformed, "upstream.stream", io.ErrShortBuffer)
	}
	frame := append([]byte{byte(len(raw) >> 8), byte(len(raw))}, raw...)
	if _, err := conn.Write(frame); err != nil {
		return nil, wire.Errorf(wire.KindIO, "upstream.stream.write", err)
	}

	br := bufio.NewReader(conn)
	header := make([]byte, 2)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, wire.Errorf(wire.KindIO, "upstream.stream.read", err)
	}
	length := int(header[0])<<8 | int(header[1])
	respRaw := make([]byte, length)
	if _, err := io.ReadFull(br, respRaw); err != nil {
		return nil, wire.Errorf(wire.KindIO, "upstream.stream.read", err)
	}

	reply, err := wire.Decode(respRaw)
	if err != nil {
		return nil, err
	}
	if reply.Id != query.Id {
		return nil, wire.Errorf(wire.KindMalformed, "upstream.stream", dns.ErrId)
	}
	return reply, nil
}

// tlsDialerAdapter wraps a NetDialer with a TLS handshake, mirroring what
// [*tls.Dialer] does for [*net.Dialer] but composable over any NetDialer
// (including [*BootstrapDialer]).
type tlsDialerAdapter struct {
	base   NetDialer
	config *tls.Config
}

func (d *tlsDialerAdapter) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	conn, err := d.base.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	tconn := tls.Client(conn, d.config)
	if err := tconn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tconn, nil
}
