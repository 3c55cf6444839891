// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: the shape of the teacher's (external) dnstest.Handler /
// MustNewUDPServer, rebuilt against internal/wire's dns.Msg-based API.

package dnstest

import (
	"net"
	"sync"

	"github.com/miekg/dns"
)

// Handler answers a decoded query with a reply, or nil to mean "ignore this
// query" (used to test timeout handling).
type Handler func(query *dns.Msg) *dns.Msg

// StaticHandler builds a [Handler] returning a fixed set of A records for
// name, or NXDOMAIN for anything else.
func StaticHandler(name string, ips ...string) Handler {
	fqdn := dns.Fqdn(name)
	return func(query *dns.Msg) *dns.Msg {
		reply := new(dns.Msg)
		reply.SetReply(query)
		if len(query.Question) != 1 || !dnsEqualFold(query.Question[0].Name, fqdn) {
			reply.Rcode = dns.RcodeNameError
			return reply
		}
		for _, ip := range ips {
			reply.Answer = append(reply.Answer, &dns.A{
				Hdr: dns.RR_Header{Name: fqdn, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300},
				A:   net.ParseIP(ip).To4(),
			})
		}
		return reply
	}
}

func dnsEqualFold(a, b string) bool { return dns.CanonicalName(a) == dns.CanonicalName(b) }

// UDPServer is a minimal UDP DNS server used to exercise upstream clients
// in tests.
type UDPServer struct {
	conn    net.PacketConn
	handler Handler

	mu      sync.Mutex
	queries int
}

// MustNewUDPServer starts a [*UDPServer] on addr (use "127.0.0.1:0" for an
// ephemeral port) and panics on failure, mirroring test-helper conventions
// used throughout the pack.
func MustNewUDPServer(addr string, handler Handler) *UDPServer {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		panic(err)
	}
	s := &UDPServer{conn: conn, handler: handler}
	go s.serve()
	return s
}

func (s *UDPServer) serve() {
	buf := make([]byte, dns.MaxMsgSize)
	for {
		n, peer, err := s.conn.ReadFrom(buf)
		if err != nil {
			return
		}
		query := new(dns.Msg)
		if err := query.Unpack(buf[:n]); err != nil {
			continue
		}
		s.mu.Lock()
		s.queries++
		s.mu.Unlock()

		reply := s.handler(query)
		if reply == nil {
			continue // simulate a silent/unreachable upstream
		}
		raw, err := reply.Pack()
		if err != nil {
			continue
		}
		_, _ = s.conn.WriteTo(raw, peer)
	}
}

// Address returns the server's listen address.
func (s *UDPServer) Address() string { return s.conn.LocalAddr().String() }

// Queries returns the number of queries received so far.
func (s *UDPServer) Queries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries
}

// Close shuts the server down.
func (s *UDPServer) Close() error { return s.conn.Close() }

// Port returns the numeric port the server is listening on.
func (s *UDPServer) Port() string {
	_, port, _ := net.SplitHostPort(s.Address())
	return port
}
