// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: the same shape as UDPServer in server.go, framed with the
// 2-octet length prefix RFC 1035 mandates for DNS-over-TCP (and reused
// as-is for DoT once wrapped in TLS by the caller).

package dnstest

import (
	"bufio"
	"io"
	"net"
	"sync"

	"github.com/miekg/dns"
)

// TCPServer is a minimal length-prefixed DNS server used to exercise the
// stream and DoT transports in tests.
type TCPServer struct {
	ln      net.Listener
	handler Handler

	mu      sync.Mutex
	queries int
}

// MustNewTCPServer starts a [*TCPServer] on addr and panics on failure.
func MustNewTCPServer(addr string, handler Handler) *TCPServer {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		panic(err)
	}
	s := &TCPServer{ln: ln, handler: handler}
	go s.serve()
	return s
}

func (s *TCPServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *TCPServer) handleConn(conn net.Conn) {
	defer conn.Close()
	br := bufio.NewReader(conn)
	for {
		header := make([]byte, 2)
		if _, err := io.ReadFull(br, header); err != nil {
			return
		}
		length := int(header[0])<<8 | int(header[1])
		raw := make([]byte, length)
		if _, err := io.ReadFull(br, raw); err != nil {
			return
		}

		query := new(dns.Msg)
		if err := query.Unpack(raw); err != nil {
			return
		}
		s.mu.Lock()
		s.queries++
		s.mu.Unlock()

		reply := s.handler(query)
		if reply == nil {
			return // simulate a silent/unreachable upstream by hanging up
		}
		respRaw, err := reply.Pack()
		if err != nil {
			return
		}
		frame := append([]byte{byte(len(respRaw) >> 8), byte(len(respRaw))}, respRaw...)
		if _, err := conn.Write(frame); err != nil {
			return
		}
	}
}

// Address returns the server's listen address.
func (s *TCPServer) Address() string { return s.ln.Addr().String() }

// Queries returns the number of queries received so far.
func (s *TCPServer) Queries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries
}

// Close shuts the server down.
func (s *TCPServer) Close() error { return s.ln.Close() }
