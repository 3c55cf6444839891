// SPDX-License-Identifier: GPL-3.0-or-later

// Package upstream implements the multi-protocol upstream client: parsing
// the `<scheme>://<host>[:port]` upstream URI grammar and exchanging a
// query with a resolver over UDP, TCP, DNS-over-TLS, or DNS-over-HTTPS.
//
// This package is the direct descendant of the teacher's per-transport
// Exchanger types (DNSOverUDPTransport, StreamExchanger, HTTPSExchanger):
// the transports keep their shape (dial, optionally frame, write, read,
// parse) but operate on *dns.Msg directly — since internal/wire already
// owns query/response semantics — and a single [Client] picks the right
// one from the endpoint's scheme instead of the caller wiring up a list
// of exchangers by hand.
package upstream
