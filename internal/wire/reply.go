// SPDX-License-Identifier: GPL-3.0-or-later

package wire

import "github.com/miekg/dns"

// Servfail builds a SERVFAIL reply to req, preserving its id, question,
// and the client's RD bit (copied into the reply per the seed scenarios).
func Servfail(req *dns.Msg) *dns.Msg {
	reply := new(dns.Msg)
	reply.SetRcode(req, dns.RcodeServerFailure)
	return reply
}

// CacheableRcode reports whether rcode is one the cache is allowed to
// store an answer under (NOERROR or NXDOMAIN, per the specification).
func CacheableRcode(rcode int) bool {
	return rcode == dns.RcodeSuccess || rcode == dns.RcodeNameError
}
