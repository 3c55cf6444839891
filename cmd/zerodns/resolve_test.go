// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"net"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func TestRdataA(t *testing.T) {
	rr := &dns.A{
		Hdr: dns.RR_Header{Name: "example.com.", Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300},
		A:   net.ParseIP("1.2.3.4").To4(),
	}
	require.Equal(t, "1.2.3.4", rdata(rr))
}

func TestRdataCNAME(t *testing.T) {
	rr := &dns.CNAME{
		Hdr:    dns.RR_Header{Name: "www.example.com.", Rrtype: dns.TypeCNAME, Class: dns.ClassINET, Ttl: 300},
		Target: "example.com.",
	}
	require.Equal(t, "example.com.", rdata(rr))
}

func TestResolveEndpointPrefersExplicitUpstream(t *testing.T) {
	ep, err := resolveEndpoint("udp://9.9.9.9")
	require.NoError(t, err)
	require.Equal(t, "9.9.9.9", ep.Host)
}
