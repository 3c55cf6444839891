// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: spec.md §4.6's hosts filter contract; the case-insensitive
// exact-match lookup mirrors internal/wire.CacheKeyOf's lowercasing rule
// rather than introducing a second name-normalization scheme.

package filter

import (
	"context"
	"net"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/miekg/dns"
	"github.com/zerodns-io/zerodns/internal/wire"
)

const defaultHostsTTL = 300

type hostsConfig struct {
	TTL   uint32
	Hosts map[string]string // ip -> hostname, per the specification's §6 config shape
}

// hostsFilter answers A/AAAA queries from a static, case-insensitive
// hostname table; anything else passes through unmodified.
type hostsFilter struct {
	ttl    uint32
	byName map[string][]net.IP
}

func newHosts(props toml.Primitive, md toml.MetaData) (Filter, error) {
	var cfg hostsConfig
	if err := md.PrimitiveDecode(props, &cfg); err != nil {
		return nil, wire.Errorf(wire.KindConfig, "filter.hosts", err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultHostsTTL
	}

	byName := make(map[string][]net.IP, len(cfg.Hosts))
	for ipStr, host := range cfg.Hosts {
		ip := net.ParseIP(ipStr)
		if ip == nil {
			return nil, wire.Errorf(wire.KindConfig, "filter.hosts", invalidHostsIPError{ip: ipStr})
		}
		fqdn := strings.ToLower(dns.Fqdn(host))
		byName[fqdn] = append(byName[fqdn], ip)
	}
	return &hostsFilter{ttl: ttl, byName: byName}, nil
}

type invalidHostsIPError struct{ ip string }

func (e invalidHostsIPError) Error() string { return "invalid hosts IP address " + e.ip }

func (h *hostsFilter) Handle(_ context.Context, fctx *Context) error {
	if len(fctx.Request.Question) == 0 {
		return nil
	}
	q := fctx.Request.Question[0]
	ips, ok := h.byName[strings.ToLower(q.Name)]
	if !ok {
		return nil
	}

	var answers []dns.RR
	for _, ip := range ips {
		switch {
		case q.Qtype == dns.TypeA && ip.To4() != nil:
			answers = append(answers, &dns.A{
				Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: h.ttl},
				A:   ip.To4(),
			})
		case q.Qtype == dns.TypeAAAA && ip.To4() == nil:
			answers = append(answers, &dns.AAAA{
				Hdr:  dns.RR_Header{Name: q.Name, Rrtype: dns.TypeAAAA, Class: dns.ClassINET, Ttl: h.ttl},
				AAAA: ip.To16(),
			})
		}
	}
	if len(answers) == 0 {
		return nil
	}

	reply := new(dns.Msg)
	reply.SetReply(fctx.Request)
	reply.Authoritative = false
	reply.Answer = answers
	fctx.Response = reply
	return nil
}
