// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: folbricht-routedns's cache.go minTTL walk over the
// answer/authority/additional sections.

package wire

import "github.com/miekg/dns"

// MaxTTL bounds any single TTL value this package will hand back.
const MaxTTL = 7 * 24 * 3600 // one week, a generous upper clamp

// MinTTL returns the smallest TTL among msg's answer records, ignoring
// OPT pseudo-records. The second return value is false if msg has no
// answer records.
func MinTTL(msg *dns.Msg) (uint32, bool) {
	var (
		min   uint32 = ^uint32(0)
		found bool
	)
	for _, rr := range msg.Answer {
		if _, ok := rr.(*dns.OPT); ok {
			continue
		}
		if ttl := rr.Header().Ttl; !found || ttl < min {
			min, found = ttl, true
		}
	}
	if !found {
		return 0, false
	}
	return min, true
}

// SOAMinTTL extracts the MINIMUM field from the first SOA record in msg's
// authority section, used to derive the TTL of a cached NXDOMAIN answer.
func SOAMinTTL(msg *dns.Msg) (uint32, bool) {
	for _, rr := range msg.Ns {
		if soa, ok := rr.(*dns.SOA); ok {
			return soa.Minttl, true
		}
	}
	return 0, false
}

// ClampTTL restricts ttl to [0, max].
func ClampTTL(ttl uint32, max uint32) uint32 {
	if ttl > max {
		return max
	}
	return ttl
}

// NegativeTTL computes the TTL to use for caching a negative (NXDOMAIN)
// response: the SOA minimum if present, else the message's smallest TTL,
// capped at negMaxTTL.
func NegativeTTL(msg *dns.Msg, negMaxTTL uint32) uint32 {
	if ttl, ok := SOAMinTTL(msg); ok {
		return ClampTTL(ttl, negMaxTTL)
	}
	if ttl, ok := MinTTL(msg); ok {
		return ClampTTL(ttl, negMaxTTL)
	}
	return negMaxTTL
}

// AgeAnswers subtracts delta seconds from every RR's TTL across all
// sections, flooring each at floor. It reports whether every answer RR's
// TTL reached the floor (meaning the cached entry should be treated as
// expired).
func AgeAnswers(msg *dns.Msg, delta uint32, floor uint32) (allAtFloor bool) {
	allAtFloor = true
	for _, section := range [][]dns.RR{msg.Answer, msg.Ns, msg.Extra} {
		for _, rr := range section {
			h := rr.Header()
			if _, ok := rr.(*dns.OPT); ok {
				continue
			}
			if h.Ttl > delta {
				h.Ttl -= delta
			} else {
				h.Ttl = floor
			}
			if h.Ttl < floor {
				h.Ttl = floor
			}
		}
	}
	for _, rr := range msg.Answer {
		if rr.Header().Ttl > floor {
			allAtFloor = false
		}
	}
	return allAtFloor
}
