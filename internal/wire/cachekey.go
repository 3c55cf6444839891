// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: the teacher's response.go responseEqualASCIIName, the
// one piece of hand-rolled name comparison the teacher needed.

package wire

import (
	"strings"

	"github.com/miekg/dns"
)

// CacheKey identifies a cached answer: the lowercased question name, type,
// and class. Per the specification it is case-normalized at both insertion
// and lookup.
type CacheKey struct {
	Name  string
	Qtype uint16
	Class uint16
}

// CacheKeyOf derives the [CacheKey] for msg's first question. The second
// return value is false when msg has no question or more than one — the
// specification treats only the first question as cacheable and leaves
// multi-question messages to bypass the cache entirely.
func CacheKeyOf(msg *dns.Msg) (CacheKey, bool) {
	if len(msg.Question) != 1 {
		return CacheKey{}, false
	}
	q := msg.Question[0]
	return CacheKey{
		Name:  strings.ToLower(q.Name),
		Qtype: q.Qtype,
		Class: q.Qclass,
	}, true
}

// EqualASCIIName compares two DNS names case-insensitively in ASCII, the
// comparison the specification requires for question names.
func EqualASCIIName(x, y string) bool {
	if len(x) != len(y) {
		return false
	}
	for i := 0; i < len(x); i++ {
		a, b := x[i], y[i]
		if 'A' <= a && a <= 'Z' {
			a += 0x20
		}
		if 'A' <= b && b <= 'Z' {
			b += 0x20
		}
		if a != b {
			return false
		}
	}
	return true
}
