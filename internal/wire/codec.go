// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: the teacher's dnsoverudp.go/stream.go Pack/Unpack calls,
// generalized into a standalone decode/encode step with our own
// malformed-message classification.

package wire

import (
	"fmt"

	"github.com/miekg/dns"
)

// MaxUDPSize is the maximum reply size before truncation applies.
const MaxUDPSize = 512

// Decode parses raw wire bytes into a [*dns.Msg], classifying any failure
// as [KindMalformed] per the specification's decode-failure rule: truncated
// input, pointer loops and reserved label bits surface through
// [*dns.Msg.Unpack]; header section counts that disagree with the records
// actually decoded are checked here, since Unpack tolerates them. All are
// folded into one taxonomy entry rather than distinguished further, since
// none of them are recoverable.
func Decode(raw []byte) (*dns.Msg, error) {
	msg := new(dns.Msg)
	if err := msg.Unpack(raw); err != nil {
		return nil, Errorf(KindMalformed, "wire.Decode", err)
	}
	// A successful Unpack implies the full 12-octet header is present.
	decoded := [4]int{len(msg.Question), len(msg.Answer), len(msg.Ns), len(msg.Extra)}
	for i, n := range decoded {
		if declared := int(raw[4+2*i])<<8 | int(raw[5+2*i]); declared != n {
			return nil, Errorf(KindMalformed, "wire.Decode",
				fmt.Errorf("section %d declares %d records, %d present", i, declared, n))
		}
	}
	return msg, nil
}

// Encode serializes a message to wire bytes.
func Encode(msg *dns.Msg) ([]byte, error) {
	raw, err := msg.Pack()
	if err != nil {
		return nil, Errorf(KindMalformed, "wire.Encode", err)
	}
	return raw, nil
}

// Truncate encodes msg, and if the result exceeds maxSize, re-encodes a
// truncated copy (TC bit set, answer/authority/additional sections
// dropped) clipped to maxSize. The second return value reports whether
// truncation occurred.
//
// This is the client-facing UDP truncation rule from the specification:
// replies over 512 octets get TC=1 and are capped at 512 octets so the
// client re-queries over TCP.
func Truncate(msg *dns.Msg, maxSize int) ([]byte, bool) {
	raw, err := msg.Pack()
	if err == nil && len(raw) <= maxSize {
		return raw, false
	}

	short := msg.Copy()
	short.Truncated = true
	short.Answer = nil
	short.Ns = nil
	short.Extra = nil
	raw, err = short.Pack()
	if err != nil || len(raw) > maxSize {
		// Even the bare header didn't fit or failed to pack; this should
		// not happen in practice, but never hand back more than maxSize.
		raw = raw[:min(len(raw), maxSize)]
	}
	return raw, true
}
