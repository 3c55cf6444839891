// SPDX-License-Identifier: GPL-3.0-or-later

package wire

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
)

func TestMinTTL(t *testing.T) {
	msg := new(dns.Msg)
	msg.Answer = []dns.RR{
		&dns.A{Hdr: dns.RR_Header{Ttl: 300}, A: []byte{1, 1, 1, 1}},
		&dns.A{Hdr: dns.RR_Header{Ttl: 60}, A: []byte{1, 1, 1, 2}},
	}
	ttl, ok := MinTTL(msg)
	assert.True(t, ok)
	assert.Equal(t, uint32(60), ttl)
}

func TestMinTTLNoAnswers(t *testing.T) {
	_, ok := MinTTL(new(dns.Msg))
	assert.False(t, ok)
}

func TestNegativeTTLFromSOA(t *testing.T) {
	msg := new(dns.Msg)
	msg.Ns = []dns.RR{&dns.SOA{Minttl: 1800}}
	assert.Equal(t, uint32(60), NegativeTTL(msg, 60))
}

func TestNegativeTTLFallsBackToMinTTL(t *testing.T) {
	msg := new(dns.Msg)
	msg.Answer = []dns.RR{&dns.A{Hdr: dns.RR_Header{Ttl: 30}}}
	assert.Equal(t, uint32(30), NegativeTTL(msg, 60))
}

func TestAgeAnswersFloors(t *testing.T) {
	msg := new(dns.Msg)
	msg.Answer = []dns.RR{&dns.A{Hdr: dns.RR_Header{Ttl: 10}}}

	expired := AgeAnswers(msg, 5, 1)
	assert.False(t, expired)
	assert.Equal(t, uint32(5), msg.Answer[0].Header().Ttl)

	expired = AgeAnswers(msg, 10, 1)
	assert.True(t, expired)
	assert.Equal(t, uint32(1), msg.Answer[0].Header().Ttl)
}

func TestCacheKeyOfLowercasesAndRequiresOneQuestion(t *testing.T) {
	msg := new(dns.Msg)
	msg.SetQuestion("WWW.Example.COM.", dns.TypeA)
	key, ok := CacheKeyOf(msg)
	assert.True(t, ok)
	assert.Equal(t, "www.example.com.", key.Name)

	msg.Question = append(msg.Question, msg.Question[0])
	_, ok = CacheKeyOf(msg)
	assert.False(t, ok)
}
