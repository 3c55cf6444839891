// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
	"github.com/zerodns-io/zerodns/internal/wire"
)

func aMsg(name string, ttl uint32, ip string) (*dns.Msg, *dns.Msg) {
	req := new(dns.Msg)
	req.SetQuestion(dns.Fqdn(name), dns.TypeA)

	reply := new(dns.Msg)
	reply.SetReply(req)
	reply.Answer = append(reply.Answer, &dns.A{
		Hdr: dns.RR_Header{Name: dns.Fqdn(name), Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: ttl},
		A:   net.ParseIP(ip).To4(),
	})
	return req, reply
}

func TestCachePutGetHit(t *testing.T) {
	c, err := New(16, 60)
	require.NoError(t, err)

	req, reply := aMsg("example.com", 300, "1.2.3.4")
	c.Put(req, reply)

	out, ok := c.Get(req)
	require.True(t, ok)
	require.Equal(t, req.Id, out.Id)
	require.Len(t, out.Answer, 1)
	require.LessOrEqual(t, out.Answer[0].Header().Ttl, uint32(300))
}

func TestCacheMissOnUncached(t *testing.T) {
	c, err := New(16, 60)
	require.NoError(t, err)

	req := new(dns.Msg)
	req.SetQuestion(dns.Fqdn("never-put.example.com"), dns.TypeA)
	_, ok := c.Get(req)
	require.False(t, ok)
}

func TestCacheSkipsTruncatedReplies(t *testing.T) {
	c, err := New(16, 60)
	require.NoError(t, err)

	req, reply := aMsg("example.com", 300, "1.2.3.4")
	reply.Truncated = true
	c.Put(req, reply)

	_, ok := c.Get(req)
	require.False(t, ok)
}

func TestCacheSkipsNonCacheableRcode(t *testing.T) {
	c, err := New(16, 60)
	require.NoError(t, err)

	req, reply := aMsg("example.com", 300, "1.2.3.4")
	reply.Rcode = dns.RcodeServerFailure
	c.Put(req, reply)

	_, ok := c.Get(req)
	require.False(t, ok)
}

func TestCacheSkipsMultiQuestionMessages(t *testing.T) {
	c, err := New(16, 60)
	require.NoError(t, err)

	req, reply := aMsg("example.com", 300, "1.2.3.4")
	req.Question = append(req.Question, req.Question[0])
	c.Put(req, reply)
	require.Equal(t, 0, c.Len())
}

func TestCacheNegativeTTLFromSOACappedByNegMaxTTL(t *testing.T) {
	c, err := New(16, 10)
	require.NoError(t, err)

	req := new(dns.Msg)
	req.SetQuestion(dns.Fqdn("nx.example.com"), dns.TypeA)
	reply := new(dns.Msg)
	reply.SetRcode(req, dns.RcodeNameError)
	reply.Ns = append(reply.Ns, &dns.SOA{
		Hdr:     dns.RR_Header{Name: dns.Fqdn("example.com"), Rrtype: dns.TypeSOA, Class: dns.ClassINET, Ttl: 3600},
		Minttl:  3600,
		Ns:      "ns1.example.com.",
		Mbox:    "hostmaster.example.com.",
		Serial:  1,
		Refresh: 1, Retry: 1, Expire: 1,
	})
	c.Put(req, reply)

	out, ok := c.Get(req)
	require.True(t, ok)
	require.Equal(t, dns.RcodeNameError, out.Rcode)

	key, _ := wire.CacheKeyOf(req)
	e, found := c.lru.Peek(key)
	require.True(t, found)
	require.LessOrEqual(t, time.Until(e.expiresAt), 10*time.Second, "negative TTL must be capped at negMaxTTL, not the SOA's 3600s")
}

func TestCacheExpiresEntries(t *testing.T) {
	c, err := New(16, 60)
	require.NoError(t, err)

	req, reply := aMsg("example.com", 1, "1.2.3.4")
	c.Put(req, reply)
	time.Sleep(1100 * time.Millisecond)

	_, ok := c.Get(req)
	require.False(t, ok, "entry past its TTL must be evicted as a miss")
}

func TestCacheIsCaseInsensitive(t *testing.T) {
	c, err := New(16, 60)
	require.NoError(t, err)

	req, reply := aMsg("Example.COM", 300, "1.2.3.4")
	c.Put(req, reply)

	lookup := new(dns.Msg)
	lookup.SetQuestion("eXaMpLe.CoM.", dns.TypeA)
	_, ok := c.Get(lookup)
	require.True(t, ok)
}
