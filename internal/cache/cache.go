// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: folbricht-routedns's cache backend shape (other_examples/
// cmd/routedns/config.go's cacheBackend options) for the TTL/RCODE
// eviction rules, backed by github.com/hashicorp/golang-lru/v2 for the
// bounded-LRU mechanics rather than a hand-rolled map+list.

// Package cache implements the answer cache of the specification's C4
// component: an LRU of decoded replies keyed by [wire.CacheKey], with
// TTL-aware insertion and aging-on-lookup.
package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/miekg/dns"
	"github.com/zerodns-io/zerodns/internal/wire"
)

// entry is what the LRU actually stores: a frozen reply, the time it was
// inserted, and the absolute time it stops being servable as-is.
type entry struct {
	msg        *dns.Msg
	insertedAt time.Time
	expiresAt  time.Time
}

// Cache is a TTL-aware LRU of DNS replies.
//
// Construct with [New]. The zero value is not usable.
type Cache struct {
	mu        sync.Mutex
	lru       *lru.Cache[wire.CacheKey, entry]
	negMaxTTL uint32
}

// New builds a [*Cache] holding up to size entries, with negative
// (NXDOMAIN) answers capped at negMaxTTL seconds regardless of what the
// upstream's SOA record says.
func New(size int, negMaxTTL uint32) (*Cache, error) {
	l, err := lru.New[wire.CacheKey, entry](size)
	if err != nil {
		return nil, wire.Errorf(wire.KindConfig, "cache.New", err)
	}
	return &Cache{lru: l, negMaxTTL: negMaxTTL}, nil
}

// Get looks up req's question in the cache. On a hit it returns a reply
// with req's original id and all answer/authority/additional TTLs aged down by the
// time elapsed since insertion, and reports ok=true. A reply whose
// remaining TTL has reached zero is evicted and reported as a miss.
func (c *Cache) Get(req *dns.Msg) (reply *dns.Msg, ok bool) {
	key, ok := wire.CacheKeyOf(req)
	if !ok {
		return nil, false
	}

	c.mu.Lock()
	e, found := c.lru.Get(key)
	c.mu.Unlock()
	if !found {
		return nil, false
	}

	remaining := time.Until(e.expiresAt)
	if remaining <= 0 {
		c.mu.Lock()
		c.lru.Remove(key)
		c.mu.Unlock()
		return nil, false
	}

	out := e.msg.Copy()
	out.Id = req.Id
	delta := uint32(time.Since(e.insertedAt).Seconds())
	wire.AgeAnswers(out, delta, 1)
	return out, true
}

// Put inserts reply under req's question, per the specification's
// insertion rules: truncated replies, replies to requests whose question
// count isn't exactly one, and RCODEs other than NOERROR/NXDOMAIN are never
// cached.
func (c *Cache) Put(req, reply *dns.Msg) {
	if reply.Truncated || !wire.CacheableRcode(reply.Rcode) {
		return
	}
	key, ok := wire.CacheKeyOf(req)
	if !ok {
		return
	}

	var ttl uint32
	if reply.Rcode == dns.RcodeNameError {
		ttl = wire.NegativeTTL(reply, c.negMaxTTL)
	} else {
		minTTL, hasAnswers := wire.MinTTL(reply)
		if !hasAnswers {
			return
		}
		ttl = wire.ClampTTL(minTTL, wire.MaxTTL)
	}
	if ttl == 0 {
		return
	}

	now := time.Now()
	c.mu.Lock()
	c.lru.Add(key, entry{msg: reply.Copy(), insertedAt: now, expiresAt: now.Add(time.Duration(ttl) * time.Second)})
	c.mu.Unlock()
}

// Len reports the number of entries currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Purge empties the cache.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}
