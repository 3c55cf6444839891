// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: mos-chinadns's upstream.go concurrent-exchange/first-
// arrival shape (other_examples/) for the fan-out and tie-break, and
// spec.md §4.6's arbitration algorithm for the poisoned-reply decision
// and side-fallback rules.

package filter

import (
	"context"
	"errors"
	"net"

	"github.com/BurntSushi/toml"
	"github.com/miekg/dns"
	"github.com/zerodns-io/zerodns/internal/geoip"
	"github.com/zerodns-io/zerodns/internal/upstream"
	"github.com/zerodns-io/zerodns/internal/wire"
)

type chinaDNSConfig struct {
	Trusted       []string
	Mistrusted    []string
	GeoIPDatabase string `toml:"geoip_database"`
}

// countryLookup is the slice of [*geoip.DB] this filter needs; narrowed
// to an interface so tests can substitute a fixture without a real
// MaxMind database file.
type countryLookup interface {
	IsCountry(ip net.IP, iso string) bool
}

// chinaDNS is the central arbitration filter of the specification: it
// races a mistrusted pool (assumed fast, potentially poisoned) against a
// trusted pool (assumed slower, geographically honest), picking the
// mistrusted reply unless it looks poisoned.
type chinaDNS struct {
	client     *upstream.Client
	trusted    []*upstream.Endpoint
	mistrusted []*upstream.Endpoint
	geo        countryLookup
}

func newChinaDNS(props toml.Primitive, md toml.MetaData) (Filter, error) {
	var cfg chinaDNSConfig
	if err := md.PrimitiveDecode(props, &cfg); err != nil {
		return nil, wire.Errorf(wire.KindConfig, "filter.chinadns", err)
	}
	if len(cfg.Trusted) == 0 || len(cfg.Mistrusted) == 0 {
		return nil, wire.Errorf(wire.KindConfig, "filter.chinadns",
			errors.New("chinadns requires at least one trusted and one mistrusted server"))
	}

	trusted, err := parseEndpoints(cfg.Trusted)
	if err != nil {
		return nil, err
	}
	mistrusted, err := parseEndpoints(cfg.Mistrusted)
	if err != nil {
		return nil, err
	}

	geo, err := geoip.Load(cfg.GeoIPDatabase)
	if err != nil {
		return nil, err
	}

	dialer := upstream.NewBootstrapDialer(&net.Dialer{})
	return &chinaDNS{
		client:     upstream.NewClient(dialer, nil),
		trusted:    trusted,
		mistrusted: mistrusted,
		geo:        geo,
	}, nil
}

func parseEndpoints(uris []string) ([]*upstream.Endpoint, error) {
	endpoints := make([]*upstream.Endpoint, len(uris))
	for i, uri := range uris {
		ep, err := upstream.Parse(uri)
		if err != nil {
			return nil, err
		}
		endpoints[i] = ep
	}
	return endpoints, nil
}

type queryResult struct {
	msg *dns.Msg
	err error
}

// fanOut queries every endpoint concurrently, each result landing on the
// returned channel as it arrives (or the shared ctx is cancelled).
func (c *chinaDNS) fanOut(ctx context.Context, endpoints []*upstream.Endpoint, req *dns.Msg) <-chan queryResult {
	ch := make(chan queryResult, len(endpoints))
	for _, ep := range endpoints {
		ep := ep
		go func() {
			reply, err := c.client.Query(ctx, ep, req)
			select {
			case ch <- queryResult{msg: reply, err: err}:
			case <-ctx.Done():
			}
		}()
	}
	return ch
}

// firstSuccess reads up to n results from ch in arrival order — the
// tie-break the specification calls for among replies from the same
// pool — returning the first success, or the last-seen error if every
// attempt failed.
func firstSuccess(ch <-chan queryResult, n int) (*dns.Msg, error) {
	var lastErr error
	for i := 0; i < n; i++ {
		res := <-ch
		if res.err == nil {
			return res.msg, nil
		}
		lastErr = res.err
	}
	if lastErr == nil {
		lastErr = errors.New("no upstream configured")
	}
	return nil, lastErr
}

func (c *chinaDNS) Handle(ctx context.Context, fctx *Context) error {
	mistrustedCtx, cancelMistrusted := context.WithCancel(ctx)
	defer cancelMistrusted()
	trustedCtx, cancelTrusted := context.WithCancel(ctx)
	defer cancelTrusted()

	mistrustedCh := c.fanOut(mistrustedCtx, c.mistrusted, fctx.Request)
	trustedCh := c.fanOut(trustedCtx, c.trusted, fctx.Request)

	mistrustedReply, mistrustedErr := firstSuccess(mistrustedCh, len(c.mistrusted))
	if mistrustedErr == nil && !c.isPoisoned(mistrustedReply) {
		cancelTrusted()
		fctx.Response = mistrustedReply
		return nil
	}

	trustedReply, trustedErr := firstSuccess(trustedCh, len(c.trusted))
	cancelMistrusted()
	if trustedErr == nil {
		fctx.Response = trustedReply
		return nil
	}

	// The trusted side also failed (or timed out): fall back to the
	// mistrusted reply if we have one, poisoned or not — it's the only
	// answer available.
	if mistrustedErr == nil {
		fctx.Response = mistrustedReply
		return nil
	}

	fctx.Response = wire.Servfail(fctx.Request)
	return nil
}

// isPoisoned reports whether reply contains any A record whose address
// is not in the CN region, per the specification's decision rule.
// Replies with no A records (AAAA/MX/CNAME-only) are never poisoned.
func (c *chinaDNS) isPoisoned(reply *dns.Msg) bool {
	for _, rr := range reply.Answer {
		a, ok := rr.(*dns.A)
		if !ok {
			continue
		}
		if !c.geo.IsCountry(a.A, "CN") {
			return true
		}
	}
	return false
}
