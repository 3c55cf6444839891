// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: mos-chinadns's upstream.go fan-out/first-success shape
// (other_examples/) and the teacher's resolver.go sequential-exchanger
// loop, collapsed to round-robin-with-wraparound over a fixed server
// list per spec.md §4.6.

package filter

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/zerodns-io/zerodns/internal/upstream"
	"github.com/zerodns-io/zerodns/internal/wire"
)

type proxyByConfig struct {
	Servers []string
}

// proxyBy forwards the unchanged request to one of its configured
// servers, round-robin with wraparound starting point, returning the
// first successful reply; SERVFAIL if every server fails.
type proxyBy struct {
	client    *upstream.Client
	endpoints []*upstream.Endpoint

	mu   sync.Mutex
	next int
}

func newProxyBy(props toml.Primitive, md toml.MetaData) (Filter, error) {
	var cfg proxyByConfig
	if err := md.PrimitiveDecode(props, &cfg); err != nil {
		return nil, wire.Errorf(wire.KindConfig, "filter.proxyby", err)
	}
	if len(cfg.Servers) == 0 {
		return nil, wire.Errorf(wire.KindConfig, "filter.proxyby", errors.New("proxyby requires at least one server"))
	}

	endpoints := make([]*upstream.Endpoint, len(cfg.Servers))
	for i, s := range cfg.Servers {
		ep, err := upstream.Parse(s)
		if err != nil {
			return nil, err
		}
		endpoints[i] = ep
	}

	dialer := upstream.NewBootstrapDialer(&net.Dialer{})
	return &proxyBy{client: upstream.NewClient(dialer, nil), endpoints: endpoints}, nil
}

func (p *proxyBy) Handle(ctx context.Context, fctx *Context) error {
	for _, idx := range p.order() {
		reply, err := p.client.Query(ctx, p.endpoints[idx], fctx.Request)
		if err != nil {
			continue
		}
		fctx.Response = reply
		return nil
	}
	fctx.Response = wire.Servfail(fctx.Request)
	return nil
}

// order returns server indices starting from the next round-robin
// position, wrapping around so every server gets a turn at being tried
// first over time.
func (p *proxyBy) order() []int {
	n := len(p.endpoints)

	p.mu.Lock()
	start := p.next
	p.next = (p.next + 1) % n
	p.mu.Unlock()

	order := make([]int, n)
	for i := range order {
		order[i] = (start + i) % n
	}
	return order
}
