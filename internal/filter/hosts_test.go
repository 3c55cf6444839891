// SPDX-License-Identifier: GPL-3.0-or-later

package filter

import (
	"context"
	"net"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func TestHostsFilterAnswersExactMatch(t *testing.T) {
	h := &hostsFilter{
		ttl:    300,
		byName: map[string][]net.IP{"localhost.": {net.ParseIP("127.0.0.1")}},
	}
	fctx := &Context{Request: newQuery("localhost", dns.TypeA)}
	require.NoError(t, h.Handle(context.Background(), fctx))
	require.NotNil(t, fctx.Response)
	require.Len(t, fctx.Response.Answer, 1)
	a := fctx.Response.Answer[0].(*dns.A)
	require.Equal(t, "127.0.0.1", a.A.String())
	require.Equal(t, uint32(300), a.Hdr.Ttl)
	require.False(t, fctx.Response.Authoritative)
}

func TestHostsFilterIsCaseInsensitive(t *testing.T) {
	h := &hostsFilter{
		ttl:    300,
		byName: map[string][]net.IP{"localhost.": {net.ParseIP("127.0.0.1")}},
	}
	fctx := &Context{Request: newQuery("LocalHost", dns.TypeA)}
	require.NoError(t, h.Handle(context.Background(), fctx))
	require.NotNil(t, fctx.Response)
}

func TestHostsFilterPassesThroughOnMiss(t *testing.T) {
	h := &hostsFilter{ttl: 300, byName: map[string][]net.IP{}}
	fctx := &Context{Request: newQuery("example.com", dns.TypeA)}
	require.NoError(t, h.Handle(context.Background(), fctx))
	require.Nil(t, fctx.Response)
}

func TestHostsFilterPassesThroughOnTypeMismatch(t *testing.T) {
	h := &hostsFilter{
		ttl:    300,
		byName: map[string][]net.IP{"localhost.": {net.ParseIP("127.0.0.1")}},
	}
	fctx := &Context{Request: newQuery("localhost", dns.TypeAAAA)}
	require.NoError(t, h.Handle(context.Background(), fctx))
	require.Nil(t, fctx.Response)
}
