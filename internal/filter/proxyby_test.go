// SPDX-License-Identifier: GPL-3.0-or-later

package filter

import (
	"context"
	"net"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
	"github.com/zerodns-io/zerodns/internal/dnstest"
	"github.com/zerodns-io/zerodns/internal/upstream"
)

func newQuery(name string, qtype uint16) *dns.Msg {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)
	return msg
}

func TestProxyByReturnsFirstSuccess(t *testing.T) {
	srv := dnstest.MustNewUDPServer("127.0.0.1:0", dnstest.StaticHandler("example.com", "1.2.3.4"))
	defer srv.Close()

	ep, err := upstream.Parse("udp://" + srv.Address())
	require.NoError(t, err)

	p := &proxyBy{client: upstream.NewClient(&net.Dialer{}, nil), endpoints: []*upstream.Endpoint{ep}}
	fctx := &Context{Request: newQuery("example.com", dns.TypeA)}
	require.NoError(t, p.Handle(context.Background(), fctx))
	require.NotNil(t, fctx.Response)
	require.Len(t, fctx.Response.Answer, 1)
}

func TestProxyByServfailOnAllFailed(t *testing.T) {
	srv := dnstest.MustNewUDPServer("127.0.0.1:0", func(*dns.Msg) *dns.Msg { return nil })
	defer srv.Close()

	ep, err := upstream.Parse("udp://" + srv.Address())
	require.NoError(t, err)

	p := &proxyBy{client: upstream.NewClient(&net.Dialer{}, nil), endpoints: []*upstream.Endpoint{ep}}
	fctx := &Context{Request: newQuery("example.com", dns.TypeA)}
	require.NoError(t, p.Handle(context.Background(), fctx))
	require.NotNil(t, fctx.Response)
	require.Equal(t, dns.RcodeServerFailure, fctx.Response.Rcode)
}

func TestProxyByRoundRobinsStartingServer(t *testing.T) {
	p := &proxyBy{endpoints: make([]*upstream.Endpoint, 3)}
	require.Equal(t, []int{0, 1, 2}, p.order())
	require.Equal(t, []int{1, 2, 0}, p.order())
	require.Equal(t, []int{2, 0, 1}, p.order())
}
