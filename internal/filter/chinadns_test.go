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

// fakeGeo classifies addresses against a fixed CIDR as "CN".
type fakeGeo struct {
	cnNet *net.IPNet
}

func (g *fakeGeo) IsCountry(ip net.IP, iso string) bool {
	return iso == "CN" && g.cnNet.Contains(ip)
}

func newFakeGeo(cidr string) *fakeGeo {
	_, n, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(err)
	}
	return &fakeGeo{cnNet: n}
}

func newChinaDNSFixture(t *testing.T, mistrustedIP, trustedIP, cnCIDR string) *chinaDNS {
	t.Helper()
	mistrustedSrv := dnstest.MustNewUDPServer("127.0.0.1:0", dnstest.StaticHandler("example.com", mistrustedIP))
	t.Cleanup(func() { mistrustedSrv.Close() })
	trustedSrv := dnstest.MustNewUDPServer("127.0.0.1:0", dnstest.StaticHandler("example.com", trustedIP))
	t.Cleanup(func() { trustedSrv.Close() })

	mistrustedEp, err := upstream.Parse("udp://" + mistrustedSrv.Address())
	require.NoError(t, err)
	trustedEp, err := upstream.Parse("udp://" + trustedSrv.Address())
	require.NoError(t, err)

	return &chinaDNS{
		client:     upstream.NewClient(&net.Dialer{}, nil),
		mistrusted: []*upstream.Endpoint{mistrustedEp},
		trusted:    []*upstream.Endpoint{trustedEp},
		geo:        newFakeGeo(cnCIDR),
	}
}

// TestChinaDNSPrefersMistrustedWhenNotPoisoned covers spec.md §8 property
// 5's first half: a mistrusted A record inside the CN region wins.
func TestChinaDNSPrefersMistrustedWhenNotPoisoned(t *testing.T) {
	c := newChinaDNSFixture(t, "114.114.114.114", "1.2.4.8", "114.114.114.0/24")

	fctx := &Context{Request: newQuery("example.com", dns.TypeA)}
	require.NoError(t, c.Handle(context.Background(), fctx))
	require.NotNil(t, fctx.Response)
	require.Equal(t, "114.114.114.114", fctx.Response.Answer[0].(*dns.A).A.String())
}

// TestChinaDNSFallsBackToTrustedWhenPoisoned covers the swapped-geo-tags
// half of the same property: a mistrusted A record outside CN is
// considered poisoned, so the trusted reply wins.
func TestChinaDNSFallsBackToTrustedWhenPoisoned(t *testing.T) {
	c := newChinaDNSFixture(t, "203.0.113.9", "114.114.114.114", "114.114.114.0/24")

	fctx := &Context{Request: newQuery("example.com", dns.TypeA)}
	require.NoError(t, c.Handle(context.Background(), fctx))
	require.NotNil(t, fctx.Response)
	require.Equal(t, "114.114.114.114", fctx.Response.Answer[0].(*dns.A).A.String())
}

func TestChinaDNSFallsBackToMistrustedWhenTrustedFails(t *testing.T) {
	mistrustedSrv := dnstest.MustNewUDPServer("127.0.0.1:0", dnstest.StaticHandler("example.com", "203.0.113.9"))
	defer mistrustedSrv.Close()
	mistrustedEp, err := upstream.Parse("udp://" + mistrustedSrv.Address())
	require.NoError(t, err)

	deadTrustedSrv := dnstest.MustNewUDPServer("127.0.0.1:0", func(*dns.Msg) *dns.Msg { return nil })
	defer deadTrustedSrv.Close()
	trustedEp, err := upstream.Parse("udp://" + deadTrustedSrv.Address())
	require.NoError(t, err)

	c := &chinaDNS{
		client:     upstream.NewClient(&net.Dialer{}, nil),
		mistrusted: []*upstream.Endpoint{mistrustedEp},
		trusted:    []*upstream.Endpoint{trustedEp},
		geo:        newFakeGeo("114.114.114.0/24"),
	}

	fctx := &Context{Request: newQuery("example.com", dns.TypeA)}
	require.NoError(t, c.Handle(context.Background(), fctx))
	require.NotNil(t, fctx.Response)
	require.Equal(t, "203.0.113.9", fctx.Response.Answer[0].(*dns.A).A.String())
}
