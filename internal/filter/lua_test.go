// SPDX-License-Identifier: GPL-3.0-or-later

package filter

import (
	"context"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
	"github.com/zerodns-io/zerodns/internal/dnstest"
)

// TestLuaFilterResolveAndAnswer covers spec.md §8 scenario S6: a script
// that resolves against an upstream, calls nocache(), and answers with
// the result.
func TestLuaFilterResolveAndAnswer(t *testing.T) {
	srv := dnstest.MustNewUDPServer("127.0.0.1:0", dnstest.StaticHandler("example.com", "9.9.9.9"))
	defer srv.Close()

	f := &luaFilter{
		timeout: 2 * time.Second,
		script: `
			local msg, err = resolve(request, "udp://` + srv.Address() + `")
			if err then
				error(err)
			end
			nocache()
			answer(msg)
		`,
	}
	f.client = newTestClient()
	f.logger = testLogger()

	fctx := &Context{Request: newQuery("example.com", dns.TypeA)}
	require.NoError(t, f.Handle(context.Background(), fctx))
	require.NotNil(t, fctx.Response)
	require.True(t, fctx.NoCache)
	require.Len(t, fctx.Response.Answer, 1)
}

func TestLuaFilterTimeoutYieldsServfail(t *testing.T) {
	f := &luaFilter{
		timeout: 20 * time.Millisecond,
		script:  `while true do end`,
	}
	f.client = newTestClient()
	f.logger = testLogger()

	fctx := &Context{Request: newQuery("example.com", dns.TypeA)}
	require.NoError(t, f.Handle(context.Background(), fctx))
	require.NotNil(t, fctx.Response)
	require.Equal(t, dns.RcodeServerFailure, fctx.Response.Rcode)
}
