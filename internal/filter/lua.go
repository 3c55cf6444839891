// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: the specification's §4.6 lua filter contract and §9's
// "prefer per-query isolates to avoid global mutable interpreter state";
// github.com/yuin/gopher-lua is the embedding library the retrieval
// pack's closest scripted-DNS sibling, tternquist-beyond-ads-dns, carries
// in its go.mod (other_examples/manifests/).

package filter

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/miekg/dns"
	lua "github.com/yuin/gopher-lua"
	"github.com/zerodns-io/zerodns/internal/upstream"
	"github.com/zerodns-io/zerodns/internal/wire"
)

type luaConfig struct {
	Script  string
	Timeout string
}

// luaFilter runs a user-supplied Lua script against a fresh *lua.LState
// per query. The script's source text is stored once at construction and
// compiled afresh in each query's VM; execution state is never shared
// across queries.
type luaFilter struct {
	script  string
	timeout time.Duration
	client  *upstream.Client
	logger  *slog.Logger
}

func newLua(props toml.Primitive, md toml.MetaData) (Filter, error) {
	var cfg luaConfig
	if err := md.PrimitiveDecode(props, &cfg); err != nil {
		return nil, wire.Errorf(wire.KindConfig, "filter.lua", err)
	}
	if cfg.Script == "" {
		return nil, wire.Errorf(wire.KindConfig, "filter.lua", errEmptyScript)
	}

	timeout := 2 * time.Second
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, wire.Errorf(wire.KindConfig, "filter.lua", err)
		}
		timeout = d
	}

	dialer := upstream.NewBootstrapDialer(&net.Dialer{})
	return &luaFilter{
		script:  cfg.Script,
		timeout: timeout,
		client:  upstream.NewClient(dialer, nil),
		logger:  slog.Default().With("filter", "lua"),
	}, nil
}

var errEmptyScript = errors.New("lua filter requires a non-empty script")

// Handle runs the script in a fresh VM bound to fctx, with a wall-clock
// deadline per the specification. A script that errors or exceeds its
// deadline yields SERVFAIL without surfacing the error to the chain.
func (f *luaFilter) Handle(ctx context.Context, fctx *Context) error {
	L := lua.NewState()
	defer L.Close()

	deadline := time.Now().Add(f.timeout)
	lctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()
	L.SetContext(lctx)

	f.registerPrimitives(L, lctx, fctx)

	if err := L.DoString(f.script); err != nil {
		f.logger.Error("script failed", "error", err)
		fctx.Response = wire.Servfail(fctx.Request)
		return nil
	}
	return nil
}

func (f *luaFilter) registerPrimitives(L *lua.LState, lctx context.Context, fctx *Context) {
	reqTable := L.NewTable()
	if len(fctx.Request.Question) > 0 {
		q := fctx.Request.Question[0]
		reqTable.RawSetString("name", lua.LString(q.Name))
		reqTable.RawSetString("qtype", lua.LNumber(q.Qtype))
		reqTable.RawSetString("qclass", lua.LNumber(q.Qclass))
	}
	reqTable.RawSetString("id", lua.LNumber(fctx.Request.Id))
	L.SetGlobal("request", reqTable)

	L.SetGlobal("resolve", L.NewFunction(func(L *lua.LState) int {
		L.CheckTable(1) // the request object, per the resolve(request, upstream) signature
		uri := L.CheckString(2)
		ep, err := upstream.Parse(uri)
		if err != nil {
			L.Push(lua.LNil)
			L.Push(lua.LString(err.Error()))
			return 2
		}
		reply, err := f.client.Query(lctx, ep, fctx.Request)
		if err != nil {
			L.Push(lua.LNil)
			L.Push(lua.LString(err.Error()))
			return 2
		}
		ud := L.NewUserData()
		ud.Value = reply
		L.Push(ud)
		L.Push(lua.LNil)
		return 2
	}))

	L.SetGlobal("answer", L.NewFunction(func(L *lua.LState) int {
		ud := L.CheckUserData(1)
		msg, ok := ud.Value.(*dns.Msg)
		if !ok {
			L.ArgError(1, "dns message expected")
			return 0
		}
		fctx.Response = msg
		return 0
	}))

	L.SetGlobal("nocache", L.NewFunction(func(L *lua.LState) int {
		fctx.NoCache = true
		return 0
	}))

	logTable := L.NewTable()
	for _, level := range []struct {
		name string
		log  func(string, ...any)
	}{
		{"debug", f.logger.Debug},
		{"info", f.logger.Info},
		{"warn", f.logger.Warn},
		{"error", f.logger.Error},
	} {
		fn := level.log
		L.SetField(logTable, level.name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1))
			return 0
		}))
	}
	L.SetGlobal("log", logTable)
}
