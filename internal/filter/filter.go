// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: the specification's §4.5 capability-set/registry design,
// wired to github.com/BurntSushi/toml's toml.Primitive deferred-decode
// facility the way folbricht-routedns's cmd/routedns/config.go decodes
// per-kind resolver structs (other_examples/) — each concrete filter
// owns decoding of its own props shape instead of one giant config
// struct knowing about every kind.

// Package filter implements the filter runtime (C5) and the built-in
// filters (C6) of the specification: proxyby, hosts, lua, and chinadns.
package filter

import (
	"context"
	"net"

	"github.com/BurntSushi/toml"
	"github.com/miekg/dns"
	"github.com/zerodns-io/zerodns/internal/wire"
)

// Context is the per-query mutable record the specification's §3 data
// model names: filters read Request, and may set Response and/or
// NoCache before yielding to the next filter in the chain.
type Context struct {
	Request    *dns.Msg
	Response   *dns.Msg
	NoCache    bool
	ClientAddr net.Addr
}

// Filter is the capability every concrete filter implements: given a
// Context, it may set Response/NoCache. Filters are stateless across
// queries except for resources they own (connection pools, script VMs).
type Filter interface {
	Handle(ctx context.Context, fctx *Context) error
}

// Chain runs a named list of filters in order, stopping as soon as one
// sets fctx.Response.
type Chain []Filter

// Run executes the chain. If no filter in the chain sets fctx.Response,
// the caller (the server frontend) answers SERVFAIL, per the
// specification's §4.5 contract.
func (c Chain) Run(ctx context.Context, fctx *Context) error {
	for _, f := range c {
		if err := f.Handle(ctx, fctx); err != nil {
			return err
		}
		if fctx.Response != nil {
			return nil
		}
	}
	return nil
}

// Constructor builds a [Filter] from its kind-specific `props` table.
// md is the surrounding [toml.MetaData], needed to decode props (a
// [toml.Primitive]) into the kind's own struct.
type Constructor func(props toml.Primitive, md toml.MetaData) (Filter, error)

// Registry maps a filter's `kind` string to the [Constructor] that
// builds it. The four built-in kinds are registered by
// [NewDefaultRegistry]; callers may register additional kinds with
// [Registry.Register].
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry builds an empty [*Registry].
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// NewDefaultRegistry builds a [*Registry] with the four built-in filter
// kinds the specification names: proxyby, hosts, lua, chinadns.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("proxyby", newProxyBy)
	r.Register("hosts", newHosts)
	r.Register("lua", newLua)
	r.Register("chinadns", newChinaDNS)
	return r
}

// Register adds or replaces the constructor for kind.
func (r *Registry) Register(kind string, ctor Constructor) {
	r.constructors[kind] = ctor
}

// Build constructs the filter named kind from props/md.
func (r *Registry) Build(kind string, props toml.Primitive, md toml.MetaData) (Filter, error) {
	ctor, ok := r.constructors[kind]
	if !ok {
		return nil, wire.Errorf(wire.KindConfig, "filter.Registry.Build",
			&unknownKindError{kind: kind})
	}
	return ctor(props, md)
}

type unknownKindError struct{ kind string }

func (e *unknownKindError) Error() string { return "unknown filter kind " + e.kind }
