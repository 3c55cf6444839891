// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: github.com/miekg/dns's own dns.Server/dns.ResponseWriter
// (the vendored copy in other_examples/ shows its ServeMux/worker-pool
// design), used directly here rather than hand-rolling a UDP/TCP accept
// loop: the library already gives us per-datagram/per-connection
// dispatch, TCP length-prefix framing, and "drop malformed frames, keep
// serving" behavior (spec.md §8 scenario S5) for free.

// Package server implements the specification's C8 Server Frontend: UDP
// and TCP listeners sharing one cache, rule table, and filter set.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/miekg/dns"
	"github.com/zerodns-io/zerodns/internal/cache"
	"github.com/zerodns-io/zerodns/internal/filter"
	"github.com/zerodns-io/zerodns/internal/rules"
	"github.com/zerodns-io/zerodns/internal/wire"
)

// Server binds UDP and TCP listeners on the same address and answers
// every query against a shared cache, rule table, and filter set.
type Server struct {
	cache        *cache.Cache
	rules        *rules.Table
	filters      map[string]filter.Filter
	queryTimeout time.Duration
	logger       *slog.Logger

	udp *dns.Server
	tcp *dns.Server
}

// New builds a [*Server] listening on addr. filters is the name → built
// [filter.Filter] map a rule's chain is resolved against at query time.
func New(addr string, c *cache.Cache, rt *rules.Table, filters map[string]filter.Filter, queryTimeout time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cache:        c,
		rules:        rt,
		filters:      filters,
		queryTimeout: queryTimeout,
		logger:       logger,
	}
	handler := dns.HandlerFunc(s.handleQuery)
	s.udp = &dns.Server{Addr: addr, Net: "udp", Handler: handler}
	s.tcp = &dns.Server{Addr: addr, Net: "tcp", Handler: handler}
	return s
}

// ListenAndServe runs both listeners until one of them stops (on error
// or a call to [Server.Shutdown]), then returns that error.
func (s *Server) ListenAndServe() error {
	errCh := make(chan error, 2)
	go func() { errCh <- s.udp.ListenAndServe() }()
	go func() { errCh <- s.tcp.ListenAndServe() }()

	err := <-errCh
	_ = s.Shutdown(context.Background())
	if second := <-errCh; second != nil && !errors.Is(second, net.ErrClosed) {
		return errors.Join(err, second)
	}
	return err
}

// Shutdown gracefully stops both listeners.
func (s *Server) Shutdown(ctx context.Context) error {
	return errors.Join(s.udp.ShutdownContext(ctx), s.tcp.ShutdownContext(ctx))
}

func (s *Server) handleQuery(w dns.ResponseWriter, req *dns.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	if reply, ok := s.cache.Get(req); ok {
		s.reply(w, reply)
		return
	}

	reply := s.resolve(ctx, w, req)
	s.reply(w, reply)
}

func (s *Server) resolve(ctx context.Context, w dns.ResponseWriter, req *dns.Msg) *dns.Msg {
	if len(req.Question) == 0 {
		return wire.Servfail(req)
	}
	// Only the first question drives rule matching, per spec.md §9. A
	// request with more than one question bypasses the cache
	// (wire.CacheKeyOf rejects it), and its further questions are copied
	// into the filter chain's reply unmodified.
	q := req.Question[0]

	names, ok := s.rules.Match(q.Name)
	if !ok {
		return wire.Servfail(req)
	}

	chain := make(filter.Chain, 0, len(names))
	for _, name := range names {
		f, ok := s.filters[name]
		if !ok {
			s.logger.Error("rule references unknown filter", "filter", name, "name", q.Name)
			return wire.Servfail(req)
		}
		chain = append(chain, f)
	}

	var clientAddr net.Addr
	if w != nil {
		clientAddr = w.RemoteAddr()
	}
	fctx := &filter.Context{Request: req, ClientAddr: clientAddr}

	if err := chain.Run(ctx, fctx); err != nil {
		s.logger.Error("filter chain failed", "error", err, "name", q.Name, "qtype", q.Qtype)
		return wire.Servfail(req)
	}

	reply := fctx.Response
	if reply == nil {
		reply = wire.Servfail(req)
	}
	reply.Id = req.Id
	if len(req.Question) > 1 {
		reply.Question = req.Question
	}

	if !fctx.NoCache {
		s.cache.Put(req, reply)
	}
	return reply
}

// reply writes msg back to w, truncating to 512 octets with TC=1 over
// UDP per spec.md §4.8; TCP framing is handled by [dns.Server] itself.
func (s *Server) reply(w dns.ResponseWriter, msg *dns.Msg) {
	if _, isUDP := w.RemoteAddr().(*net.UDPAddr); isUDP {
		if raw, truncated := wire.Truncate(msg, wire.MaxUDPSize); truncated {
			_, _ = w.Write(raw)
			return
		}
	}
	if err := w.WriteMsg(msg); err != nil {
		s.logger.Error("write reply failed", "error", err)
	}
}
