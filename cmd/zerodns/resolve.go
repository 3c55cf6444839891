// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: spec.md §6's "dig-style client renderer" grounded against
// internal/upstream directly (no server round-trip) with
// internal/config.ReadResolvConf supplying the default nameserver list,
// per spec.md §6's "resolv.conf is consulted when no upstream is given".

package main

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/spf13/cobra"
	"github.com/zerodns-io/zerodns/internal/config"
	"github.com/zerodns-io/zerodns/internal/upstream"
	"github.com/zerodns-io/zerodns/internal/wire"
)

const (
	defaultResolvConfPath = "/etc/resolv.conf"
	resolveTimeout        = 5 * time.Second
)

func newResolveCmd() *cobra.Command {
	var (
		upstreamURI string
		qtypeName   string
		short       bool
	)
	cmd := &cobra.Command{
		Use:   "resolve <name>",
		Short: "Perform one query against an upstream and print the answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return resolveOne(args[0], upstreamURI, qtypeName, short)
		},
	}
	cmd.Flags().StringVarP(&upstreamURI, "server", "s", "", "upstream URI, e.g. udp://1.1.1.1 or doh://dns.google (default: resolv.conf)")
	cmd.Flags().StringVarP(&qtypeName, "type", "t", "A", "query type")
	cmd.Flags().BoolVar(&short, "short", false, "print only the answer rdata, one per line")
	return cmd
}

func resolveOne(name, upstreamURI, qtypeName string, short bool) error {
	qtype, ok := dns.StringToType[strings.ToUpper(qtypeName)]
	if !ok {
		return wire.Errorf(wire.KindConfig, "cmd.resolve", fmt.Errorf("unknown query type %q", qtypeName))
	}

	ep, err := resolveEndpoint(upstreamURI)
	if err != nil {
		return err
	}

	req := new(dns.Msg)
	req.SetQuestion(dns.Fqdn(name), qtype)
	req.RecursionDesired = true

	client := upstream.NewClient(&net.Dialer{Timeout: resolveTimeout}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	reply, err := client.Query(ctx, ep, req)
	if err != nil {
		return wire.Errorf(wire.KindUpstream, "cmd.resolve", err)
	}

	printReply(reply, short)
	return nil
}

// resolveEndpoint picks the -s upstream if given, else the first
// resolv.conf nameserver, per spec.md §6.
func resolveEndpoint(upstreamURI string) (*upstream.Endpoint, error) {
	if upstreamURI != "" {
		return upstream.Parse(upstreamURI)
	}
	servers, err := config.ReadResolvConf(defaultResolvConfPath)
	if err != nil {
		return nil, err
	}
	if len(servers) == 0 {
		return nil, wire.Errorf(wire.KindConfig, "cmd.resolve",
			fmt.Errorf("no nameserver entries in %s and no -s given", defaultResolvConfPath))
	}
	return upstream.Parse(servers[0])
}

func printReply(reply *dns.Msg, short bool) {
	if short {
		for _, rr := range reply.Answer {
			fmt.Println(rdata(rr))
		}
		return
	}
	fmt.Printf(";; status: %s, answer: %d\n", dns.RcodeToString[reply.Rcode], len(reply.Answer))
	for _, rr := range reply.Answer {
		fmt.Println(rr.String())
	}
}

// rdata extracts just the value a --short answer prints, mirroring dig
// +short's per-type rendering for the record kinds zerodns's filters emit.
func rdata(rr dns.RR) string {
	switch v := rr.(type) {
	case *dns.A:
		return v.A.String()
	case *dns.AAAA:
		return v.AAAA.String()
	case *dns.CNAME:
		return v.Target
	default:
		fields := strings.Fields(rr.String())
		return fields[len(fields)-1]
	}
}
