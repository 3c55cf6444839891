// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: the teacher's https.go HTTPSExchanger.

package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/miekg/dns"
	"github.com/zerodns-io/zerodns/internal/wire"
)

const dnsMessageContentType = "application/dns-message"

// HTTPClient abstracts over [*http.Client].
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type dohTransport struct {
	client HTTPClient
}

func (t *dohTransport) exchange(ctx context.Context, ep *Endpoint, query *dns.Msg) (*dns.Msg, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultAttemptTimeout)
	defer cancel()

	raw, err := wire.Encode(query)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL(), bytes.NewReader(raw))
	if err != nil {
		return nil, wire.Errorf(wire.KindHTTP, "upstream.doh.request", err)
	}
	httpReq.Header.Set("Content-Type", dnsMessageContentType)
	httpReq.Header.Set("Accept", dnsMessageContentType)

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, wire.Errorf(wire.KindHTTP, "upstream.doh.do", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, wire.Errorf(wire.KindHTTP, "upstream.doh",
			fmt.Errorf("unexpected status %d", httpResp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, dns.MaxMsgSize))
	if err != nil {
		return nil, wire.Errorf(wire.KindHTTP, "upstream.doh.body", err)
	}

	reply, err := wire.Decode(body)
	if err != nil {
		return nil, err
	}
	if reply.Id != query.Id {
		return nil, wire.Errorf(wire.KindMalformed, "upstream.doh", dns.ErrId)
	}
	return reply, nil
}
