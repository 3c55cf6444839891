// SPDX-License-Identifier: GPL-3.0-or-later

package filter

import (
	"io"
	"log/slog"
	"net"

	"github.com/zerodns-io/zerodns/internal/upstream"
)

func newTestClient() *upstream.Client {
	return upstream.NewClient(&net.Dialer{}, nil)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
