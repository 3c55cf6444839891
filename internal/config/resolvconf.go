// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"bufio"
	"os"
	"strings"

	"github.com/zerodns-io/zerodns/internal/wire"
)

// ReadResolvConf returns the `nameserver` entries of the resolv.conf-
// format file at path, in file order. Used by `zerodns resolve` when no
// upstream is given on the command line, per spec.md §6.
func ReadResolvConf(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wire.Errorf(wire.KindConfig, "config.ReadResolvConf", err)
	}
	defer f.Close()

	var servers []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 2 && fields[0] == "nameserver" {
			servers = append(servers, fields[1])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, wire.Errorf(wire.KindConfig, "config.ReadResolvConf", err)
	}
	return servers, nil
}
