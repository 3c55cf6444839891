// SPDX-License-Identifier: GPL-3.0-or-later

// Package dnstest provides small in-process DNS servers for testing
// ZeroDNS's own client and server code, rebuilt in-tree rather than
// imported because the teacher's dnstest/netstub packages are that
// author's own private scaffolding, not a published general-purpose
// testing dependency, and because this version needs to speak our own
// internal/wire helpers directly.
package dnstest
