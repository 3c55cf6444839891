// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: the specification's §4.7, compiled with
// github.com/gobwas/glob, the one general-purpose glob library the
// retrieval pack's manifests carry for this exact job. Patterns are
// compiled once at load time; matching allocates only when the question
// name has upper-case letters to lowercase.

// Package rules implements the first-match-wins domain-to-filter-chain
// table of the specification's C7 component.
package rules

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/zerodns-io/zerodns/internal/wire"
)

// Rule is one compiled entry: domain is matched against the lowercased
// question name; Filters names the chain to run on a match.
type Rule struct {
	Domain  string
	Filters []string

	pattern glob.Glob
}

// Table is an ordered, compiled rule set.
//
// Build with [Compile]. The zero value is an empty table that matches
// nothing.
type Table struct {
	rules []Rule
}

// Compile builds a [*Table] from domain/filters pairs in declaration
// order. domain is a glob pattern where `*` matches any run of
// characters (including dots) and `?` matches exactly one character,
// per the specification.
func Compile(rules []Rule) (*Table, error) {
	compiled := make([]Rule, len(rules))
	for i, r := range rules {
		pattern, err := glob.Compile(strings.ToLower(r.Domain))
		if err != nil {
			return nil, wire.Errorf(wire.KindConfig, "rules.Compile", err)
		}
		compiled[i] = Rule{Domain: r.Domain, Filters: r.Filters, pattern: pattern}
	}
	return &Table{rules: compiled}, nil
}

// Match returns the filter chain of the first rule whose domain glob
// matches name, and true. If no rule matches, it returns (nil, false),
// and the server frontend answers SERVFAIL, per the specification.
func (t *Table) Match(name string) ([]string, bool) {
	lower := strings.ToLower(strings.TrimSuffix(name, "."))
	for _, r := range t.rules {
		if r.pattern.Match(lower) {
			return r.Filters, true
		}
	}
	return nil, false
}

// Len reports the number of compiled rules.
func (t *Table) Len() int { return len(t.rules) }
