// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: folbricht-routedns and AdGuardDNS both load MaxMind
// country databases with github.com/oschwald/maxminddb-golang for exactly
// this purpose (other_examples/); this package wraps it with the single
// lookup the chinadns filter needs.

// Package geoip loads a MaxMind-format country database and answers
// "which country does this IP belong to" lookups for the chinadns filter.
package geoip

import (
	"net"

	"github.com/oschwald/maxminddb-golang"
	"github.com/zerodns-io/zerodns/internal/wire"
)

// DB is an opened MaxMind country database.
type DB struct {
	reader *maxminddb.Reader
}

// countryRecord mirrors the small slice of a GeoLite2-Country record this
// package actually reads.
type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// Load opens the database at path. A failure to memory-map or parse the
// file is always a fatal configuration error, per the specification: the
// chinadns filter cannot arbitrate without it.
func Load(path string) (*DB, error) {
	reader, err := maxminddb.Open(path)
	if err != nil {
		return nil, wire.Errorf(wire.KindConfig, "geoip.Load", wire.ErrUnloadableDatabase)
	}
	return &DB{reader: reader}, nil
}

// Close releases the underlying memory-mapped file.
func (db *DB) Close() error { return db.reader.Close() }

// Lookup returns the ISO 3166-1 alpha-2 country code for ip, or "" if the
// address has no entry in the database.
func (db *DB) Lookup(ip net.IP) (string, error) {
	var rec countryRecord
	if err := db.reader.Lookup(ip, &rec); err != nil {
		return "", wire.Errorf(wire.KindConfig, "geoip.Lookup", err)
	}
	return rec.Country.ISOCode, nil
}

// IsCountry reports whether ip's country matches iso (case-insensitive
// compare against the database's upper-case codes), returning false on any
// lookup error rather than propagating it — the chinadns filter treats an
// unresolvable IP as "not trusted country" rather than failing the query.
func (db *DB) IsCountry(ip net.IP, iso string) bool {
	code, err := db.Lookup(ip)
	if err != nil || code == "" {
		return false
	}
	return wire.EqualASCIIName(code, iso)
}
