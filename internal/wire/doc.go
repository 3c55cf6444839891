// SPDX-License-Identifier: GPL-3.0-or-later

// Package wire adds ZeroDNS's domain semantics on top of the DNS wire
// format: malformed-message classification, case-insensitive cache keys,
// TTL arithmetic, and the synthetic SERVFAIL reply the rest of the system
// needs to build.
//
// Raw (de)serialization — compression pointers, label encoding, RR wire
// formats — is delegated to [github.com/miekg/dns], which every DNS-
// speaking project in this codebase's lineage uses for the same purpose.
package wire
