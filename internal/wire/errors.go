// SPDX-License-Identifier: GPL-3.0-or-later

package wire

import (
	"errors"
	"fmt"
)

// Kind is the internal error taxonomy from the specification's error
// handling design: callers use [errors.Is] against the sentinel Kind
// values below, or type-assert to [*Error] for the wrapped cause.
type Kind int

const (
	// KindMalformed means the wire bytes could not be decoded.
	KindMalformed Kind = iota

	// KindTimeout means an upstream attempt exceeded its deadline.
	KindTimeout

	// KindIO means a transport-level read/write failed.
	KindIO

	// KindTLS means a TLS handshake or verification failed.
	KindTLS

	// KindHTTP means a DoH HTTP exchange failed or returned a non-200 status.
	KindHTTP

	// KindUpstream means a query to an upstream did not produce a usable
	// answer.
	KindUpstream

	// KindConfig means a configuration file or value was invalid.
	KindConfig

	// KindScript means a scripted filter failed or timed out.
	KindScript

	// KindCapacityExceeded means a bounded resource (pool, cache) is full.
	KindCapacityExceeded
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindTimeout:
		return "timeout"
	case KindIO:
		return "io"
	case KindTLS:
		return "tls"
	case KindHTTP:
		return "http"
	case KindUpstream:
		return "upstream"
	case KindConfig:
		return "config"
	case KindScript:
		return "script"
	case KindCapacityExceeded:
		return "capacity_exceeded"
	default:
		return "unknown"
	}
}

// Error makes a Kind usable as an [errors.Is] target.
func (k Kind) Error() string { return k.String() }

// Error is the taxonomy-tagged error every ZeroDNS component returns for
// conditions the specification names explicitly.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets a bare Kind be compared against an *Error via errors.Is:
// errors.Is(err, wire.KindMalformed) reports whether err wraps an *Error
// of that kind.
func (e *Error) Is(target error) bool {
	if k, ok := target.(Kind); ok {
		return e.Kind == k
	}
	return false
}

// Errorf builds a new *Error of the given kind.
func Errorf(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// ErrUnloadableDatabase is returned by internal/geoip when the configured
// MaxMind database cannot be opened; this is always fatal at startup.
var ErrUnloadableDatabase = errors.New("geoip database could not be loaded")
