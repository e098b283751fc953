// Package idgen wraps the UUID generator so that session identifiers can be
// stubbed in tests. It lives under `internal` because callers should treat
// session ids as opaque strings.
package idgen
