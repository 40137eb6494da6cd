// Package diag is the core's only logging surface. It deliberately looks
// nothing like a general-purpose logging library: per-method compilation
// is the hottest path in the whole system, so by default every call here
// is a no-op, matching wazero's choice to never import a logging
// package into wazevo's hot path (internal/engine/wazevo has no logging
// dependency at all). Output is only produced when the driver's Logger
// is set to a Verbose one; nothing in this module does so, and
// CompilerOptions.VerboseMethods and the Dump* flags are not read.
package diag

import "fmt"

// Scope groups related diagnostics so a caller can enable one kind
// without the others (mirrors the enable-by-bit shape of wazero's
// internal/logging.LogScopes).
type Scope uint32

const (
	ScopeFilter Scope = 1 << iota
	ScopePasses
	ScopeRegAlloc
	ScopeStats
	ScopeAll = Scope(0xffffffff)
)

// Logger is implemented by Nop (the default) and Verbose. The Driver
// uses one Logger for every method; it does not switch to Verbose for
// methods matching VerboseMethods.
type Logger interface {
	Enabled(s Scope) bool
	Logf(s Scope, format string, args ...interface{})
}

// Nop discards everything; this is the Driver's default Logger.
type Nop struct{}

func (Nop) Enabled(Scope) bool                 { return false }
func (Nop) Logf(Scope, string, ...interface{}) {}

// Verbose writes to Sink, gated by Scopes. It takes effect only when a
// caller assigns it to Driver.Logger; it is deliberately not the default
// so that methods pay zero formatting cost.
type Verbose struct {
	Scopes Scope
	Sink   func(string)
}

func (v Verbose) Enabled(s Scope) bool { return v.Scopes&s != 0 }

func (v Verbose) Logf(s Scope, format string, args ...interface{}) {
	if !v.Enabled(s) || v.Sink == nil {
		return
	}
	v.Sink(fmt.Sprintf(format, args...))
}
