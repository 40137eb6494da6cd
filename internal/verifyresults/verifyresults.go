// Package verifyresults wraps a verifier.Registry with a "read-only
// after verification, accessed without locking" access pattern, plus a
// call-site discipline: the core may release a method's VerifiedMethod
// once consumed via ClearVerifiedMethod. Keeping that discipline in one
// small package means the driver's CompileMethod, its one call site,
// fetches and releases verification results through a Session instead
// of calling the registry directly.
package verifyresults

import (
	"github.com/dexaot/aotcore/dex"
	"github.com/dexaot/aotcore/verifier"
)

// Session scopes one method's use of its VerifiedMethod: Fetch looks it
// up once per compilation, and Release hands it back to the registry
// when the method's compilation is done (successfully or not), mirroring
// the real driver's "verification results ... read-only after
// verification, accessed without locking" plus eventual release.
type Session struct {
	registry verifier.Registry
	ref      dex.MethodReference
	vm       verifier.VerifiedMethod
	fetched  bool
}

// NewSession binds a registry and method reference for the duration of
// one compile_method call.
func NewSession(registry verifier.Registry, ref dex.MethodReference) *Session {
	return &Session{registry: registry, ref: ref}
}

// Fetch resolves the VerifiedMethod, caching it for the remainder of the
// session so repeated MIR-builder/backend lookups don't re-enter the
// registry.
func (s *Session) Fetch() (verifier.VerifiedMethod, bool) {
	if s.fetched {
		return s.vm, s.vm != nil
	}
	vm, ok := s.registry.Lookup(s.ref)
	s.fetched = true
	if ok {
		s.vm = vm
	}
	return vm, ok
}

// Release tells the registry this method's verification results are no
// longer needed. Safe to call even if Fetch was never called or found
// nothing.
func (s *Session) Release() {
	s.registry.ClearVerifiedMethod(s.ref)
	s.vm = nil
}
