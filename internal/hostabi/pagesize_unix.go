//go:build linux || darwin

package hostabi

import "golang.org/x/sys/unix"

// PageSize returns the host's real page size on platforms x/sys/unix
// covers.
func PageSize() int { return unix.Getpagesize() }
