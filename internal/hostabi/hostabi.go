// Package hostabi supplies the few host-OS facts the arena allocator
// uses to size its regions: the real
// page size, when available, rounds the default region size up to a
// multiple of it so a region never spans a partial page. Everywhere
// else in this module reasons purely in terms of dex/MIR/LIR data, so
// this is deliberately the only package that looks at the host OS at
// all, gated the same way wazero gates its own OS-specific files
// (config_supported.go / config_unsupported.go).
package hostabi

// DefaultRegionSize is a 32 KiB default region size. internal/arena does
// not read it: it passes its own 32 KiB request to RegionSize, which
// returns the request unchanged when the host page size can't be
// queried.
const DefaultRegionSize = 32 * 1024

// RegionSize rounds want up to a multiple of the host page size, so that
// internal/arena's region chain stays page-aligned without every caller
// needing to know the host's page size itself.
func RegionSize(want int) int {
	page := PageSize()
	if page <= 0 {
		return want
	}
	if want%page == 0 {
		return want
	}
	return (want/page + 1) * page
}
