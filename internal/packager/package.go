package packager

import "github.com/dexaot/aotcore/internal/dedup"

// Method is one finished compiled method's artifact set: its code plus
// the three side tables and CFI that accompany it, grouped the way a
// real packager lays them out relative to the header.
type Method struct {
	Header       QuickMethodHeader
	Code         []byte
	MappingTable []byte
	VmapTable    []byte
	GCMap        []byte
	CFI          []byte
}

func (m *Method) artifact() dedup.Artifact {
	return dedup.Artifact{
		Code: m.Code, MappingTable: m.MappingTable, VmapTable: m.VmapTable,
		GCMap: m.GCMap, CFI: m.CFI,
	}
}

// Package finalizes m against the process-wide dedup table: if table is
// nil, dedup is disabled and m is returned unchanged. Otherwise m is
// interned; if a byte-identical method was already present, that
// existing method is returned instead and found=true, so the caller can
// free its own freshly built allocation.
func Package(m *Method, table *dedup.Table) (result *Method, found bool) {
	if table == nil {
		return m, false
	}
	existing, found := table.Intern(m.artifact(), m)
	if !found {
		return m, false
	}
	return existing.(*Method), true
}
