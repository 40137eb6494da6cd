package packager

import "github.com/dexaot/aotcore/internal/leb128"

// SafepointEntry is one (native_pc, dex_pc) pair recorded for the
// mapping table's first sub-stream.
type SafepointEntry struct {
	NativePC int
	DexPC    int
}

// CatchEntry is one (dex_pc, native_pc) pair recorded for the mapping
// table's second sub-stream, marking a catch handler's entry point.
type CatchEntry struct {
	DexPC    int
	NativePC int
}

// BuildMappingTable encodes the "mapping table": two LEB128
// sub-streams, each prefixed by its entry count. Safepoint entries are
// native-PC-ascending by construction (internal/backend's
// SafepointRecorder emits them in that order); their PC deltas are
// unsigned LEB128, their dex-PC deltas are signed LEB128, each relative
// to the previous entry in the sub-stream. Catch entries are sorted by
// DexPC the same way.
func BuildMappingTable(safepoints []SafepointEntry, catches []CatchEntry) []byte {
	var buf []byte
	buf = leb128.AppendUleb128(buf, uint64(len(safepoints)))
	prevPC, prevDex := 0, 0
	for _, sp := range safepoints {
		buf = leb128.AppendUleb128(buf, uint64(sp.NativePC-prevPC))
		buf = leb128.AppendSleb128(buf, int64(sp.DexPC-prevDex))
		prevPC, prevDex = sp.NativePC, sp.DexPC
	}

	buf = leb128.AppendUleb128(buf, uint64(len(catches)))
	prevDex, prevPC = 0, 0
	for _, c := range catches {
		buf = leb128.AppendSleb128(buf, int64(c.DexPC-prevDex))
		buf = leb128.AppendUleb128(buf, uint64(c.NativePC-prevPC))
		prevDex, prevPC = c.DexPC, c.NativePC
	}
	return buf
}

// ReadMappingTable decodes a table BuildMappingTable produced, for tests
// and the debug CLI's dump path.
func ReadMappingTable(buf []byte) (safepoints []SafepointEntry, catches []CatchEntry) {
	n, used := leb128.ReadUleb128(buf)
	buf = buf[used:]
	prevPC, prevDex := 0, 0
	for i := uint64(0); i < n; i++ {
		dPC, u1 := leb128.ReadUleb128(buf)
		buf = buf[u1:]
		dDex, u2 := leb128.ReadSleb128(buf)
		buf = buf[u2:]
		prevPC += int(dPC)
		prevDex += int(dDex)
		safepoints = append(safepoints, SafepointEntry{NativePC: prevPC, DexPC: prevDex})
	}

	m, used := leb128.ReadUleb128(buf)
	buf = buf[used:]
	prevDex, prevPC = 0, 0
	for i := uint64(0); i < m; i++ {
		dDex, u1 := leb128.ReadSleb128(buf)
		buf = buf[u1:]
		dPC, u2 := leb128.ReadUleb128(buf)
		buf = buf[u2:]
		prevDex += int(dDex)
		prevPC += int(dPC)
		catches = append(catches, CatchEntry{DexPC: prevDex, NativePC: prevPC})
	}
	return safepoints, catches
}
