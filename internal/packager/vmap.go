package packager

import "github.com/dexaot/aotcore/internal/leb128"

// vmapMarker is the distinguished byte separating the vmap table's core
// and fp halves. A marker value
// one past any legal register index (which always fits a single ULEB128
// byte for the register counts this project's backends use) can never
// collide with a real register-list entry.
const vmapMarker = 0xff

// BuildVmapTable encodes the vmap table: a ULEB128 total-entry
// count, then ascending-sorted core-register entries, the marker byte,
// then ascending-sorted fp-register entries. coreRegs/fpRegs are Dalvik-
// vreg-to-physical-register promotion assignments in the physical
// register's own ascending index order (BuildPromotionMap already
// guarantees this by assignment order within a class).
func BuildVmapTable(coreRegs, fpRegs []int) []byte {
	var buf []byte
	buf = leb128.AppendUleb128(buf, uint64(len(coreRegs)+len(fpRegs)))
	for _, r := range coreRegs {
		buf = leb128.AppendUleb128(buf, uint64(r))
	}
	buf = append(buf, vmapMarker)
	for _, r := range fpRegs {
		buf = leb128.AppendUleb128(buf, uint64(r))
	}
	return buf
}

// ReadVmapTable decodes a table BuildVmapTable produced.
func ReadVmapTable(buf []byte) (coreRegs, fpRegs []int) {
	total, used := leb128.ReadUleb128(buf)
	buf = buf[used:]
	core := true
	for i := uint64(0); i < total; {
		if len(buf) > 0 && buf[0] == vmapMarker {
			buf = buf[1:]
			core = false
			continue
		}
		v, u := leb128.ReadUleb128(buf)
		buf = buf[u:]
		if core {
			coreRegs = append(coreRegs, int(v))
		} else {
			fpRegs = append(fpRegs, int(v))
		}
		i++
	}
	return coreRegs, fpRegs
}
