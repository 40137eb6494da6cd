package packager

import "github.com/dexaot/aotcore/internal/leb128"

// GCMapEntry is one safepoint's native PC and reference-liveness bitmap.
type GCMapEntry struct {
	NativePC int
	RefBits  []bool
}

// bitmapWidth computes the "width = ceil((max_ref_vreg+8)/8)"
// from the widest bitmap among entries; maxRefVreg is the highest
// reference-typed Dalvik vreg index the method declares.
func bitmapWidth(maxRefVreg int) int {
	return (maxRefVreg + 8 + 7) / 8
}

// BuildGCMap encodes the GC map: a one-byte width header
// followed by a sequence of (native_pc_uleb128, reference_bitmap[width])
// pairs, so the map is self-describing rather than requiring its reader
// to already know maxRefVreg. width is also returned directly for
// callers that want it without a decode round-trip.
func BuildGCMap(entries []GCMapEntry, maxRefVreg int) (data []byte, width int) {
	width = bitmapWidth(maxRefVreg)
	buf := []byte{byte(width)}
	prevPC := 0
	for _, e := range entries {
		buf = leb128.AppendUleb128(buf, uint64(e.NativePC-prevPC))
		prevPC = e.NativePC
		buf = append(buf, packBitmap(e.RefBits, width)...)
	}
	return buf, width
}

func packBitmap(bits []bool, width int) []byte {
	out := make([]byte, width)
	for i, b := range bits {
		if !b {
			continue
		}
		byteIdx := i / 8
		if byteIdx >= width {
			continue
		}
		out[byteIdx] |= 1 << uint(i%8)
	}
	return out
}

// ReadGCMap decodes a GC map BuildGCMap produced. The width parameter is
// accepted for symmetry with the rest of this package's Build/Read
// pairs but is ignored in favor of the width byte BuildGCMap itself
// wrote, so a caller that only has the raw bytes (no side channel for
// maxRefVreg) can still decode correctly; pass 0 when that's all you have.
func ReadGCMap(buf []byte, width int) []GCMapEntry {
	if len(buf) == 0 {
		return nil
	}
	width = int(buf[0])
	buf = buf[1:]

	var entries []GCMapEntry
	prevPC := 0
	for len(buf) > 0 {
		d, used := leb128.ReadUleb128(buf)
		buf = buf[used:]
		if len(buf) < width {
			break
		}
		bitmap := buf[:width]
		buf = buf[width:]
		prevPC += int(d)

		bits := make([]bool, width*8)
		for i := range bits {
			bits[i] = bitmap[i/8]&(1<<uint(i%8)) != 0
		}
		entries = append(entries, GCMapEntry{NativePC: prevPC, RefBits: bits})
	}
	return entries
}
