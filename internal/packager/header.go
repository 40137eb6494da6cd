// Package packager builds a compiled method's on-disk artifact: the
// QuickMethodHeader layout,
// the three LEB128-encoded side tables (mapping, vmap, GC map), and the
// dedup-aware Package entry point that hands back an already-interned
// CompiledMethod when one exists. CFI assembly lives in internal/cfi;
// content interning lives in internal/dedup, grounded on wazero's
// internal/compilationcache.Cache sha256-keyed content-addressing idea.
package packager

import "encoding/binary"

// QuickMethodHeader immediately precedes a method's code bytes; its
// fields are each 32-bit little-endian. MappingTableOffset/
// VmapTableOffset are byte counts back from the start of Code to the
// start of each table, not absolute offsets, matching wazero's
// convention of negative, back-pointing references that let the
// executing code find its own metadata via a fixed-size lookup relative
// to its own entry point.
type QuickMethodHeader struct {
	MappingTableOffset uint32
	VmapTableOffset    uint32
	FrameSize          uint32
	CoreSpillMask      uint32
	FPSpillMask        uint32
	CodeSize           uint32
}

// HeaderSize is QuickMethodHeader's encoded size: six 32-bit fields.
const HeaderSize = 24

// Encode serializes h to its fixed 24-byte little-endian form.
func (h QuickMethodHeader) Encode() []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.MappingTableOffset)
	binary.LittleEndian.PutUint32(b[4:8], h.VmapTableOffset)
	binary.LittleEndian.PutUint32(b[8:12], h.FrameSize)
	binary.LittleEndian.PutUint32(b[12:16], h.CoreSpillMask)
	binary.LittleEndian.PutUint32(b[16:20], h.FPSpillMask)
	binary.LittleEndian.PutUint32(b[20:24], h.CodeSize)
	return b
}

// DecodeHeader parses a 24-byte QuickMethodHeader from b.
func DecodeHeader(b []byte) QuickMethodHeader {
	return QuickMethodHeader{
		MappingTableOffset: binary.LittleEndian.Uint32(b[0:4]),
		VmapTableOffset:    binary.LittleEndian.Uint32(b[4:8]),
		FrameSize:          binary.LittleEndian.Uint32(b[8:12]),
		CoreSpillMask:      binary.LittleEndian.Uint32(b[12:16]),
		FPSpillMask:        binary.LittleEndian.Uint32(b[16:20]),
		CodeSize:           binary.LittleEndian.Uint32(b[20:24]),
	}
}

// codeAlignment returns the ISA's natural code alignment.
func codeAlignment(isaName string) int {
	switch isaName {
	case "arm":
		return 2
	case "arm64", "amd64", "x86", "mips32":
		return 16
	default:
		return 4
	}
}

// AlignCodeOffset rounds offset up to the ISA's natural code alignment.
func AlignCodeOffset(isaName string, offset int) int {
	a := codeAlignment(isaName)
	return (offset + a - 1) &^ (a - 1)
}
