package packager

import "github.com/dexaot/aotcore/internal/leb128"

// EncodeMethod serializes a whole Method to one self-contained byte
// stream for out-of-process storage: the fixed 24-byte header followed
// by Code, MappingTable, VmapTable, GCMap and CFI, each prefixed with
// its ULEB128 length so DecodeMethod never needs a side channel to find
// the next section's start. This is the on-disk counterpart of the
// in-memory Method struct; nothing in the compile path needs it, only
// tooling that inspects an artifact after the driver has gone away.
func EncodeMethod(m *Method) []byte {
	buf := m.Header.Encode()
	for _, part := range [][]byte{m.Code, m.MappingTable, m.VmapTable, m.GCMap, m.CFI} {
		buf = leb128.AppendUleb128(buf, uint64(len(part)))
		buf = append(buf, part...)
	}
	return buf
}

// DecodeMethod parses a byte stream EncodeMethod produced.
func DecodeMethod(buf []byte) (*Method, bool) {
	if len(buf) < HeaderSize {
		return nil, false
	}
	m := &Method{Header: DecodeHeader(buf[:HeaderSize])}
	buf = buf[HeaderSize:]

	sections := make([][]byte, 5)
	for i := range sections {
		n, used := leb128.ReadUleb128(buf)
		buf = buf[used:]
		if uint64(len(buf)) < n {
			return nil, false
		}
		sections[i] = buf[:n]
		buf = buf[n:]
	}
	m.Code, m.MappingTable, m.VmapTable, m.GCMap, m.CFI = sections[0], sections[1], sections[2], sections[3], sections[4]
	return m, true
}
