package backend

import "fmt"

// maxAssemblyRetriesPerInstr bounds the branch-overflow retry loop;
// exceeding it is a programmer-error fatal, not a compile failure the
// filter can route around.
const maxAssemblyRetriesPerInstr = 8

// AssembleResult is the final output of the two-pass assembler.
type AssembleResult struct {
	Code []byte
}

// Assemble runs a two-pass assembler: "(1) assign
// offsets walks LIR, computing each instruction's byte length from an
// opcode-indexed encoding table; (2) emit serializes to the code buffer.
// Branch-range overflow in (2) triggers a retry: the offending LIR is
// rewritten to a longer form and (1)+(2) are restarted."
func Assemble(g *Graph, m Machine) AssembleResult {
	retries := 0
	for {
		size := assignOffsets(g, m)
		code, ok := emit(g, m, size)
		if ok {
			return AssembleResult{Code: code}
		}
		retries++
		if retries > maxAssemblyRetriesPerInstr*max(1, countReal(g)) {
			panic(fmt.Sprintf("backend: assembly retry loop exceeded bound after %d retries", retries))
		}
	}
}

func countReal(g *Graph) int {
	n := 0
	g.Walk(func(l *LIR) {
		if l.Op == LIROpReal || l.Op == LIROpUnconditionalBranch {
			n++
		}
	})
	return n
}

// assignOffsets is assembler pass (1): walk LIR, compute each
// instruction's byte length via Machine.Encode(commit=false), and record
// the running native offset on every node.
func assignOffsets(g *Graph, m Machine) int {
	offset := 0
	g.Walk(func(l *LIR) {
		l.NativeOffset = offset
		switch l.Op {
		case LIROpReal, LIROpUnconditionalBranch:
			enc, _ := m.Encode(g, l, offset, false)
			offset += enc.Length
		default:
			// Labels and markers occupy no bytes themselves.
		}
	})
	return offset
}

// emit is assembler pass (2): serialize every real LIR to a contiguous
// code buffer. If an instruction's final encoding no longer fits the
// length assign Offsets computed for it (its operand's range grew, e.g.
// a branch target moved further away), emit enlarges it in place via
// Machine.EnlargeBranch and reports ok=false so Assemble restarts both
// passes.
func emit(g *Graph, m Machine, expectedSize int) ([]byte, bool) {
	code := make([]byte, 0, expectedSize)
	ok := true
	g.Walk(func(l *LIR) {
		if !ok {
			return
		}
		switch l.Op {
		case LIROpReal, LIROpUnconditionalBranch:
			enc, fits := m.Encode(g, l, len(code), true)
			if !fits {
				m.EnlargeBranch(l)
				ok = false
				return
			}
			code = append(code, enc.Bytes...)
		}
	})
	return code, ok
}
