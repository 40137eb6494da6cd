// Command dexaot-dump pretty-prints a previously packaged method
// artifact's header and side tables. It never recompiles anything and
// never touches a dex file; it only decodes the bytes internal/packager
// already knows how to build, the way oatdump inspects a finished OAT
// file without relinking it.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dexaot/aotcore/internal/packager"
)

func main() {
	os.Exit(doMain(os.Stdout, os.Stderr))
}

// doMain is separated out for the purpose of unit testing.
func doMain(stdOut, stdErr io.Writer) int {
	flag.CommandLine.SetOutput(stdErr)

	var help bool
	flag.BoolVar(&help, "h", false, "Prints usage.")
	if !flag.Parsed() {
		flag.Parse()
	}

	if help || flag.NArg() == 0 {
		printUsage(stdErr)
		return 0
	}

	path := flag.Arg(0)
	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdErr, "reading %s: %v\n", path, err)
		return 1
	}

	m, ok := packager.DecodeMethod(raw)
	if !ok {
		fmt.Fprintf(stdErr, "%s is not a recognizable packaged artifact\n", path)
		return 1
	}

	dumpMethod(stdOut, m)
	return 0
}

func dumpMethod(w io.Writer, m *packager.Method) {
	h := m.Header
	fmt.Fprintf(w, "QuickMethodHeader:\n")
	fmt.Fprintf(w, "  CodeSize:           %d\n", h.CodeSize)
	fmt.Fprintf(w, "  FrameSize:          %d\n", h.FrameSize)
	fmt.Fprintf(w, "  CoreSpillMask:      %#08x\n", h.CoreSpillMask)
	fmt.Fprintf(w, "  FPSpillMask:        %#08x\n", h.FPSpillMask)
	fmt.Fprintf(w, "  MappingTableOffset: %d\n", h.MappingTableOffset)
	fmt.Fprintf(w, "  VmapTableOffset:    %d\n", h.VmapTableOffset)
	fmt.Fprintf(w, "Code: %d bytes\n", len(m.Code))

	safepoints, catches := packager.ReadMappingTable(m.MappingTable)
	fmt.Fprintf(w, "MappingTable: %d safepoints, %d catch entries\n", len(safepoints), len(catches))
	for _, sp := range safepoints {
		fmt.Fprintf(w, "  safepoint nativePC=%#x dexPC=%#x\n", sp.NativePC, sp.DexPC)
	}
	for _, c := range catches {
		fmt.Fprintf(w, "  catch dexPC=%#x -> nativePC=%#x\n", c.DexPC, c.NativePC)
	}

	coreRegs, fpRegs := packager.ReadVmapTable(m.VmapTable)
	fmt.Fprintf(w, "VmapTable: core=%v fp=%v\n", coreRegs, fpRegs)

	gcEntries := packager.ReadGCMap(m.GCMap, 0)
	fmt.Fprintf(w, "GCMap: %d entries\n", len(gcEntries))
	for _, e := range gcEntries {
		fmt.Fprintf(w, "  nativePC=%#x refBits=%s\n", e.NativePC, formatBits(e.RefBits))
	}

	fmt.Fprintf(w, "CFI: %d bytes\n", len(m.CFI))
}

func formatBits(bits []bool) string {
	out := make([]byte, len(bits))
	for i, b := range bits {
		if b {
			out[i] = '1'
		} else {
			out[i] = '0'
		}
	}
	return string(out)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "dexaot-dump: inspect a packaged method artifact")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "usage: dexaot-dump <artifact-file>")
	flag.PrintDefaults()
}
