package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/dexaot/aotcore/internal/packager"
	"github.com/dexaot/aotcore/internal/testing/require"
)

func TestDoMainNoArgsPrintsUsage(t *testing.T) {
	stdOut, stdErr := &bytes.Buffer{}, &bytes.Buffer{}
	resetFlags()
	flag.CommandLine.Parse([]string{})

	code := doMain(stdOut, stdErr)
	require.Equal(t, 0, code)
	require.Contains(t, stdErr.String(), "usage:")
}

func TestDoMainMissingFileReportsError(t *testing.T) {
	stdOut, stdErr := &bytes.Buffer{}, &bytes.Buffer{}
	resetFlags()
	flag.CommandLine.Parse([]string{filepath.Join(t.TempDir(), "missing.bin")})

	code := doMain(stdOut, stdErr)
	require.Equal(t, 1, code)
	require.Contains(t, stdErr.String(), "reading")
}

func TestDoMainDumpsPackagedArtifact(t *testing.T) {
	m := &packager.Method{
		Header: packager.QuickMethodHeader{CodeSize: 4, FrameSize: 16},
		Code:   []byte{0x01, 0x02, 0x03, 0x04},
		MappingTable: packager.BuildMappingTable(
			[]packager.SafepointEntry{{NativePC: 4, DexPC: 0}}, nil),
		VmapTable: packager.BuildVmapTable([]int{0}, nil),
	}
	m.GCMap, _ = packager.BuildGCMap([]packager.GCMapEntry{{NativePC: 4, RefBits: []bool{true}}}, 0)

	path := filepath.Join(t.TempDir(), "method.bin")
	require.NoError(t, os.WriteFile(path, packager.EncodeMethod(m), 0o644))

	stdOut, stdErr := &bytes.Buffer{}, &bytes.Buffer{}
	resetFlags()
	flag.CommandLine.Parse([]string{path})

	code := doMain(stdOut, stdErr)
	require.Equal(t, 0, code)
	require.Equal(t, "", stdErr.String())
	require.Contains(t, stdOut.String(), "CodeSize:           4")
	require.Contains(t, stdOut.String(), "safepoint nativePC=0x4 dexPC=0x0")
}

func TestDoMainRejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x01, 0x02}, 0o644))

	stdOut, stdErr := &bytes.Buffer{}, &bytes.Buffer{}
	resetFlags()
	flag.CommandLine.Parse([]string{path})

	code := doMain(stdOut, stdErr)
	require.Equal(t, 1, code)
	require.Contains(t, stdErr.String(), "not a recognizable packaged artifact")
}

func resetFlags() {
	flag.CommandLine = flag.NewFlagSet("dexaot-dump", flag.ContinueOnError)
}
