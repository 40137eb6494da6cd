// Package dex holds the read-only views the CORE receives from the DEX
// loader and parser. Nothing in
// this package is ever mutated by the compiler; it is the input contract,
// not a parser. A real loader lives outside this module's scope.
package dex

import "fmt"

// FileID identifies one loaded dex file within a compilation session. Two
// CodeItems from different dex files may legally share a method_idx, so
// MethodReference always carries both.
type FileID uint32

// MethodReference is the opaque (dex_file_id, method_idx) pair used as a
// hash/map key throughout the core. It orders by method_idx
// first, then by dex identity, so that sorting a slice of
// MethodReference reproduces the artifact writer's deterministic order
// .
type MethodReference struct {
	File  FileID
	Index uint32
}

// Less implements the sort order the packager relies on for reproducible oat
// output: by method_idx, then by dex file identity.
func (m MethodReference) Less(o MethodReference) bool {
	if m.Index != o.Index {
		return m.Index < o.Index
	}
	return m.File < o.File
}

func (m MethodReference) String() string {
	return fmt.Sprintf("dex#%d:method#%d", m.File, m.Index)
}

// InvokeType mirrors the five Dalvik invoke kinds; which one applies to a
// given call site affects both verification and the invoke state
// machines.
type InvokeType uint8

const (
	InvokeStatic InvokeType = iota
	InvokeDirect
	InvokeVirtual
	InvokeSuper
	InvokeInterface
)

func (t InvokeType) String() string {
	switch t {
	case InvokeStatic:
		return "static"
	case InvokeDirect:
		return "direct"
	case InvokeVirtual:
		return "virtual"
	case InvokeSuper:
		return "super"
	case InvokeInterface:
		return "interface"
	default:
		return "invalid"
	}
}

// AccessFlags is the subset of Dalvik method/class access_flags the core
// inspects (e.g. to recognize a static initializer in the filter).
type AccessFlags uint32

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSynchronized AccessFlags = 0x0020
	AccNative       AccessFlags = 0x0100
	AccAbstract     AccessFlags = 0x0400
	AccConstructor  AccessFlags = 0x10000
)

func (f AccessFlags) Has(bit AccessFlags) bool { return f&bit != 0 }

// MethodID is the read-only (class, name, shorty) identity of a method,
// supplied by the loader. Shorty is the compact signature string: first
// char is the return type, remaining chars are parameter types in
// order. 'L' stands in for any reference type.
type MethodID struct {
	ClassDefIdx uint32
	NameIdx     uint32
	Shorty      string
}

// ClassDef is the subset of a dex class_def_item the core consults:
// whether the defining class itself is being initialized (relevant to
// the static-initializer special case in the filter) and its superclass
// index, consulted by devirtualization.
type ClassDef struct {
	ClassIdx      uint32
	SuperclassIdx uint32
	AccessFlags   AccessFlags
}

// ShortyParamCount returns the number of formal parameters encoded by a
// shorty string (every character after the first, minus nothing — J/D
// still count once each in the shorty even though they are wide).
func ShortyParamCount(shorty string) int {
	if len(shorty) == 0 {
		return 0
	}
	return len(shorty) - 1
}

// ShortyReturnType returns the return-type character ('V' for void).
func ShortyReturnType(shorty string) byte {
	if len(shorty) == 0 {
		return 'V'
	}
	return shorty[0]
}

// IsWideChar reports whether a shorty character denotes a 64-bit
// (register-pair) value.
func IsWideChar(c byte) bool { return c == 'J' || c == 'D' }

// IsRefChar reports whether a shorty character denotes a reference type
// that the GC map must track.
func IsRefChar(c byte) bool { return c == 'L' }
