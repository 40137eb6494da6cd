// Package classlinker defines the runtime class linker contract used to resolve field and method
// references for devirtualization and the lowering caches. Resolution
// failures are non-fatal: the core marks the site unresolved and keeps
// compiling; it emits no slow-path runtime call or linker patch for it.
package classlinker

import "github.com/dexaot/aotcore/dex"

// FieldAccessType distinguishes the four field opcodes' operand shapes.
type FieldAccessType uint8

const (
	InstanceGet FieldAccessType = iota
	InstancePut
	StaticGet
	StaticPut
)

// FieldInfo is what resolve_field returns on success: enough to emit a
// direct load/store instead of a runtime resolution call.
type FieldInfo struct {
	DeclaringClassIdx uint32
	Offset            uint32 // byte offset within the instance, or within the static storage
	IsVolatile        bool
	FieldType         byte // shorty-style type char
}

// MethodInfo is what resolve_method returns on success.
type MethodInfo struct {
	DeclaringClassIdx uint32
	VTableIndex       int32 // -1 if not virtually dispatched
	IMTIndex          int32 // -1 if not an interface method
	DirectCodePtr     uintptr
	IsIntrinsic       bool
}

// DexCache is the per-dex-file resolution cache handle the linker keeps;
// the core only ever passes it through, never inspects it.
type DexCache interface {
	DexFileID() uint32
}

// ClassLinker is the minimal surface the core needs from the runtime
// class linker.
type ClassLinker interface {
	ResolveField(file dex.FileID, fieldIdx uint32, access FieldAccessType) (FieldInfo, error)
	ResolveMethod(file dex.FileID, methodIdx uint32, invoke dex.InvokeType) (MethodInfo, error)
	FindDexCache(file dex.FileID) (DexCache, error)
}
