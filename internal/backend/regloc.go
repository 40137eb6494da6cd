package backend

import "github.com/dexaot/aotcore/internal/backend/regalloc"

// Location names where a RegLocation's value currently lives: the
// Dalvik vreg's home slot, a compiler temp, or a physical register.
type Location uint8

const (
	LocationDalvik Location = iota
	LocationCompilerTemp
	LocationPhysReg
)

// RegLocation is the handle every value-producing MIR lowering step
// passes to LoadValue/StoreValue.
type RegLocation struct {
	SRegLow  int32 // Dalvik vreg number (low half for a wide value)
	Wide     bool
	FP       bool
	Ref      bool
	HighWord bool // true for the upper half of a RegLocation pair describing a wide value
	IsConst  bool
	Location Location
	Reg      regalloc.VReg
}

// MemTag classifies a memory reference for the local alias analyzer
// .
type MemTag uint8

const (
	MemTagDalvikReg MemTag = iota
	MemTagHeapRef
	MemTagLiteral
	MemTagMustNotAlias
)

// LoadValue materializes loc's value into a register, consulting the
// PromotionMap first so an already-promoted vreg reuses its dedicated
// register instead of allocating a fresh temp.
func LoadValue(a *regalloc.Allocator, pm regalloc.PromotionMap, loc RegLocation) RegLocation {
	if loc.Location == LocationPhysReg {
		return loc
	}
	if v, ok := pm.Lookup(loc.SRegLow); ok {
		loc.Reg = v
		loc.Location = LocationPhysReg
		return loc
	}
	class := regalloc.ClassCore
	if loc.FP {
		class = regalloc.ClassFP
	}
	v, ok := a.AllocTemp(class)
	if !ok {
		// Exhausted the temp pool: punting on register pressure is the
		// caller's responsibility (it sets FlagPuntToInterpreter); this
		// function always returns a value location so callers may keep
		// building MIR-shaped lowering without a nil check on every call.
		v, _ = a.AllocTemp(class)
	}
	loc.Reg = v
	loc.Location = LocationCompilerTemp
	return loc
}

// StoreValue writes loc's register back to its Dalvik vreg home unless
// loc is itself already the promoted register for that vreg, in which
// case the value is already resident and nothing needs to move.
func StoreValue(pm regalloc.PromotionMap, loc RegLocation) (needsStore bool) {
	if v, ok := pm.Lookup(loc.SRegLow); ok && v == loc.Reg {
		return false
	}
	return true
}
