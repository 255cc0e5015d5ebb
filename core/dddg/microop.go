package dddg

// Microop is the closed opcode-tag enumeration referenced by the
// dependence engine (spec §3). It is a sum type: predicates answer every
// question the engine asks about an opcode, rather than a class
// hierarchy.
type Microop int

const (
	MicroopUnknown Microop = iota

	MicroopCall
	MicroopRet
	MicroopPHI
	MicroopLoad
	MicroopStore
	MicroopGetElementPtr
	MicroopAlloca
	MicroopDMALoad
	MicroopDMAStore
	MicroopDMAFence

	// Generic arithmetic/FP/trig families. The exact member doesn't
	// matter to the engine beyond the predicates below; they're kept
	// distinct so callers (e.g. the double_precision flag and result
	// logging) can report the real opcode.
	MicroopAdd
	MicroopSub
	MicroopMul
	MicroopDiv
	MicroopBitwise
	MicroopCompare
	MicroopFPAdd
	MicroopFPSub
	MicroopFPMul
	MicroopFPDiv
	MicroopSin
	MicroopCos
	MicroopSqrt
)

var microopNames = map[Microop]string{
	MicroopUnknown:       "Unknown",
	MicroopCall:          "Call",
	MicroopRet:           "Ret",
	MicroopPHI:           "PHI",
	MicroopLoad:          "Load",
	MicroopStore:         "Store",
	MicroopGetElementPtr: "GetElementPtr",
	MicroopAlloca:        "Alloca",
	MicroopDMALoad:       "DMALoad",
	MicroopDMAStore:      "DMAStore",
	MicroopDMAFence:      "DMAFence",
	MicroopAdd:           "Add",
	MicroopSub:           "Sub",
	MicroopMul:           "Mul",
	MicroopDiv:           "Div",
	MicroopBitwise:       "Bitwise",
	MicroopCompare:       "Compare",
	MicroopFPAdd:         "FPAdd",
	MicroopFPSub:         "FPSub",
	MicroopFPMul:         "FPMul",
	MicroopFPDiv:         "FPDiv",
	MicroopSin:           "Sin",
	MicroopCos:           "Cos",
	MicroopSqrt:          "Sqrt",
}

func (m Microop) String() string {
	if name, ok := microopNames[m]; ok {
		return name
	}
	return "Unknown"
}

// IsCallOp reports whether m is a call instruction.
func (m Microop) IsCallOp() bool { return m == MicroopCall }

// IsRetOp reports whether m is a return instruction.
func (m Microop) IsRetOp() bool { return m == MicroopRet }

// IsCallOrRet reports whether m participates in the call/return fence
// (spec §4.6.1 step 3).
func (m Microop) IsCallOrRet() bool { return m.IsCallOp() || m.IsRetOp() }

// IsPHIOp reports whether m is a PHI node.
func (m Microop) IsPHIOp() bool { return m == MicroopPHI }

// IsLoadOp reports whether m is a (non-DMA) load.
func (m Microop) IsLoadOp() bool { return m == MicroopLoad }

// IsStoreOp reports whether m is a (non-DMA) store.
func (m Microop) IsStoreOp() bool { return m == MicroopStore }

// IsGEPOp reports whether m computes an address (GetElementPtr).
func (m Microop) IsGEPOp() bool { return m == MicroopGetElementPtr }

// IsAllocaOp reports whether m allocates storage.
func (m Microop) IsAllocaOp() bool { return m == MicroopAlloca }

// IsDMALoadOp reports whether m is a DMA load (accelerator-side store).
func (m Microop) IsDMALoadOp() bool { return m == MicroopDMALoad }

// IsDMAStoreOp reports whether m is a DMA store (accelerator-side load).
func (m Microop) IsDMAStoreOp() bool { return m == MicroopDMAStore }

// IsDMAFenceOp reports whether m is a DMA fence.
func (m Microop) IsDMAFenceOp() bool { return m == MicroopDMAFence }

// IsDMAOp reports whether m is any DMA-family opcode.
func (m Microop) IsDMAOp() bool {
	return m.IsDMALoadOp() || m.IsDMAStoreOp() || m.IsDMAFenceOp()
}

// IsFPOp reports whether m is a floating-point arithmetic opcode.
func (m Microop) IsFPOp() bool {
	switch m {
	case MicroopFPAdd, MicroopFPSub, MicroopFPMul, MicroopFPDiv, MicroopSin, MicroopCos, MicroopSqrt:
		return true
	default:
		return false
	}
}

// IsTrigOp reports whether m is a trigonometric opcode.
func (m Microop) IsTrigOp() bool {
	switch m {
	case MicroopSin, MicroopCos:
		return true
	default:
		return false
	}
}

// AddrCarrying reports whether m is one of the opcodes whose parameters
// carry address values through the per-instruction scratch (spec §4.6.2):
// Load, Store, GetElementPtr, or any DMA op.
func (m Microop) AddrCarrying() bool {
	return m.IsLoadOp() || m.IsStoreOp() || m.IsGEPOp() || m.IsDMAOp()
}
