package dddg

// NodeID identifies a dynamic instruction instance by its position in
// trace order. IDs are dense, contiguous, and 0-based (spec invariant 1).
type NodeID int

// MemAccessKind distinguishes a scalar memory access from a vector one.
type MemAccessKind int

const (
	MemAccessScalar MemAccessKind = iota
	MemAccessVector
)

// MemAccess describes the memory operand of a Load/Store/DMA node. Exactly
// one of the scalar or vector fields is meaningful, selected by Kind.
type MemAccess struct {
	Kind    MemAccessKind
	VAddr   uint64
	Size    int // bytes
	Bits    uint64
	IsFloat bool
	Bytes   []byte // vector payload, Kind == MemAccessVector
}

// DMAMemAccess carries the extra addressing fields a DMA access has beyond
// a plain MemAccess: a base address plus independent source/destination
// offsets and a transfer size (spec §3 "MemAccess").
type DMAMemAccess struct {
	BaseAddr uint64
	SrcOff   uint64
	DstOff   uint64
	Size     uint64
}

// Node represents one dynamic instruction instance, keyed by NodeID. Nodes
// are append-only: once inserted into a ProgramStore, a Node's fields are
// only ever filled in further by the dependence engine, never removed.
type Node struct {
	ID                NodeID
	Microop           Microop
	LineNum           int
	StaticInstruction Handle
	StaticFunction    Handle
	BasicBlock        Handle
	LoopDepth         int
	DynamicInvocation int

	MemAccess    *MemAccess
	DMAMemAccess *DMAMemAccess

	Variable        Handle
	ArrayLabel      string
	DoublePrecision bool
}

// EdgeLabel identifies what kind of dependence an Edge represents: a
// register data dependence into a specific parameter slot (label >= 0),
// or one of the two sentinel kinds.
type EdgeLabel int

const (
	// MemoryEdge marks an address-based (memory) dependence.
	MemoryEdge EdgeLabel = -1
	// ControlEdge marks a call/return/fence control dependence.
	ControlEdge EdgeLabel = -2
)

// IsParameterSlot reports whether l denotes a register dependence into
// parameter slot int(l), as opposed to MemoryEdge or ControlEdge.
func (l EdgeLabel) IsParameterSlot() bool { return l >= 0 }

// Edge is a directed dependence source_node -> sink_node, labeled either
// MemoryEdge, ControlEdge, or a non-negative parameter slot index (spec
// §3 "Edge").
type Edge struct {
	Source NodeID
	Sink   NodeID
	Label  EdgeLabel
}
