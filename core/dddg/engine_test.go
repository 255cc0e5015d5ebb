package dddg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() (*Engine, *ProgramStore) {
	symbols := NewSymbolTable()
	store := NewProgramStore(symbols)
	rename := NewRenamingState()
	datapath := NewNullDatapath(symbols)
	return NewEngine(store, rename, datapath), store
}

// inst builds an InstructionRecord the way ParseInstruction does: bblockID
// is the raw "<name>:<loop_depth>" wire form, split here the same way.
func inst(nodeID int, fn, bblockID, instID string, m Microop) InstructionRecord {
	name, depth := ParseBBlockID(0, bblockID)
	return InstructionRecord{
		LineNum:        nodeID + 1,
		StaticFunction: fn,
		BBlockID:       bblockID,
		BBlockName:     name,
		LoopDepth:      depth,
		InstID:         instID,
		Microop:        m,
		NodeID:         NodeID(nodeID),
	}
}

func TestEngineMinimalRegisterChain(t *testing.T) {
	e, store := newTestEngine()

	e.ProcessInstruction(0, inst(0, "main", "bb0:0", "i0", MicroopAdd))
	e.ProcessResult(0, ResultRecord{Size: 32, ValueStr: "1", IsReg: true, Label: "%x"})

	e.ProcessInstruction(0, inst(1, "main", "bb0:0", "i1", MicroopAdd))
	e.ProcessParameter(0, ParameterRecord{Slot: 1, Size: 32, ValueStr: "1", IsReg: true, Label: "%x"})
	e.ProcessResult(0, ResultRecord{Size: 32, ValueStr: "2", IsReg: true, Label: "%y"})

	e.Flush()
	assert.True(t, store.HasRegisterEdge(0, 1, 1))
}

func TestEnginePHIFiltersNonMatchingPredecessor(t *testing.T) {
	e, store := newTestEngine()

	// bb0 has loop depth 1 here specifically so curr_bblock ("bb0:1") and a
	// name-only prev_bbid ("bb0") would be unequal — the PHI filter must
	// compare the full bblock id, not just the name.
	e.ProcessInstruction(0, inst(0, "main", "bb0:1", "i0", MicroopAdd))
	e.ProcessResult(0, ResultRecord{Size: 32, ValueStr: "1", IsReg: true, Label: "%v0"})

	e.ProcessInstruction(0, inst(1, "main", "bb1:0", "i1", MicroopPHI))
	e.ProcessParameter(0, ParameterRecord{
		Slot: 1, Size: 32, ValueStr: "1", IsReg: true, Label: "%v0",
		PrevBBID: "bb0:1", HasPrevBBID: true,
	})
	e.ProcessParameter(0, ParameterRecord{
		Slot: 2, Size: 32, ValueStr: "1", IsReg: true, Label: "%v1",
		PrevBBID: "bb0:0", HasPrevBBID: true,
	})
	e.ProcessResult(0, ResultRecord{Size: 32, ValueStr: "1", IsReg: true, Label: "%phi"})

	e.Flush()
	assert.True(t, store.HasRegisterEdge(0, 1, 1), "matching predecessor must produce an edge")
	reg, _, _ := store.DepCounts()
	assert.Equal(t, 1, reg, "mismatched predecessor parameter must be ignored entirely")
}

func TestEngineDMAFenceOrdersSurroundingDMALoad(t *testing.T) {
	e, store := newTestEngine()

	e.ProcessInstruction(0, inst(0, "main", "bb0:0", "i0", MicroopDMAFence))
	e.ProcessInstruction(0, inst(1, "main", "bb0:0", "i1", MicroopDMALoad))
	e.ProcessInstruction(0, inst(2, "main", "bb0:0", "i2", MicroopDMAFence))

	e.Flush()
	assert.True(t, store.HasControlEdge(0, 1), "fence must order the DMA op that follows it")
	assert.True(t, store.HasControlEdge(1, 2), "a DMA op must order the next fence")
}

func TestEngineCallArgumentAliasResolvesThroughGEP(t *testing.T) {
	e, store := newTestEngine()

	// main() calls arg(%arg); node0 is the Call instruction.
	e.ProcessInstruction(0, inst(0, "main", "bb0:0", "call0", MicroopCall))
	e.ProcessParameter(0, ParameterRecord{Slot: 1, Size: 64, ValueStr: "0", IsReg: true, Label: "arg"})
	e.ProcessForward(0, ForwardRecord{Size: 64, Value: 0, IsReg: true, Label: "%base"})

	// Inside arg(), a GEP computes the address of its formal parameter.
	e.ProcessInstruction(0, inst(1, "arg", "bb0:0", "gep0", MicroopGetElementPtr))
	e.ProcessParameter(0, ParameterRecord{Slot: 1, Size: 64, ValueStr: "1000", IsReg: false, Label: "%base"})

	node := store.Node(1)
	assert.Equal(t, "arg", node.ArrayLabel, "GEP must resolve through the call-arg alias to the caller's name")

	nd := e.datapath.(*NullDatapath)
	require.Contains(t, nd.ArrayBaseAddrs, "arg")
	assert.Equal(t, uint64(1000), nd.ArrayBaseAddrs["arg"])
}

func TestEngineDMALoadThenStoreCreatesMemoryEdgeInNonReadyMode(t *testing.T) {
	e, store := newTestEngine()

	e.ProcessInstruction(0, inst(0, "main", "bb0:0", "dma0", MicroopDMALoad))
	e.ProcessParameter(0, ParameterRecord{Slot: 1, Size: 64, ValueStr: "0", IsReg: false, Label: "dst"})
	e.ProcessParameter(0, ParameterRecord{Slot: 2, Size: 64, ValueStr: "2000", IsReg: false, Label: "base"})
	e.ProcessParameter(0, ParameterRecord{Slot: 3, Size: 64, ValueStr: "0", IsReg: false, Label: "off"})
	e.ProcessParameter(0, ParameterRecord{Slot: 4, Size: 64, ValueStr: "8", IsReg: false, Label: "size"})
	e.ProcessResult(0, ResultRecord{Size: 64, ValueStr: "0", IsReg: false, Label: ""})

	e.ProcessInstruction(0, inst(1, "main", "bb0:0", "st0", MicroopStore))
	e.ProcessParameter(0, ParameterRecord{Slot: 2, Size: 32, ValueStr: "2000", IsReg: false, Label: "buf"})
	e.ProcessParameter(0, ParameterRecord{Slot: 1, Size: 32, ValueStr: "7", IsReg: false, Label: ""})

	e.Flush()
	assert.True(t, store.HasMemoryEdge(0, 1), "a store into a DMA-load's destination range must be ordered after it")
}

func TestEngineDMALoadSkipsPropagationInReadyMode(t *testing.T) {
	e, store := newTestEngine()
	e.datapath.(*NullDatapath).ReadyMode = true

	e.ProcessInstruction(0, inst(0, "main", "bb0:0", "dma0", MicroopDMALoad))
	e.ProcessParameter(0, ParameterRecord{Slot: 1, Size: 64, ValueStr: "0", IsReg: false, Label: "dst"})
	e.ProcessParameter(0, ParameterRecord{Slot: 2, Size: 64, ValueStr: "2000", IsReg: false, Label: "base"})
	e.ProcessParameter(0, ParameterRecord{Slot: 3, Size: 64, ValueStr: "0", IsReg: false, Label: "off"})
	e.ProcessParameter(0, ParameterRecord{Slot: 4, Size: 64, ValueStr: "8", IsReg: false, Label: "size"})
	e.ProcessResult(0, ResultRecord{Size: 64, ValueStr: "0", IsReg: false, Label: ""})

	e.ProcessInstruction(0, inst(1, "main", "bb0:0", "st0", MicroopStore))
	e.ProcessParameter(0, ParameterRecord{Slot: 2, Size: 32, ValueStr: "2000", IsReg: false, Label: "buf"})
	e.ProcessParameter(0, ParameterRecord{Slot: 1, Size: 32, ValueStr: "7", IsReg: false, Label: ""})

	e.Flush()
	assert.False(t, store.HasMemoryEdge(0, 1), "ready mode must skip address_last_written propagation for DMA loads")
}

func TestEngineRecursiveCallPushesDistinctInvocations(t *testing.T) {
	e, store := newTestEngine()

	e.ProcessInstruction(0, inst(0, "fact", "bb0:0", "i0", MicroopCall))
	e.ProcessParameter(0, ParameterRecord{Slot: 1, Size: 64, ValueStr: "0", IsReg: true, Label: "fact"})

	e.ProcessInstruction(0, inst(1, "fact", "bb0:0", "i1", MicroopAdd))
	e.ProcessInstruction(0, inst(2, "fact", "bb0:0", "i2", MicroopRet))

	n1 := store.Node(1)
	n2 := store.Node(2)
	assert.Equal(t, 2, n1.DynamicInvocation)
	assert.Equal(t, 2, n2.DynamicInvocation)
}
