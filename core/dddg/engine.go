package dddg

import (
	"strconv"

	"github.com/huangqiancun/ALADDIN/common/hexutil"
	"github.com/huangqiancun/ALADDIN/log"
)

// Engine is the dependence engine (spec §4.6): the single collaborator that
// turns a stream of parsed records into nodes and buffered edges. It owns
// no trace-format knowledge (that's record.go) and performs no I/O (that's
// the builder); it only applies the renaming and dependence-insertion
// rules to one ProgramStore/RenamingState pair.
type Engine struct {
	store    *ProgramStore
	rename   *RenamingState
	datapath Datapath

	edges edgeBuffer
	curr  *Node

	sawFirstParam bool

	calleeFunction    Handle
	hasCalleeFunction bool

	calleeDynamicFunction DynamicFunction
}

// NewEngine returns an engine bound to store/rename/datapath for the
// lifetime of one build (spec §5, "per-build... single owned bundle").
func NewEngine(store *ProgramStore, rename *RenamingState, datapath Datapath) *Engine {
	return &Engine{store: store, rename: rename, datapath: datapath}
}

// Flush drains every buffered edge into the store. Called exactly once, at
// end-of-trace (spec §4.7 step 5).
func (e *Engine) Flush() {
	e.edges.Flush(e.store)
}

func parseValueFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func toAddr(value float64) uint64 {
	return uint64(int64(value)) & addrMask
}

// ProcessInstruction applies spec §4.6.1 to one Instruction record,
// returning the node it created.
func (e *Engine) ProcessInstruction(offset int64, rec InstructionRecord) *Node {
	e.rename.SetCurrMicroop(rec.Microop)
	e.rename.SetCurrInstID(rec.InstID)

	funcHandle := e.store.Symbols.Insert(SymbolFunction, rec.StaticFunction)
	instHandle := e.store.Symbols.Insert(SymbolInstruction, rec.InstID)
	bblockHandle := e.store.Symbols.Insert(SymbolBasicBlock, rec.BBlockName)

	node := e.store.InsertNode(rec.NodeID, rec.Microop)
	node.LineNum = rec.LineNum
	node.StaticInstruction = instHandle
	node.StaticFunction = funcHandle
	node.BasicBlock = bblockHandle
	node.LoopDepth = rec.LoopDepth
	e.curr = node
	e.datapath.AddFunctionName(rec.StaticFunction)

	// Call/return fence (step 3).
	if rec.Microop.IsCallOrRet() {
		for _, id := range e.rename.DrainSinceLastRet() {
			e.edges.addControl(id, node.ID)
		}
		if lastRet, ok := e.rename.LastRet(); ok && lastRet != node.ID {
			e.edges.addControl(lastRet, node.ID)
		}
		e.rename.SetLastRet(node.ID)
	} else if !rec.Microop.IsDMAOp() {
		e.rename.AppendSinceLastRet(node.ID)
	}

	// Dynamic call stack (step 4).
	invocationCount := 0
	found := false
	if top, ok := e.rename.TopMethod(); ok {
		if top.Function == funcHandle {
			if e.rename.PrevMicroop().IsCallOp() && e.pendingCalleeMatches(funcHandle) {
				invocationCount = e.store.Symbols.IncrementInvocations(funcHandle)
				df := DynamicFunction{Function: funcHandle, Invocation: invocationCount}
				e.rename.PushMethod(df)
			} else {
				invocationCount = e.store.Symbols.Invocations(funcHandle)
			}
			found = true
		}
		if rec.Microop.IsRetOp() {
			e.rename.PopMethod()
		}
	}
	if !found {
		invocationCount = e.store.Symbols.IncrementInvocations(funcHandle)
		e.rename.PushMethod(DynamicFunction{Function: funcHandle, Invocation: invocationCount})
	}

	// PHI predecessor latch (step 5).
	if rec.Microop.IsPHIOp() && !e.rename.PrevMicroop().IsPHIOp() {
		e.rename.SetPrevBBlock(e.rename.CurrBBlock())
	}

	// DMA ordering (step 6).
	if rec.Microop.IsDMAFenceOp() {
		for _, id := range e.rename.DrainLastDMANodes() {
			e.edges.addControl(id, node.ID)
		}
		e.rename.SetLastDMAFence(node.ID)
	} else if rec.Microop.IsDMALoadOp() || rec.Microop.IsDMAStoreOp() {
		if fence, ok := e.rename.LastDMAFence(); ok {
			e.edges.addControl(fence, node.ID)
		}
		e.rename.AppendLastDMANode(node.ID)
	}

	// Step 7.
	e.rename.SetCurrBBlock(rec.BBlockID)
	node.DynamicInvocation = invocationCount
	e.rename.ResetScratch()
	e.sawFirstParam = false

	return node
}

// pendingCalleeMatches reports whether the callee function recorded by the
// preceding Call's parameters (spec §4.6.2, "call bookkeeping") is fn.
func (e *Engine) pendingCalleeMatches(fn Handle) bool {
	return e.hasCalleeFunction && e.calleeFunction == fn
}

// ProcessParameter applies spec §4.6.2 to one Parameter record.
func (e *Engine) ProcessParameter(offset int64, param ParameterRecord) {
	curr := e.curr

	if curr.Microop.IsPHIOp() {
		if !param.HasPrevBBID || param.PrevBBID != e.rename.PrevBBlock() {
			return
		}
	}

	vt := ClassifyValue(param.Size, param.ValueStr)
	var value float64
	if vt != ValueVector {
		value = parseValueFloat(param.ValueStr)
	}

	// Call bookkeeping (first parameter of this instruction).
	if !e.sawFirstParam {
		if curr.Microop.IsCallOp() {
			e.calleeFunction = e.store.Symbols.Insert(SymbolFunction, param.Label)
			e.hasCalleeFunction = true
		}
		if e.hasCalleeFunction {
			e.calleeDynamicFunction = DynamicFunction{
				Function:   e.calleeFunction,
				Invocation: e.store.Symbols.Invocations(e.calleeFunction) + 1,
			}
		}
	}
	e.sawFirstParam = true
	e.rename.ClearLastCallSource()

	dynFunc, _ := e.rename.CurrDynamicFunction()

	if param.IsReg {
		varHandle := e.store.Symbols.Insert(SymbolVariable, param.Label)
		k := DynamicVariable{Func: dynFunc, Variable: varHandle}

		if curr.Microop.IsCallOp() && param.Slot == 1 {
			e.rename.SetUniqueRegInCaller(k)
		}

		if writer, ok := e.rename.RegisterLastWriter(k); ok {
			e.edges.addRegister(writer, curr.ID, param.Slot)
			if curr.Microop.IsCallOp() {
				e.rename.SetLastCallSource(writer)
			}
		} else if (curr.Microop.IsStoreOp() && param.Slot == 2) || (curr.Microop.IsLoadOp() && param.Slot == 1) {
			e.rename.SetRegisterLastWriter(k, curr.ID)
		}
	}

	if !curr.Microop.AddrCarrying() {
		return
	}

	scratch := e.rename.Scratch()
	scratch.append(toAddr(value), param.Size, param.Label)

	switch {
	case param.Slot == 1 && curr.Microop.IsLoadOp():
		varHandle := e.store.Symbols.Insert(SymbolVariable, param.Label)
		curr.Variable = varHandle
		curr.ArrayLabel = param.Label

	case param.Slot == 1 && curr.Microop.IsStoreOp():
		memAddr := scratch.at(0).Value
		memSize := param.Size / byteBits
		access := createMemAccess(offset, param.ValueStr, value, memSize, vt)
		access.VAddr = memAddr
		curr.MemAccess = access

	case param.Slot == 2 && curr.Microop.IsStoreOp():
		addrEntry := scratch.at(0)
		memAddr := addrEntry.Value
		memSize := scratch.last().Size / byteBits
		if writer, ok := e.rename.AddressLastWriter(memAddr); ok {
			if e.store.Node(writer).Microop.IsDMALoadOp() {
				e.memoryDependenceBurst(memAddr, memSize, curr.ID)
			}
			e.rename.SetAddressLastWriter(memAddr, curr.ID)
		} else {
			e.rename.SetAddressLastWriter(memAddr, curr.ID)
		}
		varHandle := e.store.Symbols.Insert(SymbolVariable, addrEntry.Label)
		curr.Variable = varHandle
		curr.ArrayLabel = addrEntry.Label

	case param.Slot == 1 && curr.Microop.IsGEPOp():
		entry := scratch.last()
		baseHandle := e.store.Symbols.Insert(SymbolVariable, entry.Label)
		curr.Variable = baseHandle
		realVar := e.store.ResolveCallArg(DynamicVariable{Func: dynFunc, Variable: baseHandle})
		realName := e.store.Symbols.Name(realVar.Variable)
		curr.ArrayLabel = realName
		e.datapath.AddArrayBaseAddress(realName, entry.Value)

	case param.Slot == 1 && curr.Microop.IsDMAOp():
		// Data dependencies for DMA ops are handled in ProcessResult, once
		// every parameter (base, offsets, size) has been seen.
	}
}

// createMemAccess builds the MemAccess payload for a Load/Store result
// (spec §4.1, §4.6.2/§4.6.3).
func createMemAccess(offset int64, valueStr string, value float64, memSizeBytes int, vt ValueType) *MemAccess {
	// hexutil reports a malformed value by panicking with a plain error;
	// re-raise it as a *BuildError so BuildInitialDDDG returns it.
	defer func() {
		if r := recover(); r != nil {
			fatalf(offset, "malformed operand value: %v", r)
		}
	}()
	if vt == ValueVector {
		raw := hexutil.HexToBytes(valueStr)
		if asUint, ok := hexutil.VectorAsUint256(raw); ok {
			log.Debug("vector operand", "bytes", memSizeBytes, "value", asUint.Hex())
		}
		return &MemAccess{
			Kind:  MemAccessVector,
			Size:  memSizeBytes,
			Bytes: raw,
		}
	}
	isFloat := vt == ValueFloat
	return &MemAccess{
		Kind:    MemAccessScalar,
		Size:    memSizeBytes,
		Bits:    hexutil.ToBits(value, memSizeBytes, isFloat),
		IsFloat: isFloat,
	}
}

// ProcessResult applies spec §4.6.3 to one Result record.
func (e *Engine) ProcessResult(offset int64, rec ResultRecord) {
	curr := e.curr
	vt := ClassifyValue(rec.Size, rec.ValueStr)
	var value float64
	if vt != ValueVector {
		value = parseValueFloat(rec.ValueStr)
	}

	if curr.Microop.IsFPOp() && rec.Size == 64 {
		curr.DoublePrecision = true
	}

	varHandle := e.store.Symbols.Insert(SymbolVariable, rec.Label)
	dynFunc, _ := e.rename.CurrDynamicFunction()
	k := DynamicVariable{Func: dynFunc, Variable: varHandle}
	e.rename.SetRegisterLastWriter(k, curr.ID)

	switch {
	case curr.Microop.IsAllocaOp():
		curr.Variable = varHandle
		curr.ArrayLabel = rec.Label
		e.datapath.AddArrayBaseAddress(rec.Label, toAddr(value))

	case curr.Microop.IsLoadOp():
		scratch := e.rename.Scratch()
		memAddr := scratch.last().Value
		memSize := rec.Size / byteBits
		access := createMemAccess(offset, rec.ValueStr, value, memSize, vt)
		access.VAddr = memAddr
		e.memoryDependenceBurst(memAddr, memSize, curr.ID)
		curr.MemAccess = access

	case curr.Microop.IsDMAOp():
		e.processDMAResult(offset, curr)
	}
}

// processDMAResult applies spec §4.6.3's DMA-op specialization.
func (e *Engine) processDMAResult(offset int64, curr *Node) {
	scratch := e.rename.Scratch()
	var baseAddr, srcOff, dstOff, size uint64
	switch scratch.len() {
	case 4:
		baseAddr = scratch.at(1).Value
		srcOff = scratch.at(2).Value
		dstOff = srcOff
		size = scratch.at(3).Value
	case 5:
		baseAddr = scratch.at(1).Value
		srcOff = scratch.at(2).Value
		dstOff = scratch.at(3).Value
		size = scratch.at(4).Value
	default:
		fatalf(offset, "unknown DMA interface version: %d parameters", scratch.len())
	}
	curr.DMAMemAccess = &DMAMemAccess{BaseAddr: baseAddr, SrcOff: srcOff, DstOff: dstOff, Size: size}

	if curr.Microop.IsDMALoadOp() {
		if e.datapath.IsReadyMode() {
			return
		}
		start := baseAddr + dstOff
		for a := start; a < start+size; a++ {
			e.rename.SetAddressLastWriter(a, curr.ID)
		}
		return
	}
	start := baseAddr + srcOff
	e.memoryDependenceBurst(start, int(size), curr.ID)
}

// memoryDependenceBurst applies spec §4.6.4 over [startAddr, startAddr+size).
func (e *Engine) memoryDependenceBurst(startAddr uint64, size int, sink NodeID) {
	for i := 0; i < size; i++ {
		addr := startAddr + uint64(i)
		if writer, ok := e.rename.AddressLastWriter(addr); ok {
			e.edges.addMemory(writer, sink)
		}
	}
}

// ProcessForward applies spec §4.6.5 to one Forward record.
func (e *Engine) ProcessForward(offset int64, rec ForwardRecord) {
	curr := e.curr
	if curr.Microop.IsDMAOp() || curr.Microop.IsTrigOp() {
		return
	}
	if !rec.IsReg {
		fatalf(offset, "forward record is not a register")
	}
	if !curr.Microop.IsCallOp() {
		fatalf(offset, "forward record without a preceding call")
	}

	varHandle := e.store.Symbols.Insert(SymbolVariable, rec.Label)
	k := DynamicVariable{Func: e.calleeDynamicFunction, Variable: varHandle}

	if caller, ok := e.rename.UniqueRegInCaller(); ok {
		e.store.SetCallArg(k, caller)
		e.rename.ClearUniqueRegInCaller()
	}

	writer := curr.ID
	if src, ok := e.rename.LastCallSource(); ok {
		writer = src
	}
	e.rename.SetRegisterLastWriter(k, writer)
}
