package dddg

import (
	"encoding/binary"

	"github.com/VictoriaMetrics/fastcache"
)

const noNode NodeID = -1

// addressLastWritten is address_last_written (spec §3): a per-byte
// last-writer map. Backed by *fastcache.Cache, a byte-keyed cache built
// for exactly this access pattern (large, sparse, byte-addressed) — see
// DESIGN.md. Unlike a real cache this index must never silently evict a
// live entry; fastcache is sized generously by the caller and the
// builder's own lifetime (one trace) bounds how much it ever holds.
type addressLastWritten struct {
	cache *fastcache.Cache
}

func newAddressLastWritten() *addressLastWritten {
	// 32MB starting size; fastcache grows its underlying buckets as
	// needed, this just avoids repeated small allocations early on.
	return &addressLastWritten{cache: fastcache.New(32 * 1024 * 1024)}
}

func addrKey(addr uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], addr)
	return buf[:]
}

func (a *addressLastWritten) Get(addr uint64) (NodeID, bool) {
	k := addrKey(addr)
	if !a.cache.Has(k) {
		return noNode, false
	}
	buf := a.cache.Get(nil, k)
	return NodeID(binary.BigEndian.Uint64(buf)), true
}

func (a *addressLastWritten) Set(addr uint64, id NodeID) {
	var v [8]byte
	binary.BigEndian.PutUint64(v[:], uint64(id))
	a.cache.Set(addrKey(addr), v[:])
}

// instScratch is the per-instruction scratch cleared on each new
// Instruction record (spec §3): the address-carrying parameter values
// seen so far for the current instruction.
type paramScratchEntry struct {
	Value uint64
	Size  int
	Label string
}

type instScratch struct {
	values []paramScratchEntry
}

func (s *instScratch) reset() { s.values = s.values[:0] }

func (s *instScratch) append(value uint64, size int, label string) {
	s.values = append(s.values, paramScratchEntry{Value: value, Size: size, Label: label})
}

func (s *instScratch) last() paramScratchEntry {
	return s.values[len(s.values)-1]
}

func (s *instScratch) at(i int) paramScratchEntry { return s.values[i] }

func (s *instScratch) len() int { return len(s.values) }

// RenamingState holds every invalidation-sensitive index the builder
// maintains while scanning the trace (spec §3 "Renaming state (the
// builder's scratch indices)"). It is owned exclusively by one Builder.
type RenamingState struct {
	registerLastWritten map[DynamicVariable]NodeID
	addressLastWritten  *addressLastWritten

	nodesSinceLastRet []NodeID
	lastRet           NodeID
	hasLastRet        bool

	lastDMAFence    NodeID
	hasLastDMAFence bool
	lastDMANodes    []NodeID

	activeMethod       []DynamicFunction
	currDynamicFunc    DynamicFunction
	hasCurrDynamicFunc bool

	prevBBlock string
	currBBlock string

	currMicroop Microop
	prevMicroop Microop
	currInstID  string

	uniqueRegInCaller    DynamicVariable
	hasUniqueRegInCaller bool
	lastCallSource       NodeID
	hasLastCallSource    bool

	scratch instScratch
}

// NewRenamingState returns a fresh, empty renaming state.
func NewRenamingState() *RenamingState {
	return &RenamingState{
		registerLastWritten: make(map[DynamicVariable]NodeID),
		addressLastWritten:  newAddressLastWritten(),
		lastRet:             noNode,
		lastDMAFence:        noNode,
	}
}

func (r *RenamingState) RegisterLastWriter(k DynamicVariable) (NodeID, bool) {
	id, ok := r.registerLastWritten[k]
	return id, ok
}

func (r *RenamingState) SetRegisterLastWriter(k DynamicVariable, id NodeID) {
	r.registerLastWritten[k] = id
}

func (r *RenamingState) AddressLastWriter(addr uint64) (NodeID, bool) {
	return r.addressLastWritten.Get(addr)
}

func (r *RenamingState) SetAddressLastWriter(addr uint64, id NodeID) {
	r.addressLastWritten.Set(addr, id)
}

func (r *RenamingState) AppendSinceLastRet(id NodeID) {
	r.nodesSinceLastRet = append(r.nodesSinceLastRet, id)
}

func (r *RenamingState) DrainSinceLastRet() []NodeID {
	out := r.nodesSinceLastRet
	r.nodesSinceLastRet = nil
	return out
}

func (r *RenamingState) LastRet() (NodeID, bool) {
	if !r.hasLastRet {
		return noNode, false
	}
	return r.lastRet, true
}

func (r *RenamingState) SetLastRet(id NodeID) {
	r.lastRet = id
	r.hasLastRet = true
}

func (r *RenamingState) LastDMAFence() (NodeID, bool) {
	if !r.hasLastDMAFence {
		return noNode, false
	}
	return r.lastDMAFence, true
}

func (r *RenamingState) SetLastDMAFence(id NodeID) {
	r.lastDMAFence = id
	r.hasLastDMAFence = true
}

func (r *RenamingState) AppendLastDMANode(id NodeID) {
	r.lastDMANodes = append(r.lastDMANodes, id)
}

func (r *RenamingState) DrainLastDMANodes() []NodeID {
	out := r.lastDMANodes
	r.lastDMANodes = nil
	return out
}

func (r *RenamingState) PushMethod(df DynamicFunction) {
	r.activeMethod = append(r.activeMethod, df)
	r.currDynamicFunc = df
	r.hasCurrDynamicFunc = true
}

func (r *RenamingState) PopMethod() {
	if len(r.activeMethod) == 0 {
		return
	}
	r.activeMethod = r.activeMethod[:len(r.activeMethod)-1]
	if len(r.activeMethod) > 0 {
		r.currDynamicFunc = r.activeMethod[len(r.activeMethod)-1]
		r.hasCurrDynamicFunc = true
	} else {
		r.hasCurrDynamicFunc = false
	}
}

func (r *RenamingState) ActiveMethodDepth() int { return len(r.activeMethod) }

func (r *RenamingState) TopMethod() (DynamicFunction, bool) {
	if len(r.activeMethod) == 0 {
		return DynamicFunction{}, false
	}
	return r.activeMethod[len(r.activeMethod)-1], true
}

func (r *RenamingState) CurrDynamicFunction() (DynamicFunction, bool) {
	return r.currDynamicFunc, r.hasCurrDynamicFunc
}

func (r *RenamingState) PrevBBlock() string     { return r.prevBBlock }
func (r *RenamingState) CurrBBlock() string     { return r.currBBlock }
func (r *RenamingState) SetPrevBBlock(s string) { r.prevBBlock = s }
func (r *RenamingState) SetCurrBBlock(s string) { r.currBBlock = s }

func (r *RenamingState) CurrMicroop() Microop { return r.currMicroop }
func (r *RenamingState) PrevMicroop() Microop { return r.prevMicroop }

func (r *RenamingState) SetCurrMicroop(m Microop) {
	r.prevMicroop = r.currMicroop
	r.currMicroop = m
}

func (r *RenamingState) SetCurrInstID(id string) { r.currInstID = id }
func (r *RenamingState) CurrInstID() string      { return r.currInstID }

func (r *RenamingState) SetUniqueRegInCaller(v DynamicVariable) {
	r.uniqueRegInCaller = v
	r.hasUniqueRegInCaller = true
}

func (r *RenamingState) UniqueRegInCaller() (DynamicVariable, bool) {
	return r.uniqueRegInCaller, r.hasUniqueRegInCaller
}

func (r *RenamingState) ClearUniqueRegInCaller() { r.hasUniqueRegInCaller = false }

func (r *RenamingState) SetLastCallSource(id NodeID) {
	r.lastCallSource = id
	r.hasLastCallSource = true
}

func (r *RenamingState) LastCallSource() (NodeID, bool) {
	return r.lastCallSource, r.hasLastCallSource
}

func (r *RenamingState) ClearLastCallSource() { r.hasLastCallSource = false }

func (r *RenamingState) ResetScratch() { r.scratch.reset() }
func (r *RenamingState) Scratch() *instScratch { return &r.scratch }
