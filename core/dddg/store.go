package dddg

import (
	mapset "github.com/deckarep/golang-set/v2"
)

type registerEdgeKey struct {
	Sink NodeID
	Slot int
}

// ProgramStore owns the node vector and the three edge indices, plus the
// label map and the call-argument alias map (spec §4.3, §4.4). It is
// written only by the Builder's dependence engine, and handed off by
// ownership transfer to the caller once BuildInitialDDDG returns (spec §5).
type ProgramStore struct {
	Symbols *SymbolTable

	nodes []Node

	registerEdges map[NodeID]mapset.Set[registerEdgeKey]
	memoryEdges   map[NodeID]mapset.Set[NodeID]
	controlEdges  map[NodeID]mapset.Set[NodeID]

	labelMap       map[int][]UniqueLabel
	inlineLabelMap map[UniqueLabel]UniqueLabel

	callArgMap map[DynamicVariable]DynamicVariable

	regDepCount int
	memDepCount int
	ctrlDepCount int
}

// NewProgramStore returns an empty store bound to the given symbol table.
func NewProgramStore(symbols *SymbolTable) *ProgramStore {
	return &ProgramStore{
		Symbols:        symbols,
		registerEdges:  make(map[NodeID]mapset.Set[registerEdgeKey]),
		memoryEdges:    make(map[NodeID]mapset.Set[NodeID]),
		controlEdges:   make(map[NodeID]mapset.Set[NodeID]),
		labelMap:       make(map[int][]UniqueLabel),
		inlineLabelMap: make(map[UniqueLabel]UniqueLabel),
		callArgMap:     make(map[DynamicVariable]DynamicVariable),
	}
}

// NumNodes returns the number of nodes inserted so far.
func (s *ProgramStore) NumNodes() int { return len(s.nodes) }

// Node returns the node with the given id.
func (s *ProgramStore) Node(id NodeID) *Node { return &s.nodes[id] }

// InsertNode appends a new node. id must equal the next free id (spec
// §4.3: "asserts id == next"); violating that is a builder-internal
// contract bug, not a trace error, so it panics rather than returning an
// *BuildError.
func (s *ProgramStore) InsertNode(id NodeID, microop Microop) *Node {
	if int(id) != len(s.nodes) {
		panic("dddg: InsertNode called with non-contiguous id")
	}
	s.nodes = append(s.nodes, Node{ID: id, Microop: microop})
	return &s.nodes[len(s.nodes)-1]
}

// AddEdge inserts an edge once; duplicates on the same (source, sink,
// label) triple are silently idempotent (spec §4.3, invariant 3).
func (s *ProgramStore) AddEdge(source, sink NodeID, label EdgeLabel) {
	switch {
	case label == MemoryEdge:
		set, ok := s.memoryEdges[source]
		if !ok {
			set = mapset.NewThreadUnsafeSet[NodeID]()
			s.memoryEdges[source] = set
		}
		if set.Add(sink) {
			s.memDepCount++
		}
	case label == ControlEdge:
		set, ok := s.controlEdges[source]
		if !ok {
			set = mapset.NewThreadUnsafeSet[NodeID]()
			s.controlEdges[source] = set
		}
		if set.Add(sink) {
			s.ctrlDepCount++
		}
	default:
		key := registerEdgeKey{Sink: sink, Slot: int(label)}
		set, ok := s.registerEdges[source]
		if !ok {
			set = mapset.NewThreadUnsafeSet[registerEdgeKey]()
			s.registerEdges[source] = set
		}
		if set.Add(key) {
			s.regDepCount++
		}
	}
}

// HasRegisterEdge reports whether a register edge source->sink exists for
// the given parameter slot. Exposed for tests checking invariant 4.
func (s *ProgramStore) HasRegisterEdge(source, sink NodeID, slot int) bool {
	set, ok := s.registerEdges[source]
	if !ok {
		return false
	}
	return set.Contains(registerEdgeKey{Sink: sink, Slot: slot})
}

// HasMemoryEdge reports whether a memory edge source->sink exists.
func (s *ProgramStore) HasMemoryEdge(source, sink NodeID) bool {
	set, ok := s.memoryEdges[source]
	return ok && set.Contains(sink)
}

// HasControlEdge reports whether a control edge source->sink exists.
func (s *ProgramStore) HasControlEdge(source, sink NodeID) bool {
	set, ok := s.controlEdges[source]
	return ok && set.Contains(sink)
}

// DepCounts returns the running register/memory/control dependence
// counts, for the final summary (spec §6 Output).
func (s *ProgramStore) DepCounts() (register, memory, control int) {
	return s.regDepCount, s.memDepCount, s.ctrlDepCount
}

// AllEdges returns every edge currently in the store, for callers that want
// the whole graph once BuildInitialDDDG has returned; the engine itself
// never iterates edges mid-build.
func (s *ProgramStore) AllEdges() []Edge {
	edges := make([]Edge, 0, s.regDepCount+s.memDepCount+s.ctrlDepCount)
	for source, set := range s.registerEdges {
		for key := range set.Iter() {
			edges = append(edges, Edge{Source: source, Sink: key.Sink, Label: EdgeLabel(key.Slot)})
		}
	}
	for source, set := range s.memoryEdges {
		for sink := range set.Iter() {
			edges = append(edges, Edge{Source: source, Sink: sink, Label: MemoryEdge})
		}
	}
	for source, set := range s.controlEdges {
		for sink := range set.Iter() {
			edges = append(edges, Edge{Source: source, Sink: sink, Label: ControlEdge})
		}
	}
	return edges
}

// AddLabel records a UniqueLabel at its source line (spec §3 "Label map").
func (s *ProgramStore) AddLabel(line int, label UniqueLabel) {
	s.labelMap[line] = append(s.labelMap[line], label)
}

// AddInlineLabel maps an inlined replica label back to its canonical
// original, so directives attached to the original propagate.
func (s *ProgramStore) AddInlineLabel(replica, canonical UniqueLabel) {
	s.inlineLabelMap[replica] = canonical
}

// Labels returns the labels recorded at the given source line.
func (s *ProgramStore) Labels(line int) []UniqueLabel { return s.labelMap[line] }

// SetCallArg records that the callee-side formal k aliases the
// caller-side actual v (spec §4.4).
func (s *ProgramStore) SetCallArg(k, v DynamicVariable) {
	s.callArgMap[k] = v
}

// ResolveCallArg follows the call-arg chain starting at k until a key has
// no entry, returning the last value seen, or k itself if it was never
// aliased (spec §4.4, "transitive lookup collapses chains").
func (s *ProgramStore) ResolveCallArg(k DynamicVariable) DynamicVariable {
	cur := k
	seen := make(map[DynamicVariable]bool)
	for {
		next, ok := s.callArgMap[cur]
		if !ok {
			return cur
		}
		if seen[cur] {
			// Cycles cannot arise from a well-formed trace (call_arg_map
			// is append-only and acyclic by construction), but guard
			// against an infinite loop rather than hang on corrupt input.
			return cur
		}
		seen[cur] = true
		cur = next
	}
}
