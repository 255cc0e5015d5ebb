package dddg

// SymbolKind discriminates the five interned namespaces: Functions,
// Variables (registers and arrays share this space, distinguished only by
// usage site), Labels, BasicBlocks, and Instructions.
type SymbolKind int

const (
	SymbolFunction SymbolKind = iota
	SymbolVariable
	SymbolLabel
	SymbolBasicBlock
	SymbolInstruction
)

// Handle is a small, stable integer identifying an interned symbol.
// Handles compare by identity (plain integer equality); string comparison
// is only ever used at insertion time.
type Handle int

const noHandle Handle = -1

type symbolEntry struct {
	name        string
	kind        SymbolKind
	invocations int // mutated only by the dependence engine, Functions only
}

// SymbolTable interns (kind, name) pairs to stable handles. It is owned
// exclusively by one Builder for the lifetime of one build; see spec §5.
type SymbolTable struct {
	byKey   map[symbolKey]Handle
	entries []symbolEntry
}

type symbolKey struct {
	kind SymbolKind
	name string
}

// NewSymbolTable returns an empty interning table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		byKey: make(map[symbolKey]Handle),
	}
}

// Get returns the existing handle for (kind, name), or (noHandle, false)
// if it has not been interned yet.
func (t *SymbolTable) Get(kind SymbolKind, name string) (Handle, bool) {
	h, ok := t.byKey[symbolKey{kind, name}]
	return h, ok
}

// Insert returns the existing handle for (kind, name) if present,
// otherwise interns it and returns the newly created handle. Insertion is
// idempotent under re-insertion (spec §4.2).
func (t *SymbolTable) Insert(kind SymbolKind, name string) Handle {
	key := symbolKey{kind, name}
	if h, ok := t.byKey[key]; ok {
		return h
	}
	h := Handle(len(t.entries))
	t.entries = append(t.entries, symbolEntry{name: name, kind: kind})
	t.byKey[key] = h
	return h
}

// Name returns the interned name for h.
func (t *SymbolTable) Name(h Handle) string {
	if h == noHandle {
		return ""
	}
	return t.entries[h].name
}

// Invocations returns the current invocation count of the Function
// identified by h. Only meaningful for SymbolFunction handles.
func (t *SymbolTable) Invocations(h Handle) int {
	return t.entries[h].invocations
}

// IncrementInvocations bumps the invocation count of the Function h and
// returns the new count. Called only by the dependence engine (spec
// §4.2, "mutated only by the dependence engine").
func (t *SymbolTable) IncrementInvocations(h Handle) int {
	t.entries[h].invocations++
	return t.entries[h].invocations
}
