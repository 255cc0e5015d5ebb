package dddg

// Datapath is the external collaborator interface the builder consumes
// (spec §6 "Collaborator interface"). The scratchpad datapath, global
// optimizer, and scheduler that implement it live outside this package's
// scope; the builder only ever calls these four methods.
type Datapath interface {
	AddFunctionName(name string)
	AddArrayBaseAddress(name string, addr uint64)
	IsReadyMode() bool
	SourceManager() *SymbolTable
}

// NullDatapath is a no-op Datapath, useful for building a DDDG in
// isolation (tests, or callers that only want the graph and don't have a
// scheduler/optimizer collaborator wired up yet).
type NullDatapath struct {
	ReadyMode bool
	symbols   *SymbolTable

	FunctionNames  []string
	ArrayBaseAddrs map[string]uint64
}

// NewNullDatapath returns a Datapath backed by symbols that records every
// call for later inspection instead of acting on it.
func NewNullDatapath(symbols *SymbolTable) *NullDatapath {
	return &NullDatapath{
		symbols:        symbols,
		ArrayBaseAddrs: make(map[string]uint64),
	}
}

func (d *NullDatapath) AddFunctionName(name string) {
	d.FunctionNames = append(d.FunctionNames, name)
}

func (d *NullDatapath) AddArrayBaseAddress(name string, addr uint64) {
	d.ArrayBaseAddrs[name] = addr
}

func (d *NullDatapath) IsReadyMode() bool { return d.ReadyMode }

func (d *NullDatapath) SourceManager() *SymbolTable { return d.symbols }
