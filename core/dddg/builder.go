package dddg

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"

	"github.com/huangqiancun/ALADDIN/internal/progress"
	"github.com/huangqiancun/ALADDIN/log"
	"github.com/huangqiancun/ALADDIN/metrics"
)

// EndOfTrace is returned by BuildInitialDDDG when the trace (or whatever
// was left of it) contained no instruction records (spec §4.7 step 5,
// §7 "End-of-trace before any instruction").
const EndOfTrace int64 = -1

const (
	labelMapStart = "%%%% LABEL MAP START %%%%"
	labelMapEnd   = "%%%% LABEL MAP END %%%%"
)

// defaultProgressFile is the sidecar name the original hardcodes (spec §6,
// §4.7): BuildInitialDDDG always produces it unless the caller names a
// different path.
const defaultProgressFile = "dddg_parse_progress.out"

// countingReader tracks how many bytes have been pulled from the
// underlying reader, standing in for gzoffset(): the trace's "byte
// offset" is always measured against the file on disk, compressed or
// not, never against the decompressed line stream.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Builder owns one build: the symbol table, program store, renaming
// state, and dependence engine for a single BuildInitialDDDG invocation
// (spec §5, "a single owned bundle... lifecycle equal to one invocation").
type Builder struct {
	Symbols *SymbolTable
	Store   *ProgramStore
	Rename  *RenamingState
	Engine  *Engine

	datapath Datapath
	log      log.Logger
}

// NewBuilder wires up a fresh, empty builder over symbols, bound to
// datapath. Callers that construct their own Datapath (e.g. one backed by
// a real scratchpad/scheduler) must build it from the same symbols so
// that datapath.SourceManager() and the builder agree on every handle.
func NewBuilder(symbols *SymbolTable, datapath Datapath) *Builder {
	store := NewProgramStore(symbols)
	rename := NewRenamingState()
	return &Builder{
		Symbols:  symbols,
		Store:    store,
		Rename:   rename,
		Engine:   NewEngine(store, rename, datapath),
		datapath: datapath,
		log:      log.Root(),
	}
}

// Datapath returns the collaborator the builder was constructed with.
func (b *Builder) Datapath() Datapath { return b.datapath }

// NewNullBuilder returns a Builder with a fresh symbol table and a
// NullDatapath collaborator — enough to build a DDDG in isolation, for
// callers and tests that don't have a scheduler wired up yet.
func NewNullBuilder() *Builder {
	symbols := NewSymbolTable()
	return NewBuilder(symbols, NewNullDatapath(symbols))
}

// BuildInitialDDDG streams tracePath (transparently gzip-decompressed if
// it looks gzip-magic-prefixed) and builds the DDDG into b.Store (spec
// §4.7). progressPath receives periodic {bytes,nodes} rows (spec §6
// "Progress file"); an empty progressPath falls back to
// defaultProgressFile in the working directory. It returns the final trace byte offset
// consumed, or EndOfTrace if the trace held no instruction records.
//
// Any malformed-trace or structural-anomaly condition surfaces as a
// non-nil error (spec §7): parsing never partially succeeds.
func (b *Builder) BuildInitialDDDG(tracePath, progressPath string) (offset int64, err error) {
	runID := uuid.New()
	b.log = b.log.New("run", runID.String())

	defer func() {
		if r := recover(); r != nil {
			be, ok := r.(*BuildError)
			if !ok {
				panic(r)
			}
			err = be
		}
	}()

	f, openErr := os.Open(tracePath)
	if openErr != nil {
		return 0, fmt.Errorf("dddg: open trace: %w", openErr)
	}
	defer f.Close()

	info, statErr := f.Stat()
	if statErr != nil {
		return 0, fmt.Errorf("dddg: stat trace: %w", statErr)
	}

	cr := &countingReader{r: f}
	src, closeSrc, srcErr := maybeDecompress(cr)
	if srcErr != nil {
		return 0, srcErr
	}
	if closeSrc != nil {
		defer closeSrc()
	}

	if progressPath == "" {
		progressPath = defaultProgressFile
	}
	tracker, trackerErr := progress.New(progressPath, info.Size())
	if trackerErr != nil {
		return 0, trackerErr
	}
	defer tracker.Close()

	b.log.Info("generating DDDG", "trace", tracePath, "bytes", info.Size())

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)

	var (
		seenFirstLine         bool
		firstFunction         string
		firstFunctionReturned bool
		inLabelMap            bool
		labelMapDone          bool
	)

	for scanner.Scan() {
		line := scanner.Text()
		tracker.Report(cr.n, b.Store.NumNodes())

		if !labelMapDone {
			if !inLabelMap {
				if strings.Contains(line, labelMapStart) {
					inLabelMap = true
					continue
				}
			} else {
				if strings.Contains(line, labelMapEnd) {
					labelMapDone = true
					inLabelMap = false
					continue
				}
				b.parseLabelMapLine(cr.n, line)
				continue
			}
		}

		idx := strings.IndexByte(line, ',')
		if idx < 0 {
			if firstFunctionReturned {
				break
			}
			continue
		}
		labelMapDone = true

		tag := line[:idx]
		fields := SplitTrailingFields(line[idx+1:])

		switch tag {
		case "0":
			rec := ParseInstruction(cr.n, fields)
			if !seenFirstLine {
				seenFirstLine = true
				firstFunction = rec.StaticFunction
			}
			firstFunctionReturned = rec.Microop.IsRetOp() && rec.StaticFunction == firstFunction
			b.Engine.ProcessInstruction(cr.n, rec)
		case "r":
			b.Engine.ProcessResult(cr.n, ParseResult(cr.n, fields))
		case "f":
			b.Engine.ProcessForward(cr.n, ParseForward(cr.n, fields))
		default:
			slot, convErr := strconv.Atoi(tag)
			if convErr != nil {
				fatalf(cr.n, "unrecognized record tag %q", tag)
			}
			b.Engine.ProcessParameter(cr.n, ParseParameter(cr.n, slot, fields))
		}
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return 0, fmt.Errorf("dddg: read trace: %w", scanErr)
	}

	if !seenFirstLine {
		b.log.Info("reached end of trace with no instructions")
		return EndOfTrace, nil
	}

	b.Engine.Flush()

	metrics.Builds.Inc(1)
	metrics.Nodes.Inc(int64(b.Store.NumNodes()))
	reg, mem, ctrl := b.Store.DepCounts()
	metrics.RegisterEdges.Inc(int64(reg))
	metrics.MemoryEdges.Inc(int64(mem))
	metrics.ControlEdges.Inc(int64(ctrl))

	b.PrintSummary()
	tracker.Report(cr.n, b.Store.NumNodes())
	return cr.n, nil
}

// maybeDecompress peeks at the first two bytes of cr and, if they're the
// gzip magic number, wraps it in a gzip.Reader; otherwise it returns cr
// unwrapped. This is the transparent-decompression behavior zlib's
// gzopen/gzread give the original for free; compress/gzip requires the
// sniff.
func maybeDecompress(cr *countingReader) (io.Reader, func(), error) {
	br := bufio.NewReader(cr)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, nil, fmt.Errorf("dddg: probe trace: %w", err)
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("dddg: open gzip trace: %w", err)
		}
		return gz, func() { gz.Close() }, nil
	}
	return br, nil, nil
}

// parseLabelMapLine applies one labelmap-section line to the store (spec
// §4.5, §9 "Labelmap"): the canonical label, plus one inlined replica per
// caller, each pointing back at the canonical label via AddInlineLabel.
func (b *Builder) parseLabelMapLine(offset int64, line string) {
	rec := ParseLabelMapLine(offset, line)
	canonical := UniqueLabel{Function: rec.Function, Label: rec.Label, Line: rec.Line}
	b.Store.AddLabel(rec.Line, canonical)
	for _, caller := range rec.Callers {
		inlined := UniqueLabel{Function: caller, Label: rec.Label, Line: rec.Line}
		b.Store.AddLabel(rec.Line, inlined)
		b.Store.AddInlineLabel(inlined, canonical)
	}
}

// PrintSummary writes the final node/edge counts to stdout (spec §6
// "Output... summary statistics printed to stdout").
func (b *Builder) PrintSummary() {
	reg, mem, ctrl := b.Store.DepCounts()
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Count"})
	table.Append([]string{"Nodes", strconv.Itoa(b.Store.NumNodes())})
	table.Append([]string{"Edges", strconv.Itoa(reg + mem + ctrl)})
	table.Append([]string{"Register dependencies", strconv.Itoa(reg)})
	table.Append([]string{"Memory dependencies", strconv.Itoa(mem)})
	table.Append([]string{"Control dependencies", strconv.Itoa(ctrl)})
	table.Render()
}
