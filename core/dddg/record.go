package dddg

import (
	"fmt"
	"strconv"
	"strings"
)

// BuildError reports a contract-violation: malformed trace data or
// builder/trace desynchronization (spec §7). These never represent a
// recoverable condition — the trace producer or the engine itself is
// corrupt, and the caller must abort the run.
type BuildError struct {
	Offset int64
	Reason string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("dddg: fatal at byte offset %d: %s", e.Offset, e.Reason)
}

func fatalf(offset int64, format string, args ...interface{}) {
	panic(&BuildError{Offset: offset, Reason: fmt.Sprintf(format, args...)})
}

// RecordKind discriminates the four comma-separated record grammars (spec
// §4.5); labelmap-section lines are parsed separately by ParseLabelMapLine.
type RecordKind int

const (
	RecordInstruction RecordKind = iota
	RecordResult
	RecordForward
	RecordParameter
)

// ValueType classifies a parameter/result's value_str (spec §4.5).
type ValueType int

const (
	ValueInteger ValueType = iota
	ValueFloat
	ValueVector
)

// ClassifyValue determines the ValueType of a parameter value the way the
// trace producer encodes it: Vector if size > 64 bits, else Float if the
// value string contains a decimal point, else Integer.
func ClassifyValue(sizeBits int, valueStr string) ValueType {
	if sizeBits > 64 {
		return ValueVector
	}
	if strings.Contains(valueStr, ".") {
		return ValueFloat
	}
	return ValueInteger
}

// InstructionRecord is tag "0" (spec §4.5/§6). BBlockID is the raw
// "<name>:<loop_depth>" id as it appears on the wire — curr_bblock must
// stay in this form so it can be compared against a PHI parameter's
// raw prev_bbid (spec §4.6.1 step 7, §4.6.2 step 5). BBlockName is the
// name-only part, used only for basic-block symbol interning.
type InstructionRecord struct {
	LineNum        int
	StaticFunction string
	BBlockID       string
	BBlockName     string
	LoopDepth      int
	InstID         string
	Microop        Microop
	NodeID         NodeID
}

// ParameterRecord is tag N>=1 (spec §4.5/§6). PrevBBID is only populated
// for PHI instructions.
type ParameterRecord struct {
	Slot     int
	Size     int
	ValueStr string
	IsReg    bool
	Label    string
	PrevBBID string
	HasPrevBBID bool
}

// ResultRecord is tag "r" (spec §4.5/§6).
type ResultRecord struct {
	Size     int
	ValueStr string
	IsReg    bool
	Label    string
}

// ForwardRecord is tag "f" (spec §4.5/§6).
type ForwardRecord struct {
	Size  int
	Value float64
	IsReg bool
	Label string
}

// ParseMicroop validates and converts a raw trace microop integer code
// into the closed Microop enumeration. Values outside the known range are
// a structural anomaly (spec §7): the producer and the engine have
// desynchronized, so parsing is fatal.
func ParseMicroop(offset int64, code int) Microop {
	if code < int(MicroopCall) || code > int(MicroopSqrt) {
		fatalf(offset, "unknown microop code %d", code)
	}
	return Microop(code)
}

// ParseBBlockID splits a "<name>:<loop_depth>" basic-block id (spec §4.5).
func ParseBBlockID(offset int64, bblockID string) (name string, loopDepth int) {
	idx := strings.LastIndexByte(bblockID, ':')
	if idx < 0 {
		fatalf(offset, "malformed bblock id %q: missing ':'", bblockID)
	}
	name = bblockID[:idx]
	depth, err := strconv.Atoi(bblockID[idx+1:])
	if err != nil {
		fatalf(offset, "malformed bblock id %q: %v", bblockID, err)
	}
	return name, depth
}

func parseInt(offset int64, field, s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		fatalf(offset, "malformed %s %q: %v", field, s, err)
	}
	return v
}

func parseFloat(offset int64, field, s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		fatalf(offset, "malformed %s %q: %v", field, s, err)
	}
	return v
}

func parseBool01(offset int64, field, s string) bool {
	switch s {
	case "0":
		return false
	case "1":
		return true
	default:
		fatalf(offset, "malformed %s %q: expected 0 or 1", field, s)
		return false
	}
}

// ParseInstruction parses the fields of a tag-"0" record: line_num,
// static_function, bblock_id, inst_id, microop, node_id.
func ParseInstruction(offset int64, fields []string) InstructionRecord {
	if len(fields) != 6 {
		fatalf(offset, "instruction record expects 6 fields, got %d", len(fields))
	}
	bblockName, loopDepth := ParseBBlockID(offset, fields[2])
	if loopDepth >= 1000 {
		fatalf(offset, "loop depth %d >= 1000: malformed trace", loopDepth)
	}
	microopCode := parseInt(offset, "microop", fields[4])
	nodeIDInt := parseInt(offset, "node_id", fields[5])
	return InstructionRecord{
		LineNum:        parseInt(offset, "line_num", fields[0]),
		StaticFunction: fields[1],
		BBlockID:       fields[2],
		BBlockName:     bblockName,
		LoopDepth:      loopDepth,
		InstID:         fields[3],
		Microop:        ParseMicroop(offset, microopCode),
		NodeID:         NodeID(nodeIDInt),
	}
}

// ParseResult parses a tag-"r" record: size, value_str, is_reg, label.
func ParseResult(offset int64, fields []string) ResultRecord {
	if len(fields) != 4 {
		fatalf(offset, "result record expects 4 fields, got %d", len(fields))
	}
	return ResultRecord{
		Size:     parseInt(offset, "size", fields[0]),
		ValueStr: fields[1],
		IsReg:    parseBool01(offset, "is_reg", fields[2]),
		Label:    fields[3],
	}
}

// ParseForward parses a tag-"f" record: size, value (f64), is_reg, label.
func ParseForward(offset int64, fields []string) ForwardRecord {
	if len(fields) != 4 {
		fatalf(offset, "forward record expects 4 fields, got %d", len(fields))
	}
	return ForwardRecord{
		Size:  parseInt(offset, "size", fields[0]),
		Value: parseFloat(offset, "value", fields[1]),
		IsReg: parseBool01(offset, "is_reg", fields[2]),
		Label: fields[3],
	}
}

// ParseParameter parses a tag-N (N>=1) record: size, value_str, is_reg,
// label[, prev_bbid]. slot is the already-parsed tag value.
func ParseParameter(offset int64, slot int, fields []string) ParameterRecord {
	if len(fields) != 4 && len(fields) != 5 {
		fatalf(offset, "parameter record expects 4 or 5 fields, got %d", len(fields))
	}
	rec := ParameterRecord{
		Slot:     slot,
		Size:     parseInt(offset, "size", fields[0]),
		ValueStr: fields[1],
		IsReg:    parseBool01(offset, "is_reg", fields[2]),
		Label:    fields[3],
	}
	if len(fields) == 5 {
		rec.PrevBBID = fields[4]
		rec.HasPrevBBID = true
	}
	return rec
}

// SplitTrailingFields splits a comma-joined remainder into fields.
func SplitTrailingFields(rest string) []string {
	if rest == "" {
		return nil
	}
	return strings.Split(rest, ",")
}

// LabelMapLine is one line of the labelmap section body (spec §4.5/§6):
// "<func>/<label> <line_num>[ inline <caller> <caller>…]".
type LabelMapLine struct {
	Function string
	Label    string
	Line     int
	Inline   bool
	Callers  []string
}

// ParseLabelMapLine parses one labelmap-section line.
func ParseLabelMapLine(offset int64, line string) LabelMapLine {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		fatalf(offset, "malformed labelmap line %q", line)
	}
	funcLabel := fields[0]
	idx := strings.LastIndexByte(funcLabel, '/')
	if idx < 0 {
		fatalf(offset, "malformed labelmap function/label %q", funcLabel)
	}
	lineNum := parseInt(offset, "labelmap line_num", fields[1])
	rec := LabelMapLine{
		Function: funcLabel[:idx],
		Label:    funcLabel[idx+1:],
		Line:     lineNum,
	}
	if len(fields) > 2 && fields[2] == "inline" {
		rec.Inline = true
		rec.Callers = fields[3:]
	}
	return rec
}
