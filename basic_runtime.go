// basic_runtime.go - program store, cooperative pump, immediate executor
//
// The runtime is a state machine: runProgram installs an active-program
// record and the host drives it with Pump(nowMs). WAIT, INPUT and STOP park
// the record in distinct ways; resumption is another Pump call, a delivered
// input line, or CONT.

package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const defaultMaxSteps = 200000

type execMode int

const (
	modeImmediate execMode = iota
	modeProgram
)

type forFrame struct {
	Var  string
	PC   int // step index just after the FOR
	End  int
	Step int
}

type progStep struct {
	line int
	stmt Statement
}

type compiledProgram struct {
	steps      []progStep
	lineStart  map[int]int
	labelStart map[string]int
}

type dataMark struct {
	line  int
	index int
}

type activeProgram struct {
	prog             *compiledProgram
	pc               int
	steps            int
	wakeAtMs         int64
	promptOnComplete bool
	token            int
	waitingInput     *suspendInput
	stopped          bool
}

type BasicRuntime struct {
	program map[int]string
	labels  map[string]int

	vars   map[string]basicValue
	arrays map[string]*basicArray

	forStack    []forFrame
	gosubStack  []int
	repeatStack []int
	whileStack  []int

	dataPool   []basicValue
	dataMarks  []dataMark
	dataCursor int

	out     *byteFIFO
	adapter MachineAdapter

	active   *activeProgram
	runToken int

	MaxSteps int

	autoMode bool
	autoNext int
	autoStep int

	// One open file handle per channel number.
	channels map[int]FileHandle

	// Pending input line, kept for snapshots.
	inputBuffer string

	// waitingEnter marks a WAIT-without-argument pause.
	waitingEnter bool
}

func NewBasicRuntime(out *byteFIFO, adapter MachineAdapter) *BasicRuntime {
	return &BasicRuntime{
		program:  make(map[int]string),
		labels:   make(map[string]int),
		vars:     make(map[string]basicValue),
		arrays:   make(map[string]*basicArray),
		channels: make(map[int]FileHandle),
		out:      out,
		MaxSteps: defaultMaxSteps,
	}
}

func (rt *BasicRuntime) SetAdapter(adapter MachineAdapter) {
	rt.adapter = adapter
}

// Output helpers. Everything user-visible flows through the output FIFO.

func (rt *BasicRuntime) emit(text string) {
	rt.out.PushString(text)
}

func (rt *BasicRuntime) emitLine(text string) {
	rt.out.PushString(text)
	rt.out.Push('\n')
}

func (rt *BasicRuntime) pushStatus(status string, prompt bool) {
	rt.emitLine(status)
	if prompt {
		rt.emit("> ")
	}
}

// Program store.

// StoreLine stores or deletes one numbered line. The body must already parse.
func (rt *BasicRuntime) StoreLine(num int, body string) *BasicError {
	if num <= 0 {
		return basicErrf(errBadLine, "BAD LINE NUMBER")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		delete(rt.program, num)
		rt.reindexLabels()
		return nil
	}
	parsed, err := parseBasicLine(body)
	if err != nil {
		return err
	}
	rt.program[num] = body
	if parsed.Label != "" {
		rt.labels[parsed.Label] = num
	}
	return nil
}

func (rt *BasicRuntime) reindexLabels() {
	rt.labels = make(map[string]int)
	for _, num := range rt.sortedLines() {
		parsed, err := parseBasicLine(rt.program[num])
		if err == nil && parsed.Label != "" {
			rt.labels[parsed.Label] = num
		}
	}
}

func (rt *BasicRuntime) sortedLines() []int {
	nums := make([]int, 0, len(rt.program))
	for n := range rt.program {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// compile flattens the stored program into an executable step list and
// harvests the DATA pool in numeric line order.
func (rt *BasicRuntime) compile() (*compiledProgram, *BasicError) {
	prog := &compiledProgram{
		lineStart:  make(map[int]int),
		labelStart: make(map[string]int),
	}
	rt.dataPool = nil
	rt.dataMarks = nil
	rt.dataCursor = 0

	for _, num := range rt.sortedLines() {
		parsed, err := parseBasicLine(rt.program[num])
		if err != nil {
			return nil, err
		}
		prog.lineStart[num] = len(prog.steps)
		if parsed.Label != "" {
			prog.labelStart[parsed.Label] = len(prog.steps)
		}
		for _, stmt := range parsed.Statements {
			if data, ok := stmt.(*StmtData); ok {
				rt.dataMarks = append(rt.dataMarks, dataMark{line: num, index: len(rt.dataPool)})
				rt.dataPool = append(rt.dataPool, data.Values...)
			}
			prog.steps = append(prog.steps, progStep{line: num, stmt: stmt})
		}
	}
	return prog, nil
}

func (rt *BasicRuntime) resolveRef(prog *compiledProgram, ref lineRef) (int, *BasicError) {
	if ref.Label != "" {
		if pc, ok := prog.labelStart[ref.Label]; ok {
			return pc, nil
		}
		return 0, basicErrf(errNoLine, "NO LINE *%s", ref.Label)
	}
	if pc, ok := prog.lineStart[ref.Num]; ok {
		return pc, nil
	}
	return 0, basicErrf(errNoLine, "NO LINE %d", ref.Num)
}

// restoreData seeks the DATA cursor to the first value at or beyond the
// target line; target zero rewinds to the start.
func (rt *BasicRuntime) restoreData(target int) {
	if target <= 0 {
		rt.dataCursor = 0
		return
	}
	for _, mark := range rt.dataMarks {
		if mark.line >= target {
			rt.dataCursor = mark.index
			return
		}
	}
	rt.dataCursor = len(rt.dataPool)
}

func (rt *BasicRuntime) clearState() {
	rt.vars = make(map[string]basicValue)
	rt.arrays = make(map[string]*basicArray)
	rt.forStack = nil
	rt.gosubStack = nil
	rt.repeatStack = nil
	rt.whileStack = nil
	rt.dataCursor = 0
}

// RunProgram compiles and installs the active program. A zero ref starts at
// the first line.
func (rt *BasicRuntime) RunProgram(target lineRef, prompt bool) *BasicError {
	prog, err := rt.compile()
	if err != nil {
		return err
	}
	rt.clearState()

	pc := 0
	if target.valid() {
		if pc, err = rt.resolveRef(prog, target); err != nil {
			return err
		}
	}

	rt.runToken++
	rt.active = &activeProgram{
		prog:             prog,
		pc:               pc,
		token:            rt.runToken,
		promptOnComplete: prompt,
	}
	rt.waitingEnter = false
	return nil
}

// CancelRun bumps the run token; the pump aborts on its next call.
func (rt *BasicRuntime) CancelRun() {
	rt.runToken++
}

func (rt *BasicRuntime) IsProgramRunning() bool {
	return rt.active != nil
}

func (rt *BasicRuntime) IsAwaitingInput() bool {
	return rt.active != nil && (rt.active.waitingInput != nil || rt.waitingEnter)
}

func (rt *BasicRuntime) IsStopped() bool {
	return rt.active != nil && rt.active.stopped
}

// Pump advances the active program. Statements execute while nowMs has
// reached the wake time; WAIT re-arms the wake time, INPUT and STOP park the
// program entirely.
func (rt *BasicRuntime) Pump(nowMs int64) {
	ap := rt.active
	if ap == nil || ap.waitingInput != nil || ap.stopped || rt.waitingEnter {
		return
	}
	if ap.token != rt.runToken {
		rt.active = nil
		return
	}

	for rt.active == ap && nowMs >= ap.wakeAtMs {
		if ap.token != rt.runToken {
			rt.active = nil
			return
		}
		if ap.pc < 0 || ap.pc >= len(ap.prog.steps) {
			rt.finishProgram(ap, "OK")
			return
		}

		ap.steps++
		if ap.steps > rt.MaxSteps {
			rt.failProgram(ap, basicErrf(errRunaway, "RUNAWAY PROGRAM"))
			return
		}

		step := ap.prog.steps[ap.pc]
		ap.pc++
		err := rt.execStatement(step.stmt, modeProgram)
		if err == nil {
			continue
		}
		switch sig := err.(type) {
		case *suspendWait:
			// WAIT also resets the runaway counter so timed loops
			// can run indefinitely.
			ap.wakeAtMs = nowMs + sig.DelayMs
			ap.steps = 0
			return
		case *suspendInput:
			if sig.Targets == nil && sig.Prompt == "" {
				rt.waitingEnter = true
			} else {
				ap.waitingInput = sig
				if sig.Prompt != "" {
					rt.emit(sig.Prompt)
				} else {
					rt.emit("? ")
				}
			}
			return
		case *suspendStop:
			ap.stopped = true
			rt.pushStatus("BREAK", ap.promptOnComplete)
			return
		default:
			rt.failProgram(ap, asBasicError(err))
			return
		}
	}
}

func (rt *BasicRuntime) finishProgram(ap *activeProgram, status string) {
	if rt.active == ap {
		rt.active = nil
	}
	rt.pushStatus(status, ap.promptOnComplete)
}

func (rt *BasicRuntime) failProgram(ap *activeProgram, err *BasicError) {
	if rt.active == ap {
		rt.active = nil
	}
	rt.pushStatus("ERR "+err.Error(), ap.promptOnComplete)
}

// Cont resumes a program parked by STOP.
func (rt *BasicRuntime) Cont() *BasicError {
	if rt.active == nil || !rt.active.stopped {
		return basicErrf(errBadStmt, "CAN'T CONTINUE")
	}
	rt.active.stopped = false
	rt.active.steps = 0
	return nil
}

// ProvideInput delivers one host input line to a parked INPUT or to a
// WAIT-for-Enter pause.
func (rt *BasicRuntime) ProvideInput(line string) {
	if rt.waitingEnter {
		rt.waitingEnter = false
		rt.inputBuffer = ""
		return
	}
	ap := rt.active
	if ap == nil || ap.waitingInput == nil {
		rt.inputBuffer = line
		return
	}
	req := ap.waitingInput
	ap.waitingInput = nil
	rt.inputBuffer = ""

	values := splitInputLine(line)
	for i, target := range req.Targets {
		raw := ""
		if i < len(values) {
			raw = values[i]
		}
		value := coerceInput(raw, target.isString())
		if err := rt.assignTo(target, value); err != nil {
			rt.failProgram(ap, err)
			return
		}
	}
	ap.steps = 0
}

// splitInputLine splits on commas outside double quotes and strips quoting.
func splitInputLine(line string) []string {
	var parts []string
	var sb strings.Builder
	inQuotes := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			parts = append(parts, strings.TrimSpace(sb.String()))
			sb.Reset()
		default:
			sb.WriteByte(ch)
		}
	}
	parts = append(parts, strings.TrimSpace(sb.String()))
	return parts
}

func coerceInput(raw string, wantString bool) basicValue {
	if wantString {
		return strValue(raw)
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return numValue(0)
	}
	return numValue(n)
}

func (rt *BasicRuntime) assignTo(target assignTarget, value basicValue) *BasicError {
	if target.isString() != value.IsStr {
		return basicErrf(errBadLet, "TYPE MISMATCH")
	}
	if len(target.Subs) > 0 {
		arr, ok := rt.arrays[target.Name]
		if !ok {
			return basicErrf(errBadVar, "UNDIMENSIONED %s", target.Name)
		}
		subs, err := rt.evalSubs(target.Subs)
		if err != nil {
			return err
		}
		return arr.set(subs, value)
	}
	return rt.setVar(target.Name, value)
}

// ExecuteLine handles one line typed at the monitor prompt: AUTO mode, a
// numbered line edit, or immediate statements.
func (rt *BasicRuntime) ExecuteLine(input string) {
	line := strings.TrimSpace(input)

	if rt.autoMode {
		if line == "." {
			rt.autoMode = false
			rt.pushStatus("OK", true)
			return
		}
		if err := rt.StoreLine(rt.autoNext, line); err != nil {
			rt.pushStatus("ERR "+err.Error(), true)
			return
		}
		rt.autoNext += rt.autoStep
		rt.emit(fmt.Sprintf("%d ", rt.autoNext))
		return
	}

	if line == "" {
		rt.emit("> ")
		return
	}

	// A leading integer stores or deletes a program line.
	if line[0] >= '0' && line[0] <= '9' {
		idx := 0
		for idx < len(line) && line[idx] >= '0' && line[idx] <= '9' {
			idx++
		}
		num, convErr := strconv.Atoi(line[:idx])
		if convErr != nil || num <= 0 {
			rt.pushStatus("ERR "+basicErrf(errBadLine, "BAD LINE NUMBER").Error(), true)
			return
		}
		if idx < len(line) && line[idx] != ' ' && line[idx] != '\t' {
			rt.pushStatus("ERR "+basicErrf(errBadLine, "BAD LINE NUMBER").Error(), true)
			return
		}
		if err := rt.StoreLine(num, line[idx:]); err != nil {
			rt.pushStatus("ERR "+err.Error(), true)
			return
		}
		return
	}

	parsed, err := parseBasicLine(line)
	if err != nil {
		rt.pushStatus("ERR "+err.Error(), true)
		return
	}
	for _, stmt := range parsed.Statements {
		if execErr := rt.execStatement(stmt, modeImmediate); execErr != nil {
			rt.pushStatus("ERR "+asBasicError(execErr).Error(), true)
			return
		}
		if rt.active != nil && !rt.active.stopped {
			// RUN installed a program; the pump takes over without
			// an OK banner.
			return
		}
	}
	rt.pushStatus("OK", true)
}

// ListProgram emits lines at or beyond target, numerically ordered.
func (rt *BasicRuntime) ListProgram(target int, toPrinter bool) {
	for _, num := range rt.sortedLines() {
		if num < target {
			continue
		}
		text := fmt.Sprintf("%d %s", num, rt.program[num])
		if toPrinter && rt.adapter != nil {
			rt.adapter.PrintDeviceWrite(text + "\n")
		} else {
			rt.emitLine(text)
		}
	}
}

// NewProgram clears program, variables and DATA state.
func (rt *BasicRuntime) NewProgram() {
	rt.program = make(map[int]string)
	rt.labels = make(map[string]int)
	rt.clearState()
	rt.dataPool = nil
	rt.dataMarks = nil
	rt.active = nil
	rt.runToken++
}
