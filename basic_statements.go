// basic_statements.go - statement dispatch and execution

package main

import (
	"fmt"
	"strconv"
	"strings"
)

const printColumnWidth = 12

// execStatement runs one statement. It returns nil, a *BasicError, or one of
// the suspension signals.
func (rt *BasicRuntime) execStatement(stmt Statement, mode execMode) error {
	switch s := stmt.(type) {
	case *StmtEmpty, *StmtRem:
		return nil
	case *StmtNew:
		if mode != modeImmediate {
			return basicErrf(errBadStmt, "NEW IN PROGRAM")
		}
		rt.NewProgram()
		return nil
	case *StmtList:
		target := 0
		if s.Target.Num > 0 {
			target = s.Target.Num
		}
		rt.ListProgram(target, s.Printer)
		return nil
	case *StmtRun:
		return orNil(rt.RunProgram(s.Target, true))
	case *StmtPrint:
		return rt.execPrint(s)
	case *StmtLet:
		return rt.execLet(s)
	case *StmtInput:
		return rt.execInput(s, mode)
	case *StmtGoto:
		return rt.execGoto(s.Target, mode)
	case *StmtGosub:
		return rt.execGosub(s.Target, mode)
	case *StmtReturn:
		return rt.execReturn(s)
	case *StmtIf:
		return rt.execIf(s, mode)
	case *StmtFor:
		return rt.execFor(s, mode)
	case *StmtNext:
		return rt.execNext(s)
	case *StmtDim:
		return rt.execDim(s)
	case *StmtData:
		return nil // harvested at compile time
	case *StmtRead:
		return rt.execRead(s)
	case *StmtRestore:
		rt.restoreData(rt.refLine(s.Target))
		return nil
	case *StmtPoke:
		return rt.execPoke(s)
	case *StmtOut:
		return rt.execOut(s)
	case *StmtBeep:
		return rt.execBeep(s, mode)
	case *StmtWait:
		return rt.execWait(s, mode)
	case *StmtLocate:
		return rt.execLocate(s)
	case *StmtEnd:
		return rt.execEnd(mode)
	case *StmtStop:
		if mode == modeImmediate {
			return nil
		}
		return &suspendStop{}
	case *StmtCont:
		return orNil(rt.Cont())
	case *StmtRepeat:
		return rt.execRepeat(mode)
	case *StmtUntil:
		return rt.execUntil(s, mode)
	case *StmtWhile:
		return rt.execWhile(s, mode)
	case *StmtWend:
		return rt.execWend(mode)
	case *StmtOn:
		return rt.execOn(s, mode)
	case *StmtAuto:
		return rt.execAuto(s, mode)
	case *StmtOpen:
		return rt.execOpen(s)
	case *StmtClose:
		return rt.execClose(s)
	case *StmtLoad:
		return rt.execLoad(s)
	case *StmtSave:
		return rt.execSave(s)
	case *StmtBLoad:
		return rt.execBLoad(s)
	case *StmtBSave:
		return rt.execBSave(s)
	case *StmtLCopy:
		return rt.execLCopy()
	case *StmtFiles:
		return rt.execFiles()
	case *StmtKill:
		return rt.execKill(s)
	case *StmtCall:
		return rt.execCall(s)
	case *StmtGCursor:
		return rt.execGCursor(s)
	case *StmtGPrint:
		return rt.execGPrint(s)
	case *StmtLine:
		return rt.execLine(s)
	case *StmtPSet:
		return rt.execPSet(s)
	case *StmtPReset:
		return rt.execPReset(s)
	case *StmtCircle:
		return rt.execCircle(s)
	case *StmtPaint:
		return rt.execPaint(s)
	}
	return basicErrf(errBadStmt, "BAD STATEMENT")
}

func orNil(err *BasicError) error {
	if err == nil {
		return nil
	}
	return err
}

func (rt *BasicRuntime) refLine(ref lineRef) int {
	if ref.Label != "" {
		if num, ok := rt.labels[ref.Label]; ok {
			return num
		}
		return 0
	}
	return ref.Num
}

func formatBasicValue(v basicValue) string {
	if v.IsStr {
		return v.Str
	}
	return strconv.Itoa(v.Num)
}

func (rt *BasicRuntime) execPrint(s *StmtPrint) error {
	// Channel form writes scalars to an open file.
	if s.Channel != nil {
		ch, err := rt.evalInt(s.Channel)
		if err != nil {
			return err
		}
		handle, ok := rt.channels[ch]
		if !ok || rt.adapter == nil {
			return nil
		}
		for _, item := range s.Items {
			v, err := rt.evalExpr(item.E)
			if err != nil {
				return err
			}
			rt.adapter.WriteFileValue(handle, formatBasicValue(v))
		}
		return nil
	}

	usingFormat := ""
	if s.Using != nil {
		f, err := rt.evalString(s.Using)
		if err != nil {
			return err
		}
		usingFormat = f
	}

	col := 0
	var sb strings.Builder
	for _, item := range s.Items {
		v, err := rt.evalExpr(item.E)
		if err != nil {
			return err
		}
		text := formatBasicValue(v)
		if usingFormat != "" && !v.IsStr {
			text = formatUsing(usingFormat, v.Num)
		}
		sb.WriteString(text)
		col += len(text)
		if item.Separator == ',' {
			pad := printColumnWidth - col%printColumnWidth
			sb.WriteString(strings.Repeat(" ", pad))
			col += pad
		}
	}
	rt.emit(sb.String())
	if !s.TrailingSep {
		rt.out.Push('\n')
	}
	return nil
}

// formatUsing fills runs of '#' with a right-justified integer; other
// characters print literally.
func formatUsing(format string, value int) string {
	var sb strings.Builder
	digits := strconv.Itoa(value)
	i := 0
	for i < len(format) {
		if format[i] != '#' {
			sb.WriteByte(format[i])
			i++
			continue
		}
		width := 0
		for i < len(format) && format[i] == '#' {
			width++
			i++
		}
		if len(digits) >= width {
			sb.WriteString(digits)
		} else {
			sb.WriteString(strings.Repeat(" ", width-len(digits)))
			sb.WriteString(digits)
		}
		digits = ""
	}
	return sb.String()
}

func (rt *BasicRuntime) execLet(s *StmtLet) error {
	value, err := rt.evalExpr(s.Value)
	if err != nil {
		return err
	}
	if s.Target.isString() != value.IsStr {
		return basicErrf(errBadLet, "TYPE MISMATCH")
	}
	return orNil(rt.assignTo(s.Target, value))
}

func (rt *BasicRuntime) execInput(s *StmtInput, mode execMode) error {
	if s.Channel != nil {
		// File input reads one scalar per target.
		ch, err := rt.evalInt(s.Channel)
		if err != nil {
			return err
		}
		handle, ok := rt.channels[ch]
		if !ok || rt.adapter == nil {
			return nil
		}
		for _, target := range s.Targets {
			raw, ok := rt.adapter.ReadFileValue(handle)
			if !ok {
				raw = ""
			}
			if err := rt.assignTo(target, coerceInput(raw, target.isString())); err != nil {
				return err
			}
		}
		return nil
	}
	if mode == modeImmediate {
		return basicErrf(errInputInRun, "INPUT NEEDS RUN")
	}
	return &suspendInput{Prompt: s.Prompt, Targets: s.Targets}
}

func (rt *BasicRuntime) jumpTo(ref lineRef, mode execMode) error {
	if mode == modeImmediate {
		// Immediate GOTO starts the pump at the target, keeping state.
		prog, err := rt.compile()
		if err != nil {
			return err
		}
		pc, err := rt.resolveRef(prog, ref)
		if err != nil {
			return err
		}
		rt.runToken++
		rt.active = &activeProgram{
			prog:             prog,
			pc:               pc,
			token:            rt.runToken,
			promptOnComplete: true,
		}
		return nil
	}
	pc, err := rt.resolveRef(rt.active.prog, ref)
	if err != nil {
		return err
	}
	rt.active.pc = pc
	return nil
}

func (rt *BasicRuntime) execGoto(ref lineRef, mode execMode) error {
	return rt.jumpTo(ref, mode)
}

func (rt *BasicRuntime) execGosub(ref lineRef, mode execMode) error {
	if mode == modeImmediate {
		return rt.jumpTo(ref, mode)
	}
	rt.gosubStack = append(rt.gosubStack, rt.active.pc)
	return rt.jumpTo(ref, mode)
}

func (rt *BasicRuntime) execReturn(s *StmtReturn) error {
	if len(rt.gosubStack) == 0 {
		return basicErrf(errReturnWOGosub, "RETURN WITHOUT GOSUB")
	}
	top := rt.gosubStack[len(rt.gosubStack)-1]
	rt.gosubStack = rt.gosubStack[:len(rt.gosubStack)-1]
	if rt.active == nil {
		return basicErrf(errReturnWOGosub, "RETURN WITHOUT GOSUB")
	}
	if s.Target.valid() {
		pc, err := rt.resolveRef(rt.active.prog, s.Target)
		if err != nil {
			return err
		}
		rt.active.pc = pc
		return nil
	}
	rt.active.pc = top
	return nil
}

func (rt *BasicRuntime) execIf(s *StmtIf, mode execMode) error {
	cond, err := rt.evalExpr(s.Cond)
	if err != nil {
		return err
	}
	truthy := (cond.IsStr && cond.Str != "") || (!cond.IsStr && cond.Num != 0)

	if truthy {
		if s.ThenRef.valid() {
			return rt.jumpTo(s.ThenRef, mode)
		}
		return rt.execBranch(s.ThenBody, mode)
	}
	if s.ElseRef.valid() {
		return rt.jumpTo(s.ElseRef, mode)
	}
	if len(s.ElseBody) > 0 {
		return rt.execBranch(s.ElseBody, mode)
	}
	return nil
}

func (rt *BasicRuntime) execBranch(body []Statement, mode execMode) error {
	for _, stmt := range body {
		if err := rt.execStatement(stmt, mode); err != nil {
			return err
		}
	}
	return nil
}

func (rt *BasicRuntime) execFor(s *StmtFor, mode execMode) error {
	if mode == modeImmediate {
		return basicErrf(errBadStmt, "FOR NEEDS RUN")
	}
	start, err := rt.evalInt(s.Start)
	if err != nil {
		return err
	}
	end, err := rt.evalInt(s.End)
	if err != nil {
		return err
	}
	step := 1
	if s.Step != nil {
		if step, err = rt.evalInt(s.Step); err != nil {
			return err
		}
	}
	if err := rt.setVar(s.Var, numValue(start)); err != nil {
		return err
	}
	// Re-entering the same control variable replaces its frame.
	for i := len(rt.forStack) - 1; i >= 0; i-- {
		if rt.forStack[i].Var == s.Var {
			rt.forStack = rt.forStack[:i]
			break
		}
	}
	rt.forStack = append(rt.forStack, forFrame{
		Var:  s.Var,
		PC:   rt.active.pc,
		End:  end,
		Step: step,
	})
	return nil
}

func (rt *BasicRuntime) execNext(s *StmtNext) error {
	if rt.active == nil {
		return basicErrf(errBadStmt, "NEXT WITHOUT FOR")
	}
	vars := s.Vars
	if len(vars) == 0 {
		vars = []string{""}
	}
	for _, name := range vars {
		if err := rt.nextOne(name); err != nil {
			return err
		}
		if rt.active != nil && len(rt.forStack) > 0 {
			top := rt.forStack[len(rt.forStack)-1]
			if rt.active.pc == top.PC {
				// The loop re-entered; later NEXT variables wait
				// for their own iterations.
				return nil
			}
		}
	}
	return nil
}

// nextOne advances one FOR frame, closing any frames nested above it.
func (rt *BasicRuntime) nextOne(name string) error {
	idx := len(rt.forStack) - 1
	if name != "" {
		for idx >= 0 && rt.forStack[idx].Var != name {
			idx--
		}
	}
	if idx < 0 {
		return basicErrf(errBadStmt, "NEXT WITHOUT FOR")
	}
	rt.forStack = rt.forStack[:idx+1]
	frame := &rt.forStack[idx]

	value := rt.getVar(frame.Var).Num + frame.Step
	if err := rt.setVar(frame.Var, numValue(value)); err != nil {
		return err
	}
	inRange := value <= frame.End
	if frame.Step < 0 {
		inRange = value >= frame.End
	}
	if inRange {
		rt.active.pc = frame.PC
		return nil
	}
	rt.forStack = rt.forStack[:idx]
	return nil
}

func (rt *BasicRuntime) execDim(s *StmtDim) error {
	for _, decl := range s.Decls {
		dims, err := rt.evalSubs(decl.Dims)
		if err != nil {
			return err
		}
		for _, d := range dims {
			if d < 0 {
				return basicErrf(errBadVar, "BAD DIMENSION")
			}
		}
		maxLen := 0
		if decl.StrLen != nil {
			if maxLen, err = rt.evalInt(decl.StrLen); err != nil {
				return err
			}
		}
		rt.arrays[decl.Name] = newBasicArray(decl.Name, dims, maxLen)
	}
	return nil
}

// execRead pulls values from the DATA pool with type coercion between
// numbers and strings.
func (rt *BasicRuntime) execRead(s *StmtRead) error {
	for _, target := range s.Targets {
		if rt.dataCursor >= len(rt.dataPool) {
			return basicErrf(errUnknown, "OUT OF DATA")
		}
		value := rt.dataPool[rt.dataCursor]
		rt.dataCursor++

		if target.isString() && !value.IsStr {
			value = strValue(strconv.Itoa(value.Num))
		} else if !target.isString() && value.IsStr {
			n, err := strconv.Atoi(strings.TrimSpace(value.Str))
			if err != nil {
				n = 0
			}
			value = numValue(n)
		}
		if err := rt.assignTo(target, value); err != nil {
			return err
		}
	}
	return nil
}

func (rt *BasicRuntime) execPoke(s *StmtPoke) error {
	addr, err := rt.evalInt(s.Addr)
	if err != nil {
		return err
	}
	for i, e := range s.Values {
		v, err := rt.evalInt(e)
		if err != nil {
			return err
		}
		if rt.adapter != nil {
			rt.adapter.Poke8(uint16(addr+i), byte(v))
		}
	}
	return nil
}

func (rt *BasicRuntime) execOut(s *StmtOut) error {
	port := portSystemOut
	if s.Port != nil {
		p, err := rt.evalInt(s.Port)
		if err != nil {
			return err
		}
		port = p
	}
	value, err := rt.evalInt(s.Value)
	if err != nil {
		return err
	}
	if rt.adapter != nil {
		rt.adapter.Out8(uint16(port), byte(value))
	}
	return nil
}

// execBeep holds the program for a bounded time; there is no synthesis.
func (rt *BasicRuntime) execBeep(s *StmtBeep, mode execMode) error {
	count := 1
	if s.Count != nil {
		n, err := rt.evalInt(s.Count)
		if err != nil {
			return err
		}
		if n > 0 {
			count = n
		}
	}
	delay := int64(count * 30)
	if delay > 500 {
		delay = 500
	}
	if mode == modeImmediate {
		if rt.adapter != nil {
			rt.adapter.SleepMs(int(delay))
		}
		return nil
	}
	return &suspendWait{DelayMs: delay}
}

func (rt *BasicRuntime) execWait(s *StmtWait, mode execMode) error {
	if s.Delay == nil {
		if mode == modeImmediate {
			if rt.adapter != nil {
				rt.adapter.WaitForEnterKey()
			}
			return nil
		}
		return &suspendInput{}
	}
	n, err := rt.evalInt(s.Delay)
	if err != nil {
		return err
	}
	if n < 0 {
		n = 0
	}
	// WAIT counts 1/64 s units.
	delay := int64(n) * 1000 / 64
	if mode == modeImmediate {
		if rt.adapter != nil {
			rt.adapter.SleepMs(int(delay))
		}
		return nil
	}
	return &suspendWait{DelayMs: delay}
}

func (rt *BasicRuntime) execLocate(s *StmtLocate) error {
	x, err := rt.evalInt(s.X)
	if err != nil {
		return err
	}
	y, err := rt.evalInt(s.Y)
	if err != nil {
		return err
	}
	if x < 0 || x >= textCols || y < 0 || y >= textRows {
		return basicErrf(errUnknown, "LOCATE OUT OF RANGE")
	}
	if s.Z != nil {
		if _, err := rt.evalInt(s.Z); err != nil {
			return err
		}
	}
	if rt.adapter != nil {
		rt.adapter.SetTextCursor(x, y)
	}
	return nil
}

func (rt *BasicRuntime) execEnd(mode execMode) error {
	if mode == modeImmediate {
		return nil
	}
	// Completing normally: park the pc past the end.
	rt.active.pc = len(rt.active.prog.steps)
	return nil
}

func (rt *BasicRuntime) execRepeat(mode execMode) error {
	if mode == modeImmediate {
		return basicErrf(errBadStmt, "REPEAT NEEDS RUN")
	}
	rt.repeatStack = append(rt.repeatStack, rt.active.pc)
	return nil
}

func (rt *BasicRuntime) execUntil(s *StmtUntil, mode execMode) error {
	if mode == modeImmediate || len(rt.repeatStack) == 0 {
		return basicErrf(errBadStmt, "UNTIL WITHOUT REPEAT")
	}
	cond, err := rt.evalInt(s.Cond)
	if err != nil {
		return err
	}
	top := rt.repeatStack[len(rt.repeatStack)-1]
	if cond == 0 {
		rt.active.pc = top
		return nil
	}
	rt.repeatStack = rt.repeatStack[:len(rt.repeatStack)-1]
	return nil
}

func (rt *BasicRuntime) execWhile(s *StmtWhile, mode execMode) error {
	if mode == modeImmediate {
		return basicErrf(errBadStmt, "WHILE NEEDS RUN")
	}
	cond, err := rt.evalInt(s.Cond)
	if err != nil {
		return err
	}
	if cond != 0 {
		// Loop entry: remember the WHILE itself for WEND.
		rt.whileStack = append(rt.whileStack, rt.active.pc-1)
		return nil
	}
	// Skip past the matching WEND.
	depth := 0
	for pc := rt.active.pc; pc < len(rt.active.prog.steps); pc++ {
		switch rt.active.prog.steps[pc].stmt.(type) {
		case *StmtWhile:
			depth++
		case *StmtWend:
			if depth == 0 {
				rt.active.pc = pc + 1
				return nil
			}
			depth--
		}
	}
	return basicErrf(errBadStmt, "WHILE WITHOUT WEND")
}

func (rt *BasicRuntime) execWend(mode execMode) error {
	if mode == modeImmediate || len(rt.whileStack) == 0 {
		return basicErrf(errBadStmt, "WEND WITHOUT WHILE")
	}
	top := rt.whileStack[len(rt.whileStack)-1]
	rt.whileStack = rt.whileStack[:len(rt.whileStack)-1]
	rt.active.pc = top
	return nil
}

// execOn is 1-based; a selector outside the list is a no-op.
func (rt *BasicRuntime) execOn(s *StmtOn, mode execMode) error {
	sel, err := rt.evalInt(s.Sel)
	if err != nil {
		return err
	}
	if sel < 1 || sel > len(s.Targets) {
		return nil
	}
	ref := s.Targets[sel-1]
	if s.Gosub {
		return rt.execGosub(ref, mode)
	}
	return rt.jumpTo(ref, mode)
}

func (rt *BasicRuntime) execAuto(s *StmtAuto, mode execMode) error {
	if mode != modeImmediate {
		return basicErrf(errBadStmt, "AUTO IN PROGRAM")
	}
	start, step := 10, 10
	var err *BasicError
	if s.Start != nil {
		if start, err = rt.evalInt(s.Start); err != nil {
			return err
		}
	}
	if s.Step != nil {
		if step, err = rt.evalInt(s.Step); err != nil {
			return err
		}
	}
	if start <= 0 || step <= 0 {
		return basicErrf(errBadLine, "BAD LINE NUMBER")
	}
	rt.autoMode = true
	rt.autoNext = start
	rt.autoStep = step
	rt.emit(fmt.Sprintf("%d ", rt.autoNext))
	return nil
}

func (rt *BasicRuntime) execOpen(s *StmtOpen) error {
	if rt.adapter == nil {
		return nil
	}
	path, err := rt.evalString(s.Path)
	if err != nil {
		return err
	}
	ch := 1
	if s.Channel != nil {
		if ch, err = rt.evalInt(s.Channel); err != nil {
			return err
		}
	}
	handle, ok := rt.adapter.OpenFile(path, s.Mode)
	if !ok {
		return basicErrf(errUnknown, "CAN'T OPEN %s", path)
	}
	rt.channels[ch] = handle
	return nil
}

func (rt *BasicRuntime) execClose(s *StmtClose) error {
	if s.Channel == nil {
		for ch, handle := range rt.channels {
			if rt.adapter != nil {
				rt.adapter.CloseFile(handle)
			}
			delete(rt.channels, ch)
		}
		return nil
	}
	ch, err := rt.evalInt(s.Channel)
	if err != nil {
		return err
	}
	if handle, ok := rt.channels[ch]; ok {
		if rt.adapter != nil {
			rt.adapter.CloseFile(handle)
		}
		delete(rt.channels, ch)
	}
	return nil
}

// execLoad replaces the program store with numbered lines read from a file.
func (rt *BasicRuntime) execLoad(s *StmtLoad) error {
	if rt.adapter == nil {
		return nil
	}
	path, err := rt.evalString(s.Path)
	if err != nil {
		return err
	}
	handle, ok := rt.adapter.OpenFile(path, "INPUT")
	if !ok {
		return basicErrf(errUnknown, "CAN'T OPEN %s", path)
	}
	defer rt.adapter.CloseFile(handle)

	rt.NewProgram()
	for {
		raw, ok := rt.adapter.ReadFileValue(handle)
		if !ok {
			return nil
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		idx := 0
		for idx < len(line) && line[idx] >= '0' && line[idx] <= '9' {
			idx++
		}
		num, convErr := strconv.Atoi(line[:idx])
		if idx == 0 || convErr != nil {
			return basicErrf(errBadLine, "BAD LINE NUMBER")
		}
		if err := rt.StoreLine(num, line[idx:]); err != nil {
			return err
		}
	}
}

func (rt *BasicRuntime) execSave(s *StmtSave) error {
	if rt.adapter == nil {
		return nil
	}
	path, err := rt.evalString(s.Path)
	if err != nil {
		return err
	}
	handle, ok := rt.adapter.OpenFile(path, "OUTPUT")
	if !ok {
		return basicErrf(errUnknown, "CAN'T OPEN %s", path)
	}
	defer rt.adapter.CloseFile(handle)
	for _, num := range rt.sortedLines() {
		rt.adapter.WriteFileValue(handle, fmt.Sprintf("%d %s", num, rt.program[num]))
	}
	return nil
}

// execBLoad reads file values as bytes into memory from the given origin.
func (rt *BasicRuntime) execBLoad(s *StmtBLoad) error {
	if rt.adapter == nil {
		return nil
	}
	path, err := rt.evalString(s.Path)
	if err != nil {
		return err
	}
	origin := 0
	if s.Origin != nil {
		if origin, err = rt.evalInt(s.Origin); err != nil {
			return err
		}
	}
	handle, ok := rt.adapter.OpenFile(path, "INPUT")
	if !ok {
		return basicErrf(errUnknown, "CAN'T OPEN %s", path)
	}
	defer rt.adapter.CloseFile(handle)
	for offset := 0; ; offset++ {
		raw, ok := rt.adapter.ReadFileValue(handle)
		if !ok {
			return nil
		}
		n, convErr := strconv.Atoi(strings.TrimSpace(raw))
		if convErr != nil {
			n = 0
		}
		rt.adapter.Poke8(uint16(origin+offset), byte(n))
	}
}

func (rt *BasicRuntime) execBSave(s *StmtBSave) error {
	if rt.adapter == nil {
		return nil
	}
	path, err := rt.evalString(s.Path)
	if err != nil {
		return err
	}
	origin, err := rt.evalInt(s.Origin)
	if err != nil {
		return err
	}
	length, err := rt.evalInt(s.Length)
	if err != nil {
		return err
	}
	handle, ok := rt.adapter.OpenFile(path, "OUTPUT")
	if !ok {
		return basicErrf(errUnknown, "CAN'T OPEN %s", path)
	}
	defer rt.adapter.CloseFile(handle)
	for i := 0; i < length; i++ {
		value := rt.adapter.Peek8(uint16(origin + i))
		rt.adapter.WriteFileValue(handle, strconv.Itoa(int(value)))
	}
	return nil
}

// execLCopy sends the program listing to the printer device.
func (rt *BasicRuntime) execLCopy() error {
	if rt.adapter == nil {
		return nil
	}
	for _, num := range rt.sortedLines() {
		rt.adapter.PrintDeviceWrite(fmt.Sprintf("%d %s\n", num, rt.program[num]))
	}
	return nil
}

func (rt *BasicRuntime) execFiles() error {
	if rt.adapter == nil {
		return nil
	}
	for _, name := range rt.adapter.ListFiles() {
		rt.emitLine(name)
	}
	return nil
}

func (rt *BasicRuntime) execKill(s *StmtKill) error {
	if rt.adapter == nil {
		return nil
	}
	path, err := rt.evalString(s.Path)
	if err != nil {
		return err
	}
	rt.adapter.DeleteFile(path)
	return nil
}

func (rt *BasicRuntime) execCall(s *StmtCall) error {
	if rt.adapter == nil {
		return nil
	}
	addr, err := rt.evalInt(s.Addr)
	if err != nil {
		return err
	}
	args := make([]int, 0, len(s.Args))
	for _, e := range s.Args {
		v, err := rt.evalInt(e)
		if err != nil {
			return err
		}
		args = append(args, v)
	}
	rt.adapter.CallMachine(uint16(addr), args)
	return nil
}

// Graphics statements delegate straight to the adapter.

func (rt *BasicRuntime) execGCursor(s *StmtGCursor) error {
	x, y, err := rt.evalPointArgs(s.X, s.Y)
	if err != nil {
		return err
	}
	if rt.adapter != nil {
		rt.adapter.SetGraphicCursor(x, y)
	}
	return nil
}

func (rt *BasicRuntime) execGPrint(s *StmtGPrint) error {
	v, err := rt.evalExpr(s.Text)
	if err != nil {
		return err
	}
	if rt.adapter != nil {
		rt.adapter.PrintGraphicText(formatBasicValue(v))
	}
	return nil
}

func (rt *BasicRuntime) execLine(s *StmtLine) error {
	x1, y1, err := rt.evalPointArgs(s.X1, s.Y1)
	if err != nil {
		return err
	}
	x2, y2, err := rt.evalPointArgs(s.X2, s.Y2)
	if err != nil {
		return err
	}
	mode := 1
	if s.Mode != nil {
		if mode, err = rt.evalInt(s.Mode); err != nil {
			return err
		}
	}
	pattern := 0xFFFF
	if s.Pattern != nil {
		if pattern, err = rt.evalInt(s.Pattern); err != nil {
			return err
		}
	}
	if rt.adapter != nil {
		rt.adapter.DrawLine(x1, y1, x2, y2, mode, uint16(pattern))
	}
	return nil
}

func (rt *BasicRuntime) execPSet(s *StmtPSet) error {
	x, y, err := rt.evalPointArgs(s.X, s.Y)
	if err != nil {
		return err
	}
	mode := 1
	if s.Mode != nil {
		if mode, err = rt.evalInt(s.Mode); err != nil {
			return err
		}
	}
	if rt.adapter != nil {
		rt.adapter.DrawPoint(x, y, mode)
	}
	return nil
}

func (rt *BasicRuntime) execPReset(s *StmtPReset) error {
	x, y, err := rt.evalPointArgs(s.X, s.Y)
	if err != nil {
		return err
	}
	if rt.adapter != nil {
		rt.adapter.DrawPoint(x, y, 0)
	}
	return nil
}

// execCircle plots the circle point by point with a midpoint walk; the
// adapter only needs the point primitive.
func (rt *BasicRuntime) execCircle(s *StmtCircle) error {
	x, y, err := rt.evalPointArgs(s.X, s.Y)
	if err != nil {
		return err
	}
	r, err := rt.evalInt(s.R)
	if err != nil {
		return err
	}
	if rt.adapter == nil || r < 0 {
		return nil
	}
	// Midpoint circle walk.
	cx, cy, d := r, 0, 1-r
	for cx >= cy {
		for _, pt := range [][2]int{
			{x + cx, y + cy}, {x - cx, y + cy}, {x + cx, y - cy}, {x - cx, y - cy},
			{x + cy, y + cx}, {x - cy, y + cx}, {x + cy, y - cx}, {x - cy, y - cx},
		} {
			rt.adapter.DrawPoint(pt[0], pt[1], 1)
		}
		cy++
		if d < 0 {
			d += 2*cy + 1
		} else {
			cx--
			d += 2*(cy-cx) + 1
		}
	}
	return nil
}

func (rt *BasicRuntime) execPaint(s *StmtPaint) error {
	x, y, err := rt.evalPointArgs(s.X, s.Y)
	if err != nil {
		return err
	}
	pattern := 0xFFFF
	if s.Pattern != nil {
		if pattern, err = rt.evalInt(s.Pattern); err != nil {
			return err
		}
	}
	if rt.adapter != nil {
		rt.adapter.PaintArea(x, y, uint16(pattern))
	}
	return nil
}

func (rt *BasicRuntime) evalPointArgs(xe, ye Expr) (int, int, *BasicError) {
	x, err := rt.evalInt(xe)
	if err != nil {
		return 0, 0, err
	}
	y, err := rt.evalInt(ye)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}
