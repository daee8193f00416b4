// machine.go - composed PC-G815 machine: CPU, bus, chipset, BASIC runtime

package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	graphWidth  = 144
	graphHeight = 32

	callMaxTStates = 2_000_000
)

type hostFile struct {
	file    *os.File
	scanner *bufio.Scanner
	mode    string
}

type Machine struct {
	cpu     *CPUZ80
	bus     *MachineBus
	runtime *BasicRuntime

	baseDir    string
	files      map[FileHandle]*hostFile
	nextHandle FileHandle

	printWaitTicks int
	printPause     bool

	gCursorX int
	gCursorY int
	pixels   [graphHeight][graphWidth]bool

	inkeys []byte
}

func NewMachine() *Machine {
	bus := NewMachineBus(MonitorROM())
	m := &Machine{
		bus:        bus,
		cpu:        NewCPUZ80(bus),
		files:      make(map[FileHandle]*hostFile),
		nextHandle: 1,
		baseDir:    ".",
	}
	m.runtime = NewBasicRuntime(bus.MonitorOutput(), m)
	return m
}

func (m *Machine) SetBaseDir(dir string) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	m.baseDir = abs
}

func (m *Machine) CPU() *CPUZ80           { return m.cpu }
func (m *Machine) Bus() *MachineBus       { return m.bus }
func (m *Machine) Runtime() *BasicRuntime { return m.runtime }

// Runtime API.

// Reset performs a warm CPU reset; cold also clears memory, peripherals and
// the stored program.
func (m *Machine) Reset(cold bool) {
	if cold {
		m.bus.Reset()
		m.runtime.NewProgram()
		m.pixels = [graphHeight][graphWidth]bool{}
		m.gCursorX = 0
		m.gCursorY = 0
	}
	m.cpu.Reset()
}

func (m *Machine) Tick(tstates int) {
	m.cpu.StepTStates(tstates)
}

func (m *Machine) SetKeyState(code int, down bool) {
	m.bus.SetKeyState(code, down)
}

func (m *Machine) SetKanaMode(on bool) { m.bus.SetKanaMode(on) }
func (m *Machine) GetKanaMode() bool   { return m.bus.KanaMode() }

// GetFrameBuffer packs the graphics plane at one bit per pixel, row-major.
func (m *Machine) GetFrameBuffer() []byte {
	out := make([]byte, 0, graphHeight*graphWidth/8)
	for y := 0; y < graphHeight; y++ {
		var acc byte
		bits := 0
		for x := 0; x < graphWidth; x++ {
			acc <<= 1
			if m.pixels[y][x] {
				acc |= 1
			}
			bits++
			if bits == 8 {
				out = append(out, acc)
				acc, bits = 0, 0
			}
		}
		if bits > 0 {
			out = append(out, acc<<(8-bits))
		}
	}
	return out
}

func (m *Machine) GetTextLines() []string { return m.bus.TextLines() }

func (m *Machine) GetCpuState() CPUZ80State { return m.cpu.GetState() }

// LoadProgram copies a binary image into RAM at origin, bypassing the ROM
// overlay so images may occupy the monitor region.
func (m *Machine) LoadProgram(program []byte, origin uint16) error {
	if int(origin)+len(program) > z80AddressSpace {
		return fmt.Errorf("program too large: origin=0x%04X size=%d", origin, len(program))
	}
	for i, value := range program {
		m.bus.WriteROMShadow(origin+uint16(i), value)
	}
	return nil
}

func (m *Machine) SetProgramCounter(pc uint16) { m.cpu.PC = pc }
func (m *Machine) SetStackPointer(sp uint16)  { m.cpu.SP = sp }

func (m *Machine) IsRuntimeProgramRunning() bool {
	return m.runtime.IsProgramRunning()
}

// Host-facing monitor plumbing.

func (m *Machine) ExecuteLine(line string) { m.runtime.ExecuteLine(line) }
func (m *Machine) PumpBasic(nowMs int64)   { m.runtime.Pump(nowMs) }
func (m *Machine) ProvideInput(line string) {
	m.runtime.ProvideInput(line)
}

func (m *Machine) DrainOutput() []byte {
	return m.bus.MonitorOutput().Drain()
}

func (m *Machine) PushInkey(ch byte) {
	m.inkeys = append(m.inkeys, ch)
}

// MachineAdapter implementation (consumed by the BASIC runtime).

func (m *Machine) ClearLcd() { m.bus.ClearText() }

func (m *Machine) WriteLcdChar(code byte) { m.bus.WriteLcdChar(code) }

func (m *Machine) SetTextCursor(col, row int) { m.bus.SetTextCursor(col, row) }

func (m *Machine) SetDisplayStartLine(n int) { m.bus.SetDisplayStartLine(n) }
func (m *Machine) GetDisplayStartLine() int  { return m.bus.DisplayStartLine() }

func (m *Machine) ReadKeyMatrix(row int) byte { return m.bus.ReadKeyMatrix(row) }

func (m *Machine) In8(port uint16) byte         { return m.bus.In8(port) }
func (m *Machine) Out8(port uint16, value byte) { m.bus.Out8(port, value) }

func (m *Machine) Peek8(addr uint16) byte { return m.bus.Read8(addr) }
func (m *Machine) Poke8(addr uint16, value byte) {
	m.bus.WriteROMShadow(addr, value)
}

func (m *Machine) SleepMs(ms int) {
	if ms < 0 {
		return
	}
	if ms > 1000 {
		ms = 1000
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

func (m *Machine) WaitForEnterKey() {}

func (m *Machine) SetPrintWait(ticks int, pauseMode bool) {
	m.printWaitTicks = ticks
	m.printPause = pauseMode
}

// File I/O, confined to baseDir the way the engine's file device restricts
// its directory.

func (m *Machine) sanitizePath(path string) (string, bool) {
	if filepath.IsAbs(path) || strings.Contains(path, "..") {
		return "", false
	}
	fullPath := filepath.Join(m.baseDir, path)
	rel, err := filepath.Rel(m.baseDir, fullPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return fullPath, true
}

func (m *Machine) OpenFile(path string, mode string) (FileHandle, bool) {
	fullPath, ok := m.sanitizePath(path)
	if !ok {
		return 0, false
	}
	var f *os.File
	var err error
	switch mode {
	case "OUTPUT":
		f, err = os.Create(fullPath)
	case "APPEND":
		f, err = os.OpenFile(fullPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	default:
		f, err = os.Open(fullPath)
	}
	if err != nil {
		return 0, false
	}
	handle := m.nextHandle
	m.nextHandle++
	hf := &hostFile{file: f, mode: mode}
	if mode == "INPUT" || mode == "" {
		hf.scanner = bufio.NewScanner(f)
	}
	m.files[handle] = hf
	return handle, true
}

func (m *Machine) CloseFile(handle FileHandle) {
	if hf, ok := m.files[handle]; ok {
		hf.file.Close()
		delete(m.files, handle)
	}
}

func (m *Machine) ReadFileValue(handle FileHandle) (string, bool) {
	hf, ok := m.files[handle]
	if !ok || hf.scanner == nil {
		return "", false
	}
	if !hf.scanner.Scan() {
		return "", false
	}
	return hf.scanner.Text(), true
}

func (m *Machine) WriteFileValue(handle FileHandle, value string) {
	if hf, ok := m.files[handle]; ok && hf.scanner == nil {
		fmt.Fprintln(hf.file, value)
	}
}

func (m *Machine) ListFiles() []string {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

func (m *Machine) DeleteFile(path string) bool {
	fullPath, ok := m.sanitizePath(path)
	if !ok {
		return false
	}
	return os.Remove(fullPath) == nil
}

func (m *Machine) PrintDeviceWrite(text string) {
	m.bus.SystemOutput().PushString(text)
}

// CallMachine runs native code at addr until it returns. A HALT stub in high
// RAM acts as the return trampoline; HL carries the result.
func (m *Machine) CallMachine(addr uint16, args []int) (int, bool) {
	const trampoline = 0xFFF0
	saved := m.cpu.GetState()

	m.bus.WriteROMShadow(trampoline, 0x76)
	if len(args) > 0 {
		m.cpu.SetHL(uint16(args[0]))
	}
	if len(args) > 1 {
		m.cpu.SetDE(uint16(args[1]))
	}
	m.cpu.SP = trampoline - 0x10
	m.cpu.pushWord(trampoline)
	m.cpu.pending = m.cpu.pending[:0]
	m.cpu.PC = addr
	m.cpu.Halted = false

	for t := 0; t < callMaxTStates && !m.cpu.Halted; t++ {
		m.cpu.StepTStates(1)
	}
	result := int(m.cpu.HL())
	completed := m.cpu.Halted
	m.cpu.LoadState(saved)
	return result, completed
}

// Graphics primitives on the monochrome plane.

func (m *Machine) SetGraphicCursor(x, y int) {
	m.gCursorX = x
	m.gCursorY = y
}

func (m *Machine) plot(x, y int, mode int) {
	if x < 0 || x >= graphWidth || y < 0 || y >= graphHeight {
		return
	}
	switch mode {
	case 0:
		m.pixels[y][x] = false
	case 2:
		m.pixels[y][x] = !m.pixels[y][x]
	default:
		m.pixels[y][x] = true
	}
}

func (m *Machine) DrawPoint(x, y int, mode int) {
	m.plot(x, y, mode)
}

// DrawLine walks a Bresenham segment; pattern bits gate every 16th pixel
// window for dashed styles.
func (m *Machine) DrawLine(x1, y1, x2, y2 int, mode int, pattern uint16) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	err := dx + dy
	bit := 0
	for {
		if pattern&(1<<(15-bit%16)) != 0 {
			m.plot(x1, y1, mode)
		}
		bit++
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

// PaintArea flood fills from (x,y) over unset pixels.
func (m *Machine) PaintArea(x, y int, pattern uint16) {
	if x < 0 || x >= graphWidth || y < 0 || y >= graphHeight || m.pixels[y][x] {
		return
	}
	var visited [graphHeight][graphWidth]bool
	stack := [][2]int{{x, y}}
	for len(stack) > 0 {
		pt := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		px, py := pt[0], pt[1]
		if px < 0 || px >= graphWidth || py < 0 || py >= graphHeight {
			continue
		}
		if visited[py][px] || m.pixels[py][px] {
			continue
		}
		visited[py][px] = true
		if pattern&(1<<((px+py)%16)) != 0 {
			m.pixels[py][px] = true
		}
		stack = append(stack,
			[2]int{px + 1, py}, [2]int{px - 1, py},
			[2]int{px, py + 1}, [2]int{px, py - 1})
	}
}

func (m *Machine) PrintGraphicText(text string) {
	// Glyph rendering lives behind the shell adapter; the core advances
	// the graphic cursor by the text cell width.
	m.gCursorX += len(text) * 6
}

func (m *Machine) ReadInkey() (byte, bool) {
	if len(m.inkeys) == 0 {
		return 0, false
	}
	ch := m.inkeys[0]
	m.inkeys = m.inkeys[1:]
	return ch, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
