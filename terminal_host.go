// terminal_host.go - raw-mode line host for the interactive monitor

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"
)

const hostTStatesPerPoll = 20000

// TerminalHost drives a machine from raw stdin: typed lines go to the BASIC
// monitor, FIFO output goes to stdout, and the CPU clock advances between
// polls. Only instantiated in main for interactive use, never in tests.
type TerminalHost struct {
	machine *Machine
	monitor *DebugMonitor
	tracker *BootTracker

	fd           int
	oldTermState *term.State
	lineBuf      []byte
	quit         bool
}

func NewTerminalHost(m *Machine) *TerminalHost {
	return &TerminalHost{
		machine: m,
		monitor: NewDebugMonitor(m),
		tracker: NewBootTracker(),
	}
}

// Run blocks until the user quits with Ctrl+C or .quit.
func (h *TerminalHost) Run() error {
	h.fd = int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		return fmt.Errorf("terminal_host: raw mode: %w", err)
	}
	h.oldTermState = oldState
	defer term.Restore(h.fd, h.oldTermState)

	if err := syscall.SetNonblock(h.fd, true); err != nil {
		return fmt.Errorf("terminal_host: nonblocking stdin: %w", err)
	}
	defer syscall.SetNonblock(h.fd, false)

	h.write("PC-G815 monitor\r\n> ")

	buf := make([]byte, 1)
	for !h.quit {
		nowMs := time.Now().UnixMilli()
		h.machine.Tick(hostTStatesPerPoll)
		h.machine.PumpBasic(nowMs)
		h.flushOutput()
		h.observeBoot(nowMs)

		n, err := syscall.Read(h.fd, buf)
		if n > 0 {
			h.handleByte(buf[0])
			continue
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK || n == 0 {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return nil
		}
	}
	return nil
}

func (h *TerminalHost) write(text string) {
	os.Stdout.WriteString(text)
}

func (h *TerminalHost) flushOutput() {
	out := h.machine.DrainOutput()
	if len(out) == 0 {
		return
	}
	// Raw mode needs CRLF.
	h.write(strings.ReplaceAll(string(out), "\n", "\r\n"))
}

func (h *TerminalHost) observeBoot(nowMs int64) {
	fb := h.machine.GetFrameBuffer()
	lit := false
	for _, b := range fb {
		if b != 0 {
			lit = true
			break
		}
	}
	state := h.tracker.State()
	next := h.tracker.Observe(nowMs, h.machine.GetCpuState().TStates, lit,
		h.machine.IsRuntimeProgramRunning())
	if next != state && next == BootStalled {
		h.write("\r\n[host] machine stalled\r\n")
	}
}

func (h *TerminalHost) handleByte(b byte) {
	switch b {
	case 0x03: // Ctrl+C
		h.quit = true
	case '\r', '\n':
		h.write("\r\n")
		line := string(h.lineBuf)
		h.lineBuf = h.lineBuf[:0]
		h.submitLine(line)
	case 0x7F, 0x08:
		if len(h.lineBuf) > 0 {
			h.lineBuf = h.lineBuf[:len(h.lineBuf)-1]
			h.write("\b \b")
		}
	default:
		if b >= 0x20 && b < 0x7F {
			h.lineBuf = append(h.lineBuf, b)
			h.write(string(b))
			h.machine.PushInkey(b)
		}
	}
}

// submitLine routes a typed line: host dot-commands, pending INPUT, or the
// BASIC monitor.
func (h *TerminalHost) submitLine(line string) {
	if strings.HasPrefix(line, ".") {
		h.hostCommand(line)
		return
	}
	if h.machine.Runtime().IsAwaitingInput() {
		h.machine.ProvideInput(line)
		return
	}
	h.machine.ExecuteLine(line)
}

func (h *TerminalHost) hostCommand(line string) {
	fields := strings.Fields(line)
	switch fields[0] {
	case ".quit":
		h.quit = true
	case ".cpu":
		h.write(strings.ReplaceAll(h.monitor.DumpCPU(), "\n", "\r\n"))
	case ".state":
		h.write(strings.ReplaceAll(h.monitor.DumpState(), "\n", "\r\n"))
	case ".mem":
		addr := 0
		if len(fields) > 1 {
			if v, err := strconv.ParseUint(strings.TrimPrefix(fields[1], "0x"), 16, 16); err == nil {
				addr = int(v)
			}
		}
		h.write(strings.ReplaceAll(h.monitor.DumpMemory(uint16(addr), 128), "\n", "\r\n"))
	case ".snap":
		if len(fields) < 2 {
			h.write("usage: .snap FILE\r\n")
			return
		}
		data, err := MarshalSnapshot(h.machine.GetSnapshot())
		if err == nil {
			err = os.WriteFile(fields[1], data, 0o644)
		}
		if err != nil {
			h.write(fmt.Sprintf("snapshot: %v\r\n", err))
		}
	case ".boot":
		h.write(h.tracker.State().String() + "\r\n")
	default:
		h.write("unknown host command\r\n")
	}
}
