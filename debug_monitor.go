// debug_monitor.go - host-side inspection of a running machine

package main

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// DebugMonitor renders machine internals for the host shells.
type DebugMonitor struct {
	machine *Machine
}

func NewDebugMonitor(m *Machine) *DebugMonitor {
	return &DebugMonitor{machine: m}
}

// DumpCPU renders the full register file.
func (d *DebugMonitor) DumpCPU() string {
	state := d.machine.GetCpuState()
	var sb strings.Builder
	fmt.Fprintf(&sb, "PC=%04X SP=%04X IX=%04X IY=%04X  T=%d\n",
		state.PC, state.SP, state.IX, state.IY, state.TStates)
	fmt.Fprintf(&sb, "AF=%02X%02X BC=%02X%02X DE=%02X%02X HL=%02X%02X  I=%02X R=%02X IM=%d\n",
		state.A, state.F, state.B, state.C, state.D, state.E, state.H, state.L,
		state.I, state.R, state.IM)
	fmt.Fprintf(&sb, "IFF1=%v IFF2=%v HALT=%v\n", state.IFF1, state.IFF2, state.Halted)
	return sb.String()
}

// DumpState spews the whole CPU snapshot, useful when a flag bit is in doubt.
func (d *DebugMonitor) DumpState() string {
	return spew.Sdump(d.machine.GetCpuState())
}

// DumpMemory hex-dumps length bytes from addr, 16 per row.
func (d *DebugMonitor) DumpMemory(addr uint16, length int) string {
	var sb strings.Builder
	for row := 0; row < length; row += 16 {
		fmt.Fprintf(&sb, "%04X ", addr+uint16(row))
		for i := 0; i < 16 && row+i < length; i++ {
			fmt.Fprintf(&sb, " %02X", d.machine.Peek8(addr+uint16(row+i)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
