package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusROMOverlayDropsWrites(t *testing.T) {
	rom := MonitorROM()
	bus := NewMachineBus(rom)

	want := bus.Read8(0x0000)
	bus.Write8(0x0000, ^want)
	assert.Equal(t, want, bus.Read8(0x0000), "ROM writes must be dropped")

	bus.Write8(0x8000, 0x42)
	assert.Equal(t, byte(0x42), bus.Read8(0x8000))
}

func TestBusROMShadowWrite(t *testing.T) {
	bus := NewMachineBus(MonitorROM())
	bus.WriteROMShadow(0x0010, 0x99)
	bus.SetROM(nil)
	assert.Equal(t, byte(0x99), bus.Read8(0x0010))
}

func TestBusUnknownPorts(t *testing.T) {
	bus := NewMachineBus(nil)
	assert.Equal(t, byte(0xFF), bus.In8(0x00EE), "unknown port reads return 0xFF")
	bus.Out8(0x00EE, 0x12) // silently dropped
}

func TestBusKeyMatrix(t *testing.T) {
	bus := NewMachineBus(nil)
	bus.SetKeyState(10, true) // row 1, column 2

	bus.Out8(portKeyRowSelect, 1)
	assert.Equal(t, byte(0x04), bus.In8(portKeyColumns))

	bus.SetKeyState(10, false)
	assert.Equal(t, byte(0x00), bus.In8(portKeyColumns))
}

func TestBusMonitorFifos(t *testing.T) {
	bus := NewMachineBus(nil)

	require.Equal(t, byte(0), bus.In8(portMonFifoStat))

	bus.PushMonitorInput('A')
	assert.Equal(t, byte(fifoStatInReady), bus.In8(portMonFifoStat))
	assert.Equal(t, byte('A'), bus.In8(portMonFifoIn))
	assert.Equal(t, byte(0), bus.In8(portMonFifoStat))

	bus.Out8(portMonFifoOut, 'X')
	assert.Equal(t, []byte("X"), bus.MonitorOutput().Drain())
}

func TestBusLcdTextGrid(t *testing.T) {
	bus := NewMachineBus(nil)

	for _, ch := range []byte("HI") {
		bus.Out8(portLcdData, ch)
	}
	lines := bus.TextLines()
	require.Len(t, lines, textRows)
	assert.Equal(t, "HI", lines[0][:2])

	bus.SetTextCursor(0, 3)
	bus.Out8(portLcdData, 'Z')
	assert.Equal(t, "Z", bus.TextLines()[3][:1])

	// Writing past the last cell scrolls.
	bus.SetTextCursor(textCols-1, textRows-1)
	bus.Out8(portLcdData, 'Q')
	lines = bus.TextLines()
	assert.Equal(t, "Z", lines[2][:1], "rows must scroll up")
}

func TestBusDisplayStartLine(t *testing.T) {
	bus := NewMachineBus(nil)
	bus.Out8(portLcdControl, 3)
	assert.Equal(t, 3, bus.DisplayStartLine())
	assert.Equal(t, byte(3), bus.In8(portLcdControl))
}

func TestBusKanaLatch(t *testing.T) {
	bus := NewMachineBus(nil)
	bus.Out8(portKanaMode, 1)
	assert.True(t, bus.KanaMode())
	assert.Equal(t, byte(1), bus.In8(portKanaMode))
	bus.Out8(portKanaMode, 0)
	assert.False(t, bus.KanaMode())
}

func TestMonitorROMBootLoop(t *testing.T) {
	// The boot program forwards monitor input to the LCD data port.
	bus := NewMachineBus(MonitorROM())
	cpu := NewCPUZ80(bus)
	bus.PushMonitorInput('G')

	cpu.StepTStates(400)

	assert.Equal(t, "G", bus.TextLines()[0][:1])
}
