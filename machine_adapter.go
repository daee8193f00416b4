// machine_adapter.go - host services consumed by the BASIC runtime
//
// The runtime owns this interface and the machine implements it, passing
// itself in at construction; that breaks the machine<->runtime cycle. Every
// method is a best-effort host service: the runtime treats a nil adapter as
// "all methods absent" and no-ops unless data is required.

package main

type FileHandle int

type MachineAdapter interface {
	// Display.
	ClearLcd()
	WriteLcdChar(code byte)
	SetTextCursor(col, row int)
	SetDisplayStartLine(n int)
	GetDisplayStartLine() int

	// Raw hardware access.
	ReadKeyMatrix(row int) byte
	In8(port uint16) byte
	Out8(port uint16, value byte)
	Peek8(addr uint16) byte
	Poke8(addr uint16, value byte)

	// Time and pacing.
	SleepMs(ms int)
	WaitForEnterKey()
	SetPrintWait(ticks int, pauseMode bool)

	// File I/O.
	OpenFile(path string, mode string) (FileHandle, bool)
	CloseFile(handle FileHandle)
	ReadFileValue(handle FileHandle) (string, bool)
	WriteFileValue(handle FileHandle, value string)
	ListFiles() []string
	DeleteFile(path string) bool

	// Devices.
	PrintDeviceWrite(text string)
	CallMachine(addr uint16, args []int) (int, bool)

	// Graphics.
	SetGraphicCursor(x, y int)
	DrawLine(x1, y1, x2, y2 int, mode int, pattern uint16)
	DrawPoint(x, y int, mode int)
	PaintArea(x, y int, pattern uint16)
	PrintGraphicText(text string)
	ReadInkey() (byte, bool)
}
