// monitor_rom.go - bootstrap monitor ROM image

package main

// monitorBoot is the reset-time bootstrap: set up the stack, select IM 1,
// then pump characters from the monitor input FIFO to the LCD data port.
//
//	0000  F3            DI
//	0001  31 80 FF      LD SP,0xFF80
//	0004  ED 56         IM 1
//	0006  DB 52         poll: IN A,(0x52)
//	0008  E6 01         AND 0x01
//	000A  28 FA         JR Z,poll
//	000C  DB 50         IN A,(0x50)
//	000E  D3 41         OUT (0x41),A
//	0010  18 F4         JR poll
var monitorBoot = []byte{
	0xF3,
	0x31, 0x80, 0xFF,
	0xED, 0x56,
	0xDB, 0x52,
	0xE6, 0x01,
	0x28, 0xFA,
	0xDB, 0x50,
	0xD3, 0x41,
	0x18, 0xF4,
}

// monitorIntStub sits at the IM 1 vector: acknowledge and return.
//
//	0038  FB            EI
//	0039  ED 4D         RETI
var monitorIntStub = []byte{0xFB, 0xED, 0x4D}

// MonitorROM builds the ROM overlay image copied in at cold reset.
func MonitorROM() []byte {
	rom := make([]byte, romSize)
	copy(rom, monitorBoot)
	copy(rom[0x0038:], monitorIntStub)
	return rom
}
