// cpu_z80_timing.go - per-opcode T-state totals for every prefix space
//
// Conditional instructions hold their untaken count; the taken path adds its
// extra T-states at decode. Block repeat forms hold the non-repeating count.

package main

// The [spaceCount][256] shape is the compile-time totality check: every space
// carries a full 256-entry table, and initZ80Timing refuses zero entries.
var z80Timing [spaceCount][256]uint8

var z80BaseTiming = [256]uint8{
	//     x0  x1  x2  x3  x4  x5  x6  x7  x8  x9  xA  xB  xC  xD  xE  xF
	/*0x*/ 4, 10, 7, 6, 4, 4, 7, 4, 4, 11, 7, 6, 4, 4, 7, 4,
	/*1x*/ 8, 10, 7, 6, 4, 4, 7, 4, 12, 11, 7, 6, 4, 4, 7, 4,
	/*2x*/ 7, 10, 16, 6, 4, 4, 7, 4, 7, 11, 16, 6, 4, 4, 7, 4,
	/*3x*/ 7, 10, 13, 6, 11, 11, 10, 4, 7, 11, 13, 6, 4, 4, 7, 4,
	/*4x*/ 4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,
	/*5x*/ 4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,
	/*6x*/ 4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,
	/*7x*/ 7, 7, 7, 7, 7, 7, 4, 7, 4, 4, 4, 4, 4, 4, 7, 4,
	/*8x*/ 4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,
	/*9x*/ 4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,
	/*Ax*/ 4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,
	/*Bx*/ 4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,
	/*Cx*/ 5, 10, 10, 10, 10, 11, 7, 11, 5, 10, 10, 4, 10, 17, 7, 11,
	/*Dx*/ 5, 10, 10, 11, 10, 11, 7, 11, 5, 4, 10, 11, 10, 4, 7, 11,
	/*Ex*/ 5, 10, 10, 19, 10, 11, 7, 11, 5, 4, 10, 4, 10, 4, 7, 11,
	/*Fx*/ 5, 10, 10, 4, 10, 11, 7, 11, 5, 6, 10, 4, 10, 4, 7, 11,
}

func init() {
	initZ80Timing()
}

func initZ80Timing() {
	z80Timing[spaceBase] = z80BaseTiming

	for op := 0; op < 256; op++ {
		// CB: 8 for register forms; (HL) forms 15, except BIT which
		// never writes back and takes 12.
		cb := uint8(8)
		if op&0x07 == 6 {
			if op>>6 == 1 {
				cb = 12
			} else {
				cb = 15
			}
		}
		z80Timing[spaceCB][op] = cb

		// DDCB/FDCB: 23, BIT forms 20.
		xcb := uint8(23)
		if op>>6 == 1 {
			xcb = 20
		}
		z80Timing[spaceDDCB][op] = xcb
		z80Timing[spaceFDCB][op] = xcb

		// ED: holes decode as 8 T-state NOPs; real entries overridden
		// below.
		z80Timing[spaceED][op] = 8

		// DD/FD default: the prefix fetch in front of the base opcode.
		z80Timing[spaceDD][op] = z80BaseTiming[op] + 4
		z80Timing[spaceFD][op] = z80BaseTiming[op] + 4
	}

	for op := 0x40; op <= 0x7F; op++ {
		if op == 0x76 {
			continue
		}
		if (op>>3)&0x07 == 6 || op&0x07 == 6 {
			z80Timing[spaceDD][op] = 19
			z80Timing[spaceFD][op] = 19
		}
	}
	for op := 0x80; op <= 0xBF; op++ {
		if op&0x07 == 6 {
			z80Timing[spaceDD][op] = 19
			z80Timing[spaceFD][op] = 19
		}
	}
	for _, e := range []struct {
		op byte
		t  uint8
	}{
		{0x21, 14}, {0x22, 20}, {0x2A, 20}, {0x23, 10}, {0x2B, 10},
		{0x09, 15}, {0x19, 15}, {0x29, 15}, {0x39, 15},
		{0x34, 23}, {0x35, 23}, {0x36, 19},
		{0xE1, 14}, {0xE3, 23}, {0xE5, 15}, {0xE9, 8}, {0xF9, 10},
	} {
		z80Timing[spaceDD][e.op] = e.t
		z80Timing[spaceFD][e.op] = e.t
	}

	for code := 0; code < 8; code++ {
		z80Timing[spaceED][0x40+code*8] = 12 // IN r,(C)
		z80Timing[spaceED][0x41+code*8] = 12 // OUT (C),r
		z80Timing[spaceED][0x42+code*8] = 15 // SBC/ADC HL,rp
		z80Timing[spaceED][0x43+code*8] = 20 // LD (nn),rp / rp,(nn)
	}
	for _, op := range []byte{0x44, 0x4C, 0x54, 0x5C, 0x64, 0x6C, 0x74, 0x7C} {
		z80Timing[spaceED][op] = 8 // NEG
	}
	for _, op := range []byte{0x45, 0x4D, 0x55, 0x5D, 0x65, 0x6D, 0x75, 0x7D} {
		z80Timing[spaceED][op] = 14 // RETN/RETI
	}
	for _, op := range []byte{0x46, 0x4E, 0x56, 0x5E, 0x66, 0x6E, 0x76, 0x7E} {
		z80Timing[spaceED][op] = 8 // IM x
	}
	z80Timing[spaceED][0x47] = 9 // LD I,A
	z80Timing[spaceED][0x4F] = 9 // LD R,A
	z80Timing[spaceED][0x57] = 9 // LD A,I
	z80Timing[spaceED][0x5F] = 9 // LD A,R
	z80Timing[spaceED][0x67] = 18
	z80Timing[spaceED][0x6F] = 18
	for _, op := range []byte{
		0xA0, 0xA1, 0xA2, 0xA3, 0xA8, 0xA9, 0xAA, 0xAB,
		0xB0, 0xB1, 0xB2, 0xB3, 0xB8, 0xB9, 0xBA, 0xBB,
	} {
		z80Timing[spaceED][op] = 16
	}

	for space := opSpace(0); space < spaceCount; space++ {
		for op := 0; op < 256; op++ {
			if z80Timing[space][op] == 0 {
				panic("z80 timing table hole")
			}
		}
	}
}
