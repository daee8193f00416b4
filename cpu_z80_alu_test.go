package main

import "testing"

func TestZ80ALUAdd(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0x80}) // ADD A,B
	rig.cpu.A = 0x0F
	rig.cpu.B = 0x01

	rig.cpu.Step()

	requireZ80EqualU8(t, "A", rig.cpu.A, 0x10)
	requireZ80EqualU8(t, "F", rig.cpu.F, 0x10)
}

func TestZ80ALUAddOverflow(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0x80}) // ADD A,B
	rig.cpu.A = 0x7F
	rig.cpu.B = 0x01

	rig.cpu.Step()

	requireZ80EqualU8(t, "A", rig.cpu.A, 0x80)
	requireZ80EqualU8(t, "F", rig.cpu.F, 0x94)
}

func TestZ80ALUAdcWithCarry(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0x88}) // ADC A,B
	rig.cpu.A = 0xFF
	rig.cpu.B = 0x00
	rig.cpu.F = z80FlagC

	rig.cpu.Step()

	requireZ80EqualU8(t, "A", rig.cpu.A, 0x00)
	requireZ80EqualU8(t, "F", rig.cpu.F, 0x51)
}

func TestZ80ALUSub(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0x90}) // SUB B
	rig.cpu.A = 0x10
	rig.cpu.B = 0x01

	rig.cpu.Step()

	requireZ80EqualU8(t, "A", rig.cpu.A, 0x0F)
	requireZ80EqualU8(t, "F", rig.cpu.F, 0x1A)
}

func TestZ80ALUSbcWithCarry(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0x98}) // SBC A,B
	rig.cpu.A = 0x00
	rig.cpu.B = 0x00
	rig.cpu.F = z80FlagC

	rig.cpu.Step()

	requireZ80EqualU8(t, "A", rig.cpu.A, 0xFF)
	requireZ80EqualU8(t, "F", rig.cpu.F, 0xBB)
}

func TestZ80ALUAnd(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0xA0}) // AND B
	rig.cpu.A = 0xF0
	rig.cpu.B = 0x0F

	rig.cpu.Step()

	requireZ80EqualU8(t, "A", rig.cpu.A, 0x00)
	requireZ80EqualU8(t, "F", rig.cpu.F, 0x54)
}

func TestZ80ALUXor(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0xA8}) // XOR B
	rig.cpu.A = 0xFF
	rig.cpu.B = 0x0F

	rig.cpu.Step()

	requireZ80EqualU8(t, "A", rig.cpu.A, 0xF0)
	requireZ80EqualU8(t, "F", rig.cpu.F, 0xA4)
}

func TestZ80ALUOr(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0xB0}) // OR B
	rig.cpu.A = 0x01
	rig.cpu.B = 0x80

	rig.cpu.Step()

	requireZ80EqualU8(t, "A", rig.cpu.A, 0x81)
	requireZ80EqualU8(t, "F", rig.cpu.F, 0x84)
}

func TestZ80ALUCp(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0xFE, 0x20}) // CP 0x20
	rig.cpu.A = 0x10

	rig.cpu.Step()

	requireZ80EqualU8(t, "A", rig.cpu.A, 0x10)
	requireZ80EqualU8(t, "F", rig.cpu.F, 0xA3)
}

// Property sweep: flag bits match the reference semantics on random inputs.
func TestZ80ALUFlagProperties(t *testing.T) {
	seed := uint32(0x12345)
	next := func() byte {
		seed = seed*1664525 + 1013904223
		return byte(seed >> 16)
	}

	for i := 0; i < 2000; i++ {
		a, b := next(), next()

		rig := newCPUZ80TestRig()
		rig.resetAndLoad(0x0000, []byte{0x80}) // ADD A,B
		rig.cpu.A = a
		rig.cpu.B = b
		rig.cpu.Step()

		sum := uint16(a) + uint16(b)
		res := byte(sum)
		requireZ80EqualU8(t, "ADD result", rig.cpu.A, res)
		if got, want := rig.cpu.Flag(z80FlagC), sum > 0xFF; got != want {
			t.Fatalf("ADD C flag for %02X+%02X: got %v", a, b, got)
		}
		if got, want := rig.cpu.Flag(z80FlagZ), res == 0; got != want {
			t.Fatalf("ADD Z flag for %02X+%02X: got %v", a, b, got)
		}
		if got, want := rig.cpu.Flag(z80FlagS), res&0x80 != 0; got != want {
			t.Fatalf("ADD S flag for %02X+%02X: got %v", a, b, got)
		}
		if got, want := rig.cpu.Flag(z80FlagH), (a&0x0F)+(b&0x0F) > 0x0F; got != want {
			t.Fatalf("ADD H flag for %02X+%02X: got %v", a, b, got)
		}
		if got, want := rig.cpu.Flag(z80FlagPV), overflowAdd(a, b, res); got != want {
			t.Fatalf("ADD PV flag for %02X+%02X: got %v", a, b, got)
		}
		if rig.cpu.Flag(z80FlagN) {
			t.Fatalf("ADD N flag set for %02X+%02X", a, b)
		}

		rig = newCPUZ80TestRig()
		rig.resetAndLoad(0x0000, []byte{0x90}) // SUB B
		rig.cpu.A = a
		rig.cpu.B = b
		rig.cpu.Step()

		diff := int(a) - int(b)
		res = byte(diff)
		requireZ80EqualU8(t, "SUB result", rig.cpu.A, res)
		if got, want := rig.cpu.Flag(z80FlagC), diff < 0; got != want {
			t.Fatalf("SUB C flag for %02X-%02X: got %v", a, b, got)
		}
		if got, want := rig.cpu.Flag(z80FlagH), int(a&0x0F)-int(b&0x0F) < 0; got != want {
			t.Fatalf("SUB H flag for %02X-%02X: got %v", a, b, got)
		}
		if got, want := rig.cpu.Flag(z80FlagPV), overflowSub(a, b, res); got != want {
			t.Fatalf("SUB PV flag for %02X-%02X: got %v", a, b, got)
		}
		if !rig.cpu.Flag(z80FlagN) {
			t.Fatalf("SUB N flag clear for %02X-%02X", a, b)
		}
	}
}

func TestZ80IncDecFlags(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0x3C}) // INC A
	rig.cpu.A = 0x7F
	rig.cpu.F = z80FlagC

	rig.cpu.Step()

	requireZ80EqualU8(t, "A", rig.cpu.A, 0x80)
	if !rig.cpu.Flag(z80FlagPV) {
		t.Fatal("INC 0x7F must set PV")
	}
	if !rig.cpu.Flag(z80FlagC) {
		t.Fatal("INC must preserve C")
	}

	rig.resetAndLoad(0x0000, []byte{0x3D}) // DEC A
	rig.cpu.A = 0x80
	rig.cpu.Step()

	requireZ80EqualU8(t, "A", rig.cpu.A, 0x7F)
	if !rig.cpu.Flag(z80FlagPV) {
		t.Fatal("DEC 0x80 must set PV")
	}
	if !rig.cpu.Flag(z80FlagN) {
		t.Fatal("DEC must set N")
	}
}

func TestZ80DAAAfterAdd(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0x80, 0x27}) // ADD A,B ; DAA
	rig.cpu.A = 0x15
	rig.cpu.B = 0x27

	rig.cpu.Step()
	rig.cpu.Step()

	requireZ80EqualU8(t, "A", rig.cpu.A, 0x42)
	if rig.cpu.Flag(z80FlagC) {
		t.Fatal("DAA carry must stay clear for 15+27")
	}
}

func TestZ80AddHL16(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0x09}) // ADD HL,BC
	rig.cpu.SetHL(0x0FFF)
	rig.cpu.SetBC(0x0001)
	rig.cpu.F = z80FlagS | z80FlagZ | z80FlagPV

	rig.cpu.Step()

	requireZ80EqualU16(t, "HL", rig.cpu.HL(), 0x1000)
	if !rig.cpu.Flag(z80FlagH) {
		t.Fatal("ADD HL must set H on bit-12 carry")
	}
	// S, Z and PV survive 16-bit ADD.
	if !rig.cpu.Flag(z80FlagS) || !rig.cpu.Flag(z80FlagZ) || !rig.cpu.Flag(z80FlagPV) {
		t.Fatal("ADD HL must preserve S/Z/PV")
	}
}

func TestZ80SbcHL16(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0xED, 0x52}) // SBC HL,DE
	rig.cpu.SetHL(0x0001)
	rig.cpu.SetDE(0x0001)
	rig.cpu.F = z80FlagC

	rig.cpu.Step()

	requireZ80EqualU16(t, "HL", rig.cpu.HL(), 0xFFFF)
	if !rig.cpu.Flag(z80FlagC) || !rig.cpu.Flag(z80FlagS) {
		t.Fatal("SBC HL borrow must set C and S")
	}
}
