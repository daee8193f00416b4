package main

import "testing"

func TestZ80M1ThenRefreshOrdering(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0x00}) // NOP

	var outs []Z80PinsOut
	for i := 0; i < 4; i++ {
		outs = append(outs, rig.cpu.TickPin(Z80PinsIn{}))
	}

	if !(outs[0].M1 && outs[0].Mreq && outs[0].Rd) {
		t.Fatalf("T1 pins = %+v, want M1+MREQ+RD", outs[0])
	}
	if !(outs[1].M1 && outs[1].Mreq && outs[1].Rd) {
		t.Fatalf("T2 pins = %+v, want M1+MREQ+RD", outs[1])
	}
	if !(outs[2].Rfsh && outs[2].Mreq) || outs[2].M1 {
		t.Fatalf("T3 pins = %+v, want MREQ+RFSH after M1", outs[2])
	}
	if !(outs[3].Rfsh && outs[3].Mreq) {
		t.Fatalf("T4 pins = %+v, want MREQ+RFSH", outs[3])
	}
}

func TestZ80WaitIgnoredOutsideSamplePhase(t *testing.T) {
	run := func(waitAt int) (byte, int) {
		rig := newCPUZ80TestRig()
		rig.resetAndLoad(0x0000, []byte{0xDB, 0x40}) // IN A,(0x40)
		rig.bus.io[0x0040] = 0x5A

		ticks := 0
		for {
			rig.cpu.TickPin(Z80PinsIn{Wait: ticks == waitAt})
			ticks++
			if len(rig.cpu.pending) == 0 {
				return rig.cpu.A, ticks
			}
			if ticks > 40 {
				t.Fatal("instruction never completed")
			}
		}
	}

	// WAIT on T1 of the fetch is not a sample phase: no stretch.
	a, ticks := run(0)
	requireZ80EqualU8(t, "A", a, 0x5A)
	if ticks != 11 {
		t.Fatalf("ticks with WAIT outside sample = %d, want 11", ticks)
	}

	// WAIT on T2 of the fetch is sampled: one extra T-state.
	a, ticks = run(1)
	requireZ80EqualU8(t, "A", a, 0x5A)
	if ticks != 12 {
		t.Fatalf("ticks with WAIT on sample = %d, want 12", ticks)
	}
}

func TestZ80WaitInsertsRepeatedly(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0x00}) // NOP: one 4T fetch

	rig.cpu.TickPin(Z80PinsIn{}) // T1
	// Hold WAIT through three sample repeats.
	for i := 0; i < 3; i++ {
		rig.cpu.TickPin(Z80PinsIn{Wait: true})
	}
	rig.cpu.TickPin(Z80PinsIn{}) // T2 completes
	rig.cpu.TickPin(Z80PinsIn{})
	rig.cpu.TickPin(Z80PinsIn{})

	if len(rig.cpu.pending) != 0 {
		t.Fatal("instruction must complete after WAIT releases")
	}
	if rig.cpu.TStates != 7 {
		t.Fatalf("TStates = %d, want 7 (4 + 3 wait states)", rig.cpu.TStates)
	}
}

func TestZ80BusrqFloatsBus(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0x00, 0x00})

	for i := 0; i < 10; i++ {
		out := rig.cpu.TickPin(Z80PinsIn{Busrq: true})
		if !out.Busak {
			t.Fatal("BUSAK must assert while BUSRQ held at a boundary")
		}
		if out.Mreq || out.Rd || out.Wr || out.M1 {
			t.Fatalf("bus must float during BUSAK, got %+v", out)
		}
	}
	requireZ80EqualU16(t, "PC under BUSRQ", rig.cpu.PC, 0x0000)

	for i := 0; i < 4; i++ {
		rig.cpu.TickPin(Z80PinsIn{})
	}
	requireZ80EqualU16(t, "PC after release", rig.cpu.PC, 0x0001)
}

func TestZ80BusrqBlocksIntAck(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0x00, 0x00})
	rig.cpu.IFF1 = true
	rig.cpu.IFF2 = true
	rig.cpu.RaiseInt(0xFF)

	for i := 0; i < 8; i++ {
		rig.cpu.TickPin(Z80PinsIn{Busrq: true, Int: true})
	}
	requireZ80EqualU16(t, "PC under BUSRQ", rig.cpu.PC, 0x0000)

	for i := 0; i < 13; i++ {
		rig.cpu.TickPin(Z80PinsIn{Int: true})
	}
	requireZ80EqualU16(t, "PC after release", rig.cpu.PC, 0x0038)
}

func TestZ80ResetPin(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0x3E, 0x42}) // LD A,0x42
	rig.cpu.Step()
	requireZ80EqualU8(t, "A", rig.cpu.A, 0x42)

	rig.cpu.TickPin(Z80PinsIn{Reset: true})
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0000)
	requireZ80EqualU16(t, "SP", rig.cpu.SP, 0xFFFF)
}

func TestZ80QueueEmptyAtBoundaries(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0x3E, 0x01, 0x06, 0x02}) // LD A,1 ; LD B,2

	if rig.cpu.QueueDepth() != 0 {
		t.Fatal("queue must start empty")
	}
	rig.cpu.Step()
	if rig.cpu.QueueDepth() != 0 {
		t.Fatal("queue must drain at the instruction boundary")
	}
	rig.cpu.StepTStates(3)
	if rig.cpu.QueueDepth() == 0 {
		t.Fatal("queue must hold T-states mid-instruction")
	}
}

func TestZ80M1HookFires(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0x00, 0x00})

	rig.cpu.Step()
	rig.cpu.Step()

	if len(rig.bus.m1Addrs) != 2 || rig.bus.m1Addrs[0] != 0 || rig.bus.m1Addrs[1] != 1 {
		t.Fatalf("M1 hook addresses = %v, want [0 1]", rig.bus.m1Addrs)
	}
}
