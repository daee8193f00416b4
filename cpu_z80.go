// cpu_z80.go - T-state accurate Z80 CPU core for the PC-G815

package main

type Z80Bus interface {
	Read8(addr uint16) byte
	Write8(addr uint16, value byte)
	In8(port uint16) byte
	Out8(port uint16, value byte)
}

// M1Notifier is an optional extension of Z80Bus. When the bus implements it,
// OnM1 fires at the start of every opcode fetch with the fetch address.
type M1Notifier interface {
	OnM1(pc uint16)
}

type opSpace int

const (
	spaceBase opSpace = iota
	spaceCB
	spaceED
	spaceDD
	spaceFD
	spaceDDCB
	spaceFDCB
	spaceCount
)

func (s opSpace) String() string {
	switch s {
	case spaceBase:
		return "base"
	case spaceCB:
		return "cb"
	case spaceED:
		return "ed"
	case spaceDD:
		return "dd"
	case spaceFD:
		return "fd"
	case spaceDDCB:
		return "ddcb"
	case spaceFDCB:
		return "fdcb"
	}
	return "?"
}

// Bus cycle kinds. Each machine cycle drains one T-state per tick; the WAIT
// pin is honored only at the cycle's sample phase.
type cycleKind int

const (
	cycleFetch cycleKind = iota
	cycleMemRead
	cycleMemWrite
	cycleIORead
	cycleIOWrite
	cycleIntAck
	cycleHaltFetch
	cycleIdle
)

// busCycle is the unit of the micro-op queue. An instruction decodes into an
// ordered list of these; the queue is empty exactly at instruction boundaries.
type busCycle struct {
	kind   cycleKind
	addr   uint16
	data   byte
	length int // T-states
	sample int // T-state index at which WAIT is sampled, -1 for none
}

type Z80PinsIn struct {
	Data  byte
	Wait  bool
	Int   bool
	Nmi   bool
	Busrq bool
	Reset bool
}

type Z80PinsOut struct {
	Addr      uint16
	Data      byte
	DataValid bool
	M1        bool
	Mreq      bool
	Iorq      bool
	Rd        bool
	Wr        bool
	Rfsh      bool
	Halt      bool
	Busak     bool
}

const (
	z80PrefixNone byte = iota
	z80PrefixDD
	z80PrefixFD
)

// maxQueueCycles bounds the micro-op queue between instructions. The longest
// legal instruction (EX (SP),IX and friends) stays well under this.
const maxQueueCycles = 12

type CPUZ80 struct {
	A  byte
	F  byte
	B  byte
	C  byte
	D  byte
	E  byte
	H  byte
	L  byte
	A2 byte
	F2 byte
	B2 byte
	C2 byte
	D2 byte
	E2 byte
	H2 byte
	L2 byte

	IX uint16
	IY uint16
	SP uint16
	PC uint16

	I  byte
	R  byte
	IM byte
	WZ uint16

	IFF1 bool
	IFF2 bool

	Halted  bool
	TStates uint64

	// External lines, latched for bus-object users; pin users drive them
	// through TickPin each T-state.
	intLine    bool
	intData    byte
	nmiPending bool
	nmiPrev    bool
	waitLine   bool
	busrqLine  bool
	busak      bool

	// EI executes exactly one more instruction before INT acceptance.
	deferInt bool

	Strict        bool
	OnUnsupported func(space string, opcode byte)

	bus Z80Bus

	// Micro-op queue and playback position within the head cycle.
	pending  []busCycle
	cyclePos int

	// Decode bookkeeping for timing-table padding.
	decodeSpace  opSpace
	decodeOpcode byte
	decodeExtra  int

	prefixMode byte
	indexDisp  int8
	haveDisp   bool

	baseOps [256]func(*CPUZ80)
	edOps   [256]func(*CPUZ80)
}

func NewCPUZ80(bus Z80Bus) *CPUZ80 {
	cpu := &CPUZ80{bus: bus}
	cpu.initBaseOps()
	cpu.initEDOps()
	cpu.Reset()
	return cpu
}

func (c *CPUZ80) Reset() {
	c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L = 0, 0, 0, 0, 0, 0, 0, 0
	c.A2, c.F2, c.B2, c.C2, c.D2, c.E2, c.H2, c.L2 = 0, 0, 0, 0, 0, 0, 0, 0
	c.IX = 0
	c.IY = 0
	c.SP = 0xFFFF
	c.PC = 0
	c.I = 0
	c.R = 0
	c.IM = 1
	c.WZ = 0
	c.IFF1 = false
	c.IFF2 = false
	c.Halted = false
	c.TStates = 0
	c.intLine = false
	c.intData = 0xFF
	c.nmiPending = false
	c.nmiPrev = false
	c.waitLine = false
	c.busrqLine = false
	c.busak = false
	c.deferInt = false
	c.prefixMode = z80PrefixNone
	c.indexDisp = 0
	c.haveDisp = false
	c.pending = c.pending[:0]
	c.cyclePos = 0
}

func (c *CPUZ80) AF() uint16  { return uint16(c.A)<<8 | uint16(c.F) }
func (c *CPUZ80) BC() uint16  { return uint16(c.B)<<8 | uint16(c.C) }
func (c *CPUZ80) DE() uint16  { return uint16(c.D)<<8 | uint16(c.E) }
func (c *CPUZ80) HL() uint16  { return uint16(c.H)<<8 | uint16(c.L) }
func (c *CPUZ80) AF2() uint16 { return uint16(c.A2)<<8 | uint16(c.F2) }
func (c *CPUZ80) BC2() uint16 { return uint16(c.B2)<<8 | uint16(c.C2) }
func (c *CPUZ80) DE2() uint16 { return uint16(c.D2)<<8 | uint16(c.E2) }
func (c *CPUZ80) HL2() uint16 { return uint16(c.H2)<<8 | uint16(c.L2) }

func (c *CPUZ80) SetAF(value uint16) { c.A = byte(value >> 8); c.F = byte(value) }
func (c *CPUZ80) SetBC(value uint16) { c.B = byte(value >> 8); c.C = byte(value) }
func (c *CPUZ80) SetDE(value uint16) { c.D = byte(value >> 8); c.E = byte(value) }
func (c *CPUZ80) SetHL(value uint16) { c.H = byte(value >> 8); c.L = byte(value) }

func (c *CPUZ80) SetBC2(value uint16) { c.B2 = byte(value >> 8); c.C2 = byte(value) }

func (c *CPUZ80) Flag(mask byte) bool { return c.F&mask != 0 }

func (c *CPUZ80) SetFlag(mask byte, on bool) {
	if on {
		c.F |= mask
	} else {
		c.F &^= mask
	}
}

func (c *CPUZ80) ExAF() {
	c.A, c.A2 = c.A2, c.A
	c.F, c.F2 = c.F2, c.F
}

func (c *CPUZ80) Exx() {
	c.B, c.B2 = c.B2, c.B
	c.C, c.C2 = c.C2, c.C
	c.D, c.D2 = c.D2, c.D
	c.E, c.E2 = c.E2, c.E
	c.H, c.H2 = c.H2, c.H
	c.L, c.L2 = c.L2, c.L
}

// RaiseInt latches a maskable interrupt request with the given data-bus byte.
func (c *CPUZ80) RaiseInt(dataBus byte) {
	c.intLine = true
	c.intData = dataBus
}

func (c *CPUZ80) ClearInt() {
	c.intLine = false
}

// RaiseNmi latches an edge-triggered non-maskable interrupt.
func (c *CPUZ80) RaiseNmi() {
	c.nmiPending = true
}

func (c *CPUZ80) SetWaitLine(assert bool)  { c.waitLine = assert }
func (c *CPUZ80) SetBusrqLine(assert bool) { c.busrqLine = assert }
func (c *CPUZ80) BusakActive() bool        { return c.busak }

// QueueDepth returns the number of T-states left in the micro-op queue.
// Zero means the CPU sits at an instruction boundary.
func (c *CPUZ80) QueueDepth() int {
	depth := 0
	for i, cy := range c.pending {
		depth += cy.length
		if i == 0 {
			depth -= c.cyclePos
		}
	}
	return depth
}

// StepTStates advances the CPU by exactly n T-states against the bus object,
// using the latched INT/NMI/WAIT/BUSRQ lines.
func (c *CPUZ80) StepTStates(n int) {
	for i := 0; i < n; i++ {
		c.TickPin(Z80PinsIn{
			Data:  c.intData,
			Wait:  c.waitLine,
			Int:   c.intLine,
			Busrq: c.busrqLine,
		})
	}
}

// Step runs T-states until the next instruction boundary: one instruction,
// one interrupt acceptance, or one HALT fetch cycle.
func (c *CPUZ80) Step() {
	c.StepTStates(1)
	for len(c.pending) > 0 {
		c.StepTStates(1)
	}
}

// TickPin advances one T-state with explicit pin inputs and returns the pin
// outputs for that T-state. The same state machine backs StepTStates.
func (c *CPUZ80) TickPin(in Z80PinsIn) Z80PinsOut {
	if in.Reset {
		c.Reset()
		return Z80PinsOut{}
	}

	// NMI is edge triggered on the pin view.
	if in.Nmi && !c.nmiPrev {
		c.nmiPending = true
	}
	c.nmiPrev = in.Nmi

	c.TStates++

	if len(c.pending) == 0 {
		// Instruction boundary. BUSRQ wins over everything, including
		// interrupt acknowledgement.
		if in.Busrq {
			c.busak = true
			return Z80PinsOut{Busak: true, Halt: c.Halted}
		}
		c.busak = false
		c.decode(in)
	} else if c.cyclePos == 0 && in.Busrq {
		// Between machine cycles mid-instruction the bus is released
		// without touching instruction state.
		c.busak = true
		return Z80PinsOut{Busak: true, Halt: c.Halted}
	} else {
		c.busak = false
	}

	return c.playback(in)
}

// playback emits the pins for the current T-state of the head cycle and
// advances, honoring WAIT at the cycle's sample phase only.
func (c *CPUZ80) playback(in Z80PinsIn) Z80PinsOut {
	if len(c.pending) == 0 {
		return Z80PinsOut{Halt: c.Halted}
	}
	cy := &c.pending[0]
	out := c.pinsFor(cy, c.cyclePos)
	out.Halt = c.Halted

	if c.cyclePos == cy.sample && in.Wait {
		// WAIT inserts one T-state; the sample phase repeats until the
		// pin releases.
		return out
	}

	c.cyclePos++
	if c.cyclePos >= cy.length {
		c.pending = c.pending[1:]
		c.cyclePos = 0
	}
	return out
}

func (c *CPUZ80) pinsFor(cy *busCycle, pos int) Z80PinsOut {
	out := Z80PinsOut{Addr: cy.addr}
	switch cy.kind {
	case cycleFetch, cycleHaltFetch:
		if pos < 2 {
			out.M1 = true
			out.Mreq = true
			out.Rd = true
		} else {
			out.Rfsh = true
			out.Mreq = true
			out.Addr = uint16(c.I)<<8 | uint16(c.R)
		}
	case cycleMemRead:
		out.Mreq = true
		out.Rd = true
	case cycleMemWrite:
		out.Mreq = true
		if pos >= 1 {
			out.Wr = true
		}
		out.Data = cy.data
		out.DataValid = true
	case cycleIORead:
		out.Iorq = true
		out.Rd = true
	case cycleIOWrite:
		out.Iorq = true
		out.Wr = true
		out.Data = cy.data
		out.DataValid = true
	case cycleIntAck:
		out.M1 = true
		if pos >= 2 {
			out.Iorq = true
		}
	case cycleIdle:
	}
	return out
}

// decode runs at an empty queue: it checks NMI, then maskable INT, then HALT,
// then fetches and executes one instruction. All bus side effects happen here;
// the queue replays the instruction's T-states and pin activity.
func (c *CPUZ80) decode(in Z80PinsIn) {
	if c.nmiPending {
		c.nmiPending = false
		c.serviceNMI()
		return
	}

	if (c.intLine || in.Int) && c.IFF1 && !c.deferInt {
		data := c.intData
		if in.Int {
			data = in.Data
		}
		c.serviceINT(data)
		return
	}
	c.deferInt = false

	if c.Halted {
		c.incrementR()
		c.enqueue(busCycle{kind: cycleHaltFetch, addr: c.PC, length: 4, sample: 1})
		return
	}

	c.decodeExtra = 0
	c.decodeSpace = spaceBase
	opcode := c.fetchOpcode()
	c.decodeOpcode = opcode
	c.baseOps[opcode](c)
	c.padToTiming()

	if len(c.pending) > maxQueueCycles {
		panic("z80: micro-op queue overflow")
	}
}

func (c *CPUZ80) padToTiming() {
	total := int(z80Timing[c.decodeSpace][c.decodeOpcode]) + c.decodeExtra
	have := 0
	for _, cy := range c.pending {
		have += cy.length
	}
	if have < total {
		c.enqueue(busCycle{kind: cycleIdle, length: total - have, sample: -1})
	}
}

func (c *CPUZ80) serviceNMI() {
	c.Halted = false
	c.incrementR()
	c.IFF1 = false
	// 5 T-states of acknowledge, then the push. 11 in total.
	c.enqueue(busCycle{kind: cycleIntAck, addr: c.PC, length: 5, sample: -1})
	c.pushWord(c.PC)
	c.PC = 0x0066
	c.WZ = c.PC
}

func (c *CPUZ80) serviceINT(dataBus byte) {
	c.Halted = false
	c.incrementR()
	c.IFF1 = false
	c.IFF2 = false
	c.enqueue(busCycle{kind: cycleIntAck, addr: c.PC, length: 7, sample: 2})
	switch c.IM {
	case 0:
		// The data bus byte is interpreted as an RST opcode.
		c.pushWord(c.PC)
		c.PC = uint16(dataBus & 0x38)
		c.WZ = c.PC
	case 2:
		c.pushWord(c.PC)
		vector := (uint16(c.I)<<8 | uint16(dataBus)) & 0xFFFE
		low := c.read(vector)
		high := c.read(vector + 1)
		c.PC = uint16(high)<<8 | uint16(low)
		c.WZ = vector + 1
	default:
		c.pushWord(c.PC)
		c.PC = 0x0038
		c.WZ = c.PC
	}
}

func (c *CPUZ80) enqueue(cy busCycle) {
	c.pending = append(c.pending, cy)
}

func (c *CPUZ80) incrementR() {
	c.R = (c.R & 0x80) | ((c.R + 1) & 0x7F)
}

// fetchOpcode performs an M1 cycle: read at PC, bump R, advance PC.
func (c *CPUZ80) fetchOpcode() byte {
	if notifier, ok := c.bus.(M1Notifier); ok {
		notifier.OnM1(c.PC)
	}
	opcode := c.bus.Read8(c.PC)
	c.enqueue(busCycle{kind: cycleFetch, addr: c.PC, data: opcode, length: 4, sample: 1})
	c.PC++
	c.incrementR()
	return opcode
}

func (c *CPUZ80) fetchByte() byte {
	value := c.bus.Read8(c.PC)
	c.enqueue(busCycle{kind: cycleMemRead, addr: c.PC, data: value, length: 3, sample: 1})
	c.PC++
	return value
}

func (c *CPUZ80) fetchWord() uint16 {
	low := c.fetchByte()
	high := c.fetchByte()
	return uint16(high)<<8 | uint16(low)
}

func (c *CPUZ80) read(addr uint16) byte {
	value := c.bus.Read8(addr)
	c.enqueue(busCycle{kind: cycleMemRead, addr: addr, data: value, length: 3, sample: 1})
	return value
}

func (c *CPUZ80) write(addr uint16, value byte) {
	c.bus.Write8(addr, value)
	c.enqueue(busCycle{kind: cycleMemWrite, addr: addr, data: value, length: 3, sample: 1})
}

func (c *CPUZ80) in(port uint16) byte {
	value := c.bus.In8(port)
	c.enqueue(busCycle{kind: cycleIORead, addr: port, data: value, length: 4, sample: 2})
	return value
}

func (c *CPUZ80) out(port uint16, value byte) {
	c.bus.Out8(port, value)
	c.enqueue(busCycle{kind: cycleIOWrite, addr: port, data: value, length: 4, sample: 2})
}

func (c *CPUZ80) idle(n int) {
	if n > 0 {
		c.enqueue(busCycle{kind: cycleIdle, length: n, sample: -1})
	}
}

func (c *CPUZ80) pushWord(value uint16) {
	c.SP--
	c.write(c.SP, byte(value>>8))
	c.SP--
	c.write(c.SP, byte(value))
}

func (c *CPUZ80) popWord() uint16 {
	low := c.read(c.SP)
	c.SP++
	high := c.read(c.SP)
	c.SP++
	return uint16(high)<<8 | uint16(low)
}

// CPUZ80State is the serializable register snapshot.
type CPUZ80State struct {
	A, F, B, C, D, E, H, L         byte
	A2, F2, B2, C2, D2, E2, H2, L2 byte
	IX, IY, SP, PC                 uint16
	I, R, IM                       byte
	WZ                             uint16
	IFF1, IFF2, Halted             bool
	TStates                        uint64
}

// GetState snapshots the register file. Meaningful at instruction boundaries.
func (c *CPUZ80) GetState() CPUZ80State {
	return CPUZ80State{
		A: c.A, F: c.F, B: c.B, C: c.C, D: c.D, E: c.E, H: c.H, L: c.L,
		A2: c.A2, F2: c.F2, B2: c.B2, C2: c.C2, D2: c.D2, E2: c.E2, H2: c.H2, L2: c.L2,
		IX: c.IX, IY: c.IY, SP: c.SP, PC: c.PC,
		I: c.I, R: c.R, IM: c.IM, WZ: c.WZ,
		IFF1: c.IFF1, IFF2: c.IFF2, Halted: c.Halted,
		TStates: c.TStates,
	}
}

// LoadState restores a register snapshot and clears the micro-op queue.
func (c *CPUZ80) LoadState(s CPUZ80State) {
	c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L = s.A, s.F, s.B, s.C, s.D, s.E, s.H, s.L
	c.A2, c.F2, c.B2, c.C2, c.D2, c.E2, c.H2, c.L2 = s.A2, s.F2, s.B2, s.C2, s.D2, s.E2, s.H2, s.L2
	c.IX, c.IY, c.SP, c.PC = s.IX, s.IY, s.SP, s.PC
	c.I, c.R, c.IM, c.WZ = s.I, s.R, s.IM, s.WZ
	c.IFF1, c.IFF2, c.Halted = s.IFF1, s.IFF2, s.Halted
	c.TStates = s.TStates
	c.pending = c.pending[:0]
	c.cyclePos = 0
}
