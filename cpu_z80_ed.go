// cpu_z80_ed.go - ED extended space: 16-bit ADC/SBC, block moves, block I/O

package main

func (c *CPUZ80) initEDOps() {
	for i := range c.edOps {
		c.edOps[i] = (*CPUZ80).opEDNop
	}

	for code := byte(0); code < 8; code++ {
		reg := code
		c.edOps[0x40+code*8] = func(cpu *CPUZ80) { cpu.opINRegC(reg) }
		c.edOps[0x41+code*8] = func(cpu *CPUZ80) { cpu.opOUTCReg(reg) }
	}

	c.edOps[0x42] = func(cpu *CPUZ80) { cpu.sbcHL(cpu.BC()) }
	c.edOps[0x52] = func(cpu *CPUZ80) { cpu.sbcHL(cpu.DE()) }
	c.edOps[0x62] = func(cpu *CPUZ80) { cpu.sbcHL(cpu.HL()) }
	c.edOps[0x72] = func(cpu *CPUZ80) { cpu.sbcHL(cpu.SP) }
	c.edOps[0x4A] = func(cpu *CPUZ80) { cpu.adcHL(cpu.BC()) }
	c.edOps[0x5A] = func(cpu *CPUZ80) { cpu.adcHL(cpu.DE()) }
	c.edOps[0x6A] = func(cpu *CPUZ80) { cpu.adcHL(cpu.HL()) }
	c.edOps[0x7A] = func(cpu *CPUZ80) { cpu.adcHL(cpu.SP) }

	c.edOps[0x43] = func(cpu *CPUZ80) { cpu.edStorePair(cpu.BC()) }
	c.edOps[0x53] = func(cpu *CPUZ80) { cpu.edStorePair(cpu.DE()) }
	c.edOps[0x63] = func(cpu *CPUZ80) { cpu.edStorePair(cpu.HL()) }
	c.edOps[0x73] = func(cpu *CPUZ80) { cpu.edStorePair(cpu.SP) }
	c.edOps[0x4B] = func(cpu *CPUZ80) { cpu.SetBC(cpu.edLoadPair()) }
	c.edOps[0x5B] = func(cpu *CPUZ80) { cpu.SetDE(cpu.edLoadPair()) }
	c.edOps[0x6B] = func(cpu *CPUZ80) { cpu.SetHL(cpu.edLoadPair()) }
	c.edOps[0x7B] = func(cpu *CPUZ80) { cpu.SP = cpu.edLoadPair() }

	for _, op := range []byte{0x44, 0x4C, 0x54, 0x5C, 0x64, 0x6C, 0x74, 0x7C} {
		c.edOps[op] = (*CPUZ80).opNEG
	}
	for _, op := range []byte{0x45, 0x55, 0x5D, 0x65, 0x6D, 0x75, 0x7D} {
		c.edOps[op] = (*CPUZ80).opRETN
	}
	c.edOps[0x4D] = (*CPUZ80).opRETI

	for _, op := range []byte{0x46, 0x4E, 0x66, 0x6E} {
		c.edOps[op] = func(cpu *CPUZ80) { cpu.IM = 0 }
	}
	for _, op := range []byte{0x56, 0x76} {
		c.edOps[op] = func(cpu *CPUZ80) { cpu.IM = 1 }
	}
	for _, op := range []byte{0x5E, 0x7E} {
		c.edOps[op] = func(cpu *CPUZ80) { cpu.IM = 2 }
	}

	c.edOps[0x47] = func(cpu *CPUZ80) { cpu.I = cpu.A }
	c.edOps[0x4F] = func(cpu *CPUZ80) { cpu.R = cpu.A }
	c.edOps[0x57] = func(cpu *CPUZ80) { cpu.opLDAIR(cpu.I) }
	c.edOps[0x5F] = func(cpu *CPUZ80) { cpu.opLDAIR(cpu.R) }

	c.edOps[0x67] = (*CPUZ80).opRRD
	c.edOps[0x6F] = (*CPUZ80).opRLD

	c.edOps[0xA0] = func(cpu *CPUZ80) { cpu.blockLD(1, false) }
	c.edOps[0xA8] = func(cpu *CPUZ80) { cpu.blockLD(-1, false) }
	c.edOps[0xB0] = func(cpu *CPUZ80) { cpu.blockLD(1, true) }
	c.edOps[0xB8] = func(cpu *CPUZ80) { cpu.blockLD(-1, true) }

	c.edOps[0xA1] = func(cpu *CPUZ80) { cpu.blockCP(1, false) }
	c.edOps[0xA9] = func(cpu *CPUZ80) { cpu.blockCP(-1, false) }
	c.edOps[0xB1] = func(cpu *CPUZ80) { cpu.blockCP(1, true) }
	c.edOps[0xB9] = func(cpu *CPUZ80) { cpu.blockCP(-1, true) }

	c.edOps[0xA2] = func(cpu *CPUZ80) { cpu.blockIN(1, false) }
	c.edOps[0xAA] = func(cpu *CPUZ80) { cpu.blockIN(-1, false) }
	c.edOps[0xB2] = func(cpu *CPUZ80) { cpu.blockIN(1, true) }
	c.edOps[0xBA] = func(cpu *CPUZ80) { cpu.blockIN(-1, true) }

	c.edOps[0xA3] = func(cpu *CPUZ80) { cpu.blockOUT(1, false) }
	c.edOps[0xAB] = func(cpu *CPUZ80) { cpu.blockOUT(-1, false) }
	c.edOps[0xB3] = func(cpu *CPUZ80) { cpu.blockOUT(1, true) }
	c.edOps[0xBB] = func(cpu *CPUZ80) { cpu.blockOUT(-1, true) }
}

// Holes in the ED space decode as NOP.
func (c *CPUZ80) opEDNop() {}

func (c *CPUZ80) opINRegC(reg byte) {
	value := c.in(c.BC())
	if reg != 6 {
		c.writeReg8Plain(reg, value)
	}
	carry := c.F & z80FlagC
	c.F = carry
	if value&0x80 != 0 {
		c.F |= z80FlagS
	}
	if value == 0 {
		c.F |= z80FlagZ
	}
	if parity8(value) {
		c.F |= z80FlagPV
	}
	c.F |= value & (z80FlagX | z80FlagY)
}

func (c *CPUZ80) opOUTCReg(reg byte) {
	value := byte(0)
	if reg != 6 {
		value = c.readReg8Plain(reg)
	}
	c.out(c.BC(), value)
}

func (c *CPUZ80) opNEG() {
	a := c.A
	c.A = c.sub8(0, a, 0)
}

func (c *CPUZ80) opRETN() {
	c.IFF1 = c.IFF2
	c.PC = c.popWord()
	c.WZ = c.PC
}

func (c *CPUZ80) opRETI() {
	c.IFF1 = c.IFF2
	c.PC = c.popWord()
	c.WZ = c.PC
}

func (c *CPUZ80) opLDAIR(value byte) {
	c.A = value
	carry := c.F & z80FlagC
	c.F = carry
	if value&0x80 != 0 {
		c.F |= z80FlagS
	}
	if value == 0 {
		c.F |= z80FlagZ
	}
	if c.IFF2 {
		c.F |= z80FlagPV
	}
	c.F |= value & (z80FlagX | z80FlagY)
}

func (c *CPUZ80) opRRD() {
	addr := c.HL()
	mem := c.read(addr)
	newMem := (mem >> 4) | (c.A << 4)
	c.A = (c.A & 0xF0) | (mem & 0x0F)
	c.write(addr, newMem)
	c.szpPreserveCarry(c.A)
	c.WZ = addr + 1
}

func (c *CPUZ80) opRLD() {
	addr := c.HL()
	mem := c.read(addr)
	newMem := (mem << 4) | (c.A & 0x0F)
	c.A = (c.A & 0xF0) | (mem >> 4)
	c.write(addr, newMem)
	c.szpPreserveCarry(c.A)
	c.WZ = addr + 1
}

func (c *CPUZ80) szpPreserveCarry(value byte) {
	carry := c.F & z80FlagC
	c.F = carry
	if value&0x80 != 0 {
		c.F |= z80FlagS
	}
	if value == 0 {
		c.F |= z80FlagZ
	}
	if parity8(value) {
		c.F |= z80FlagPV
	}
	c.F |= value & (z80FlagX | z80FlagY)
}

func (c *CPUZ80) adcHL(value uint16) {
	hl := c.HL()
	carry := uint16(0)
	if c.Flag(z80FlagC) {
		carry = 1
	}
	sum := uint32(hl) + uint32(value) + uint32(carry)
	res := uint16(sum)

	c.F = 0
	if res == 0 {
		c.F |= z80FlagZ
	}
	if res&0x8000 != 0 {
		c.F |= z80FlagS
	}
	if ((hl&0x0FFF)+(value&0x0FFF)+carry)&0x1000 != 0 {
		c.F |= z80FlagH
	}
	if (^(hl^value))&(hl^res)&0x8000 != 0 {
		c.F |= z80FlagPV
	}
	if sum > 0xFFFF {
		c.F |= z80FlagC
	}
	c.F |= byte((res >> 8) & (z80FlagX | z80FlagY))
	c.SetHL(res)
	c.WZ = hl + 1
}

func (c *CPUZ80) sbcHL(value uint16) {
	hl := c.HL()
	carry := uint16(0)
	if c.Flag(z80FlagC) {
		carry = 1
	}
	diff := int32(hl) - int32(value) - int32(carry)
	res := uint16(diff)

	c.F = z80FlagN
	if res == 0 {
		c.F |= z80FlagZ
	}
	if res&0x8000 != 0 {
		c.F |= z80FlagS
	}
	if int32(hl&0x0FFF)-int32(value&0x0FFF)-int32(carry) < 0 {
		c.F |= z80FlagH
	}
	if (hl^value)&(hl^res)&0x8000 != 0 {
		c.F |= z80FlagPV
	}
	if diff < 0 {
		c.F |= z80FlagC
	}
	c.F |= byte((res >> 8) & (z80FlagX | z80FlagY))
	c.SetHL(res)
	c.WZ = hl + 1
}

func (c *CPUZ80) edStorePair(value uint16) {
	addr := c.fetchWord()
	c.write(addr, byte(value))
	c.write(addr+1, byte(value>>8))
	c.WZ = addr + 1
}

func (c *CPUZ80) edLoadPair() uint16 {
	addr := c.fetchWord()
	low := c.read(addr)
	high := c.read(addr + 1)
	c.WZ = addr + 1
	return uint16(high)<<8 | uint16(low)
}

// blockLD implements LDI/LDD/LDIR/LDDR. Repeat forms re-fetch themselves
// (PC minus 2, five extra T-states) while BC is nonzero.
func (c *CPUZ80) blockLD(dir int, repeat bool) {
	value := c.read(c.HL())
	c.write(c.DE(), value)
	c.SetHL(uint16(int32(c.HL()) + int32(dir)))
	c.SetDE(uint16(int32(c.DE()) + int32(dir)))
	bc := c.BC() - 1
	c.SetBC(bc)

	sum := c.A + value
	c.F &= z80FlagS | z80FlagZ | z80FlagC
	if bc != 0 {
		c.F |= z80FlagPV
	}
	if sum&0x02 != 0 {
		c.F |= z80FlagY
	}
	if sum&0x08 != 0 {
		c.F |= z80FlagX
	}

	if repeat && bc != 0 {
		c.PC -= 2
		c.WZ = c.PC + 1
		c.decodeExtra = 5
	}
}

// blockCP implements CPI/CPD/CPIR/CPDR. Repeat forms continue while BC is
// nonzero and A differs from (HL).
func (c *CPUZ80) blockCP(dir int, repeat bool) {
	value := c.read(c.HL())
	diff := c.A - value
	half := halfCarrySub(c.A, value, 0)
	c.SetHL(uint16(int32(c.HL()) + int32(dir)))
	bc := c.BC() - 1
	c.SetBC(bc)

	c.F = (c.F & z80FlagC) | z80FlagN
	if diff&0x80 != 0 {
		c.F |= z80FlagS
	}
	if diff == 0 {
		c.F |= z80FlagZ
	}
	if half {
		c.F |= z80FlagH
	}
	if bc != 0 {
		c.F |= z80FlagPV
	}
	n := diff
	if half {
		n--
	}
	if n&0x02 != 0 {
		c.F |= z80FlagY
	}
	if n&0x08 != 0 {
		c.F |= z80FlagX
	}
	c.WZ = uint16(int32(c.WZ) + int32(dir))

	if repeat && bc != 0 && diff != 0 {
		c.PC -= 2
		c.WZ = c.PC + 1
		c.decodeExtra = 5
	}
}

// blockIN implements INI/IND/INIR/INDR.
func (c *CPUZ80) blockIN(dir int, repeat bool) {
	value := c.in(c.BC())
	c.write(c.HL(), value)
	c.WZ = uint16(int32(c.BC()) + int32(dir))
	c.SetHL(uint16(int32(c.HL()) + int32(dir)))
	c.B--
	c.blockIOFlags(value)

	if repeat && c.B != 0 {
		c.PC -= 2
		c.decodeExtra = 5
	}
}

// blockOUT implements OUTI/OUTD/OTIR/OTDR.
func (c *CPUZ80) blockOUT(dir int, repeat bool) {
	value := c.read(c.HL())
	c.B--
	c.out(c.BC(), value)
	c.SetHL(uint16(int32(c.HL()) + int32(dir)))
	c.WZ = uint16(int32(c.BC()) + int32(dir))
	c.blockIOFlags(value)

	if repeat && c.B != 0 {
		c.PC -= 2
		c.decodeExtra = 5
	}
}

func (c *CPUZ80) blockIOFlags(value byte) {
	c.F = z80FlagN
	if c.B == 0 {
		c.F |= z80FlagZ
	}
	if c.B&0x80 != 0 {
		c.F |= z80FlagS
	}
	c.F |= c.B & (z80FlagX | z80FlagY)
}
