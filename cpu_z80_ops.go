// cpu_z80_ops.go - base opcode space, ALU semantics, prefix dispatch

package main

type aluOp byte

const (
	aluAdd aluOp = iota
	aluAdc
	aluSub
	aluSbc
	aluAnd
	aluXor
	aluOr
	aluCp
)

// Register codes follow the Z80 encoding: B=0 C=1 D=2 E=3 H=4 L=5 (HL)=6 A=7.
// In DD/FD mode, H/L become IXH/IXL (IYH/IYL) and (HL) becomes (IX+d)/(IY+d)
// with the displacement fetched once by the prefix dispatcher.

func (c *CPUZ80) readReg8(code byte) byte {
	switch code {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.readIndexHigh()
	case 5:
		return c.readIndexLow()
	case 6:
		return c.read(c.memOperandAddr())
	case 7:
		return c.A
	}
	return 0
}

func (c *CPUZ80) writeReg8(code byte, value byte) {
	switch code {
	case 0:
		c.B = value
	case 1:
		c.C = value
	case 2:
		c.D = value
	case 3:
		c.E = value
	case 4:
		c.writeIndexHigh(value)
	case 5:
		c.writeIndexLow(value)
	case 6:
		c.write(c.memOperandAddr(), value)
	case 7:
		c.A = value
	}
}

// Plain variants ignore the active index prefix. LD r,(IX+d) moves between a
// real H/L register and the indexed memory cell.
func (c *CPUZ80) readReg8Plain(code byte) byte {
	switch code {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	case 7:
		return c.A
	}
	return 0
}

func (c *CPUZ80) writeReg8Plain(code byte, value byte) {
	switch code {
	case 0:
		c.B = value
	case 1:
		c.C = value
	case 2:
		c.D = value
	case 3:
		c.E = value
	case 4:
		c.H = value
	case 5:
		c.L = value
	case 7:
		c.A = value
	}
}

func (c *CPUZ80) readIndexHigh() byte {
	switch c.prefixMode {
	case z80PrefixDD:
		return byte(c.IX >> 8)
	case z80PrefixFD:
		return byte(c.IY >> 8)
	}
	return c.H
}

func (c *CPUZ80) readIndexLow() byte {
	switch c.prefixMode {
	case z80PrefixDD:
		return byte(c.IX)
	case z80PrefixFD:
		return byte(c.IY)
	}
	return c.L
}

func (c *CPUZ80) writeIndexHigh(value byte) {
	switch c.prefixMode {
	case z80PrefixDD:
		c.IX = (c.IX & 0x00FF) | uint16(value)<<8
	case z80PrefixFD:
		c.IY = (c.IY & 0x00FF) | uint16(value)<<8
	default:
		c.H = value
	}
}

func (c *CPUZ80) writeIndexLow(value byte) {
	switch c.prefixMode {
	case z80PrefixDD:
		c.IX = (c.IX & 0xFF00) | uint16(value)
	case z80PrefixFD:
		c.IY = (c.IY & 0xFF00) | uint16(value)
	default:
		c.L = value
	}
}

func (c *CPUZ80) indexReg() uint16 {
	if c.prefixMode == z80PrefixFD {
		return c.IY
	}
	return c.IX
}

func (c *CPUZ80) setIndexReg(value uint16) {
	if c.prefixMode == z80PrefixFD {
		c.IY = value
	} else {
		c.IX = value
	}
}

// memOperandAddr resolves the (HL) operand slot: (HL) unprefixed, (IX+d) or
// (IY+d) when an index prefix with displacement is active.
func (c *CPUZ80) memOperandAddr() uint16 {
	if c.prefixMode != z80PrefixNone && c.haveDisp {
		addr := uint16(int32(c.indexReg()) + int32(c.indexDisp))
		c.WZ = addr
		return addr
	}
	return c.HL()
}

// indexPair reads the active 16-bit pair for rp slots: HL unprefixed,
// IX/IY prefixed.
func (c *CPUZ80) indexPair() uint16 {
	switch c.prefixMode {
	case z80PrefixDD:
		return c.IX
	case z80PrefixFD:
		return c.IY
	}
	return c.HL()
}

func (c *CPUZ80) setIndexPair(value uint16) {
	switch c.prefixMode {
	case z80PrefixDD:
		c.IX = value
	case z80PrefixFD:
		c.IY = value
	default:
		c.SetHL(value)
	}
}

func (c *CPUZ80) cond(code byte) bool {
	switch code {
	case 0:
		return !c.Flag(z80FlagZ)
	case 1:
		return c.Flag(z80FlagZ)
	case 2:
		return !c.Flag(z80FlagC)
	case 3:
		return c.Flag(z80FlagC)
	case 4:
		return !c.Flag(z80FlagPV)
	case 5:
		return c.Flag(z80FlagPV)
	case 6:
		return !c.Flag(z80FlagS)
	default:
		return c.Flag(z80FlagS)
	}
}

func (c *CPUZ80) initBaseOps() {
	c.baseOps[0x00] = (*CPUZ80).opNOP
	c.baseOps[0x76] = (*CPUZ80).opHALT

	for opcode := 0x40; opcode <= 0x7F; opcode++ {
		if opcode == 0x76 {
			continue
		}
		dest := byte((opcode >> 3) & 0x07)
		src := byte(opcode & 0x07)
		c.baseOps[opcode] = func(cpu *CPUZ80) {
			cpu.opLDRegReg(dest, src)
		}
	}

	for code := byte(0); code < 8; code++ {
		dest := code
		c.baseOps[0x06+code*8] = func(cpu *CPUZ80) {
			cpu.opLDRegImm(dest)
		}
		reg := code
		c.baseOps[0x04+code*8] = func(cpu *CPUZ80) {
			cpu.writeReg8(reg, cpu.inc8(cpu.readReg8(reg)))
		}
		c.baseOps[0x05+code*8] = func(cpu *CPUZ80) {
			cpu.writeReg8(reg, cpu.dec8(cpu.readReg8(reg)))
		}
	}

	for opcode := 0x80; opcode <= 0xBF; opcode++ {
		op := aluOp((opcode >> 3) & 0x07)
		src := byte(opcode & 0x07)
		c.baseOps[opcode] = func(cpu *CPUZ80) {
			cpu.performALU(op, cpu.readReg8(src))
		}
	}

	for code := byte(0); code < 8; code++ {
		op := aluOp(code)
		c.baseOps[0xC6+code*8] = func(cpu *CPUZ80) {
			cpu.performALU(op, cpu.fetchByte())
		}
	}

	for code := byte(0); code < 8; code++ {
		cc := code
		c.baseOps[0xC2+code*8] = func(cpu *CPUZ80) { cpu.jpCond(cpu.cond(cc)) }
		c.baseOps[0xC4+code*8] = func(cpu *CPUZ80) { cpu.callCond(cpu.cond(cc)) }
		c.baseOps[0xC0+code*8] = func(cpu *CPUZ80) { cpu.retCond(cpu.cond(cc)) }
		vector := uint16(code) * 8
		c.baseOps[0xC7+code*8] = func(cpu *CPUZ80) { cpu.opRST(vector) }
	}

	for code := byte(0); code < 4; code++ {
		cc := code
		c.baseOps[0x20+code*8] = func(cpu *CPUZ80) { cpu.jrCond(cpu.cond(cc)) }
	}

	c.baseOps[0x27] = (*CPUZ80).opDAA
	c.baseOps[0x2F] = (*CPUZ80).opCPL
	c.baseOps[0x37] = (*CPUZ80).opSCF
	c.baseOps[0x3F] = (*CPUZ80).opCCF

	c.baseOps[0x01] = func(cpu *CPUZ80) { cpu.SetBC(cpu.fetchWord()) }
	c.baseOps[0x11] = func(cpu *CPUZ80) { cpu.SetDE(cpu.fetchWord()) }
	c.baseOps[0x21] = func(cpu *CPUZ80) { cpu.setIndexPair(cpu.fetchWord()) }
	c.baseOps[0x31] = func(cpu *CPUZ80) { cpu.SP = cpu.fetchWord() }

	c.baseOps[0x09] = func(cpu *CPUZ80) { cpu.addPair(cpu.BC()) }
	c.baseOps[0x19] = func(cpu *CPUZ80) { cpu.addPair(cpu.DE()) }
	c.baseOps[0x29] = func(cpu *CPUZ80) { cpu.addPair(cpu.indexPair()) }
	c.baseOps[0x39] = func(cpu *CPUZ80) { cpu.addPair(cpu.SP) }

	c.baseOps[0x03] = func(cpu *CPUZ80) { cpu.SetBC(cpu.BC() + 1) }
	c.baseOps[0x13] = func(cpu *CPUZ80) { cpu.SetDE(cpu.DE() + 1) }
	c.baseOps[0x23] = func(cpu *CPUZ80) { cpu.setIndexPair(cpu.indexPair() + 1) }
	c.baseOps[0x33] = func(cpu *CPUZ80) { cpu.SP++ }
	c.baseOps[0x0B] = func(cpu *CPUZ80) { cpu.SetBC(cpu.BC() - 1) }
	c.baseOps[0x1B] = func(cpu *CPUZ80) { cpu.SetDE(cpu.DE() - 1) }
	c.baseOps[0x2B] = func(cpu *CPUZ80) { cpu.setIndexPair(cpu.indexPair() - 1) }
	c.baseOps[0x3B] = func(cpu *CPUZ80) { cpu.SP-- }

	c.baseOps[0xC5] = func(cpu *CPUZ80) { cpu.pushWord(cpu.BC()) }
	c.baseOps[0xD5] = func(cpu *CPUZ80) { cpu.pushWord(cpu.DE()) }
	c.baseOps[0xE5] = func(cpu *CPUZ80) { cpu.pushWord(cpu.indexPair()) }
	c.baseOps[0xF5] = func(cpu *CPUZ80) { cpu.pushWord(cpu.AF()) }
	c.baseOps[0xC1] = func(cpu *CPUZ80) { cpu.SetBC(cpu.popWord()) }
	c.baseOps[0xD1] = func(cpu *CPUZ80) { cpu.SetDE(cpu.popWord()) }
	c.baseOps[0xE1] = func(cpu *CPUZ80) { cpu.setIndexPair(cpu.popWord()) }
	c.baseOps[0xF1] = func(cpu *CPUZ80) { cpu.SetAF(cpu.popWord()) }

	c.baseOps[0xC3] = (*CPUZ80).opJPNN
	c.baseOps[0x18] = (*CPUZ80).opJR
	c.baseOps[0x10] = (*CPUZ80).opDJNZ
	c.baseOps[0xCD] = (*CPUZ80).opCALLNN
	c.baseOps[0xC9] = (*CPUZ80).opRET
	c.baseOps[0xE3] = (*CPUZ80).opEXSPHL
	c.baseOps[0x08] = func(cpu *CPUZ80) { cpu.ExAF() }
	c.baseOps[0xEB] = (*CPUZ80).opEXDEHL
	c.baseOps[0xD9] = func(cpu *CPUZ80) { cpu.Exx() }
	c.baseOps[0xE9] = func(cpu *CPUZ80) { cpu.PC = cpu.indexPair() }

	c.baseOps[0x22] = (*CPUZ80).opLDNNHL
	c.baseOps[0x2A] = (*CPUZ80).opLDHLNN
	c.baseOps[0x32] = (*CPUZ80).opLDNNA
	c.baseOps[0x3A] = (*CPUZ80).opLDANN
	c.baseOps[0x02] = func(cpu *CPUZ80) { cpu.write(cpu.BC(), cpu.A) }
	c.baseOps[0x0A] = func(cpu *CPUZ80) { cpu.A = cpu.read(cpu.BC()) }
	c.baseOps[0x12] = func(cpu *CPUZ80) { cpu.write(cpu.DE(), cpu.A) }
	c.baseOps[0x1A] = func(cpu *CPUZ80) { cpu.A = cpu.read(cpu.DE()) }
	c.baseOps[0xF9] = func(cpu *CPUZ80) { cpu.SP = cpu.indexPair() }

	c.baseOps[0xD3] = (*CPUZ80).opOUTNA
	c.baseOps[0xDB] = (*CPUZ80).opINAN

	c.baseOps[0x07] = (*CPUZ80).opRLCA
	c.baseOps[0x0F] = (*CPUZ80).opRRCA
	c.baseOps[0x17] = (*CPUZ80).opRLA
	c.baseOps[0x1F] = (*CPUZ80).opRRA

	c.baseOps[0xCB] = (*CPUZ80).opCBPrefix
	c.baseOps[0xDD] = (*CPUZ80).opDDPrefix
	c.baseOps[0xFD] = (*CPUZ80).opFDPrefix
	c.baseOps[0xED] = (*CPUZ80).opEDPrefix
	c.baseOps[0xF3] = (*CPUZ80).opDI
	c.baseOps[0xFB] = (*CPUZ80).opEI
}

func (c *CPUZ80) opNOP() {}

func (c *CPUZ80) opHALT() {
	c.Halted = true
}

func (c *CPUZ80) opLDRegReg(dest, src byte) {
	// When one side is the memory slot, the register side is always the
	// plain register file: LD H,(IX+d) loads H, not IXH.
	if dest == 6 {
		c.write(c.memOperandAddr(), c.readReg8Plain(src))
		return
	}
	if src == 6 {
		c.writeReg8Plain(dest, c.read(c.memOperandAddr()))
		return
	}
	c.writeReg8(dest, c.readReg8(src))
}

func (c *CPUZ80) opLDRegImm(dest byte) {
	// For LD (IX+d),n the displacement precedes the immediate; the prefix
	// dispatcher has already fetched it.
	c.writeReg8(dest, c.fetchByte())
}

func (c *CPUZ80) performALU(op aluOp, value byte) {
	switch op {
	case aluAdd:
		c.A = c.add8(c.A, value, 0)
	case aluAdc:
		carry := byte(0)
		if c.Flag(z80FlagC) {
			carry = 1
		}
		c.A = c.add8(c.A, value, carry)
	case aluSub:
		c.A = c.sub8(c.A, value, 0)
	case aluSbc:
		carry := byte(0)
		if c.Flag(z80FlagC) {
			carry = 1
		}
		c.A = c.sub8(c.A, value, carry)
	case aluAnd:
		c.A &= value
		c.logicFlags(c.A, true)
	case aluXor:
		c.A ^= value
		c.logicFlags(c.A, false)
	case aluOr:
		c.A |= value
		c.logicFlags(c.A, false)
	case aluCp:
		// CP keeps A; X/Y come from the operand, not the result.
		c.sub8Flags(c.A, value, 0)
		c.F = (c.F &^ (z80FlagX | z80FlagY)) | (value & (z80FlagX | z80FlagY))
	}
}

func (c *CPUZ80) add8(a, b, carry byte) byte {
	sum := uint16(a) + uint16(b) + uint16(carry)
	res := byte(sum)
	c.F = 0
	if res&0x80 != 0 {
		c.F |= z80FlagS
	}
	if res == 0 {
		c.F |= z80FlagZ
	}
	if halfCarryAdd(a, b, carry) {
		c.F |= z80FlagH
	}
	if overflowAdd(a, b, res) {
		c.F |= z80FlagPV
	}
	if sum > 0xFF {
		c.F |= z80FlagC
	}
	c.F |= res & (z80FlagX | z80FlagY)
	return res
}

func (c *CPUZ80) sub8(a, b, carry byte) byte {
	res := c.sub8Flags(a, b, carry)
	return res
}

func (c *CPUZ80) sub8Flags(a, b, carry byte) byte {
	diff := int(a) - int(b) - int(carry)
	res := byte(diff)
	c.F = z80FlagN
	if res&0x80 != 0 {
		c.F |= z80FlagS
	}
	if res == 0 {
		c.F |= z80FlagZ
	}
	if halfCarrySub(a, b, carry) {
		c.F |= z80FlagH
	}
	if overflowSub(a, b, res) {
		c.F |= z80FlagPV
	}
	if diff < 0 {
		c.F |= z80FlagC
	}
	c.F |= res & (z80FlagX | z80FlagY)
	return res
}

func (c *CPUZ80) logicFlags(res byte, setH bool) {
	c.F = 0
	if res&0x80 != 0 {
		c.F |= z80FlagS
	}
	if res == 0 {
		c.F |= z80FlagZ
	}
	if setH {
		c.F |= z80FlagH
	}
	if parity8(res) {
		c.F |= z80FlagPV
	}
	c.F |= res & (z80FlagX | z80FlagY)
}

func (c *CPUZ80) inc8(value byte) byte {
	res := value + 1
	c.F &= z80FlagC
	if res&0x80 != 0 {
		c.F |= z80FlagS
	}
	if res == 0 {
		c.F |= z80FlagZ
	}
	if value&0x0F == 0x0F {
		c.F |= z80FlagH
	}
	if value == 0x7F {
		c.F |= z80FlagPV
	}
	c.F |= res & (z80FlagX | z80FlagY)
	return res
}

func (c *CPUZ80) dec8(value byte) byte {
	res := value - 1
	c.F = (c.F & z80FlagC) | z80FlagN
	if res&0x80 != 0 {
		c.F |= z80FlagS
	}
	if res == 0 {
		c.F |= z80FlagZ
	}
	if value&0x0F == 0 {
		c.F |= z80FlagH
	}
	if value == 0x80 {
		c.F |= z80FlagPV
	}
	c.F |= res & (z80FlagX | z80FlagY)
	return res
}

func (c *CPUZ80) opDAA() {
	a := c.A
	adj := byte(0)
	carry := c.Flag(z80FlagC)
	if c.Flag(z80FlagH) || (!c.Flag(z80FlagN) && (a&0x0F) > 0x09) {
		adj |= 0x06
	}
	if carry || a > 0x99 {
		adj |= 0x60
	}

	var res byte
	if c.Flag(z80FlagN) {
		res = a - adj
	} else {
		res = a + adj
	}

	c.A = res
	n := c.F & z80FlagN
	c.F = n
	if res&0x80 != 0 {
		c.F |= z80FlagS
	}
	if res == 0 {
		c.F |= z80FlagZ
	}
	if parity8(res) {
		c.F |= z80FlagPV
	}
	if n != 0 {
		if (a^res)&0x10 != 0 {
			c.F |= z80FlagH
		}
	} else if (a&0x0F)+(adj&0x0F) > 0x0F {
		c.F |= z80FlagH
	}
	if carry || adj >= 0x60 {
		c.F |= z80FlagC
	}
	c.F |= res & (z80FlagX | z80FlagY)
}

func (c *CPUZ80) opCPL() {
	c.A = ^c.A
	c.F = (c.F & (z80FlagS | z80FlagZ | z80FlagPV | z80FlagC)) | z80FlagH | z80FlagN
	c.F |= c.A & (z80FlagX | z80FlagY)
}

func (c *CPUZ80) opSCF() {
	c.F = (c.F & (z80FlagS | z80FlagZ | z80FlagPV)) | z80FlagC
	c.F |= c.A & (z80FlagX | z80FlagY)
}

func (c *CPUZ80) opCCF() {
	carry := c.Flag(z80FlagC)
	c.F = c.F & (z80FlagS | z80FlagZ | z80FlagPV)
	if carry {
		c.F |= z80FlagH
	} else {
		c.F |= z80FlagC
	}
	c.F |= c.A & (z80FlagX | z80FlagY)
}

// addPair implements ADD HL,rp and its IX/IY forms: S/Z/PV preserved, H from
// bit 12, C from bit 16, X/Y from the high result byte.
func (c *CPUZ80) addPair(value uint16) {
	pair := c.indexPair()
	sum := uint32(pair) + uint32(value)
	c.F &^= z80FlagH | z80FlagN | z80FlagC | z80FlagX | z80FlagY
	if ((pair&0x0FFF)+(value&0x0FFF))&0x1000 != 0 {
		c.F |= z80FlagH
	}
	if sum > 0xFFFF {
		c.F |= z80FlagC
	}
	res := uint16(sum)
	c.setIndexPair(res)
	c.F |= byte((res >> 8) & (z80FlagX | z80FlagY))
	c.WZ = pair + 1
}

func (c *CPUZ80) opJPNN() {
	c.PC = c.fetchWord()
	c.WZ = c.PC
}

func (c *CPUZ80) jpCond(taken bool) {
	addr := c.fetchWord()
	c.WZ = addr
	if taken {
		c.PC = addr
	}
}

func (c *CPUZ80) opJR() {
	disp := int8(c.fetchByte())
	c.PC = uint16(int32(c.PC) + int32(disp))
	c.WZ = c.PC
}

func (c *CPUZ80) jrCond(taken bool) {
	disp := int8(c.fetchByte())
	if taken {
		c.PC = uint16(int32(c.PC) + int32(disp))
		c.WZ = c.PC
		c.decodeExtra = 5
	}
}

func (c *CPUZ80) opDJNZ() {
	disp := int8(c.fetchByte())
	c.B--
	if c.B != 0 {
		c.PC = uint16(int32(c.PC) + int32(disp))
		c.WZ = c.PC
		c.decodeExtra = 5
	}
}

func (c *CPUZ80) opCALLNN() {
	addr := c.fetchWord()
	c.pushWord(c.PC)
	c.PC = addr
	c.WZ = addr
}

func (c *CPUZ80) callCond(taken bool) {
	addr := c.fetchWord()
	c.WZ = addr
	if taken {
		c.pushWord(c.PC)
		c.PC = addr
		c.decodeExtra = 7
	}
}

func (c *CPUZ80) opRET() {
	c.PC = c.popWord()
	c.WZ = c.PC
}

func (c *CPUZ80) retCond(taken bool) {
	if taken {
		c.PC = c.popWord()
		c.WZ = c.PC
		c.decodeExtra = 6
	}
}

func (c *CPUZ80) opRST(vector uint16) {
	c.pushWord(c.PC)
	c.PC = vector
	c.WZ = vector
}

func (c *CPUZ80) opEXSPHL() {
	low := c.read(c.SP)
	high := c.read(c.SP + 1)
	memVal := uint16(high)<<8 | uint16(low)
	pair := c.indexPair()
	c.write(c.SP+1, byte(pair>>8))
	c.write(c.SP, byte(pair))
	c.setIndexPair(memVal)
	c.WZ = memVal
}

func (c *CPUZ80) opEXDEHL() {
	c.D, c.H = c.H, c.D
	c.E, c.L = c.L, c.E
}

func (c *CPUZ80) opLDNNHL() {
	addr := c.fetchWord()
	pair := c.indexPair()
	c.write(addr, byte(pair))
	c.write(addr+1, byte(pair>>8))
	c.WZ = addr + 1
}

func (c *CPUZ80) opLDHLNN() {
	addr := c.fetchWord()
	low := c.read(addr)
	high := c.read(addr + 1)
	c.setIndexPair(uint16(high)<<8 | uint16(low))
	c.WZ = addr + 1
}

func (c *CPUZ80) opLDNNA() {
	addr := c.fetchWord()
	c.write(addr, c.A)
	c.WZ = (uint16(c.A) << 8) | ((addr + 1) & 0xFF)
}

func (c *CPUZ80) opLDANN() {
	addr := c.fetchWord()
	c.A = c.read(addr)
	c.WZ = addr + 1
}

func (c *CPUZ80) opOUTNA() {
	port := uint16(c.A)<<8 | uint16(c.fetchByte())
	c.out(port, c.A)
}

func (c *CPUZ80) opINAN() {
	port := uint16(c.A)<<8 | uint16(c.fetchByte())
	c.A = c.in(port)
}

func (c *CPUZ80) opRLCA() {
	carry := c.A&0x80 != 0
	c.A = c.A<<1 | c.A>>7
	c.rotateAFlags(carry)
}

func (c *CPUZ80) opRRCA() {
	carry := c.A&0x01 != 0
	c.A = c.A>>1 | c.A<<7
	c.rotateAFlags(carry)
}

func (c *CPUZ80) opRLA() {
	carryIn := c.Flag(z80FlagC)
	carryOut := c.A&0x80 != 0
	c.A <<= 1
	if carryIn {
		c.A |= 0x01
	}
	c.rotateAFlags(carryOut)
}

func (c *CPUZ80) opRRA() {
	carryIn := c.Flag(z80FlagC)
	carryOut := c.A&0x01 != 0
	c.A >>= 1
	if carryIn {
		c.A |= 0x80
	}
	c.rotateAFlags(carryOut)
}

func (c *CPUZ80) rotateAFlags(carry bool) {
	f := c.F & (z80FlagS | z80FlagZ | z80FlagPV)
	if carry {
		f |= z80FlagC
	}
	f |= c.A & (z80FlagX | z80FlagY)
	c.F = f
}

func (c *CPUZ80) opDI() {
	c.IFF1 = false
	c.IFF2 = false
}

func (c *CPUZ80) opEI() {
	c.IFF1 = true
	c.IFF2 = true
	c.deferInt = true
}

// Prefix dispatch. DD/FD re-enter the base table with the index mode active;
// the displacement byte is fetched up front for opcodes with a memory slot.

func (c *CPUZ80) opCBPrefix() {
	opcode := c.fetchOpcode()
	c.decodeSpace = spaceCB
	c.decodeOpcode = opcode
	c.execCB(opcode)
}

func (c *CPUZ80) opDDPrefix() {
	c.dispatchIndexPrefix(z80PrefixDD, spaceDD, spaceDDCB)
}

func (c *CPUZ80) opFDPrefix() {
	c.dispatchIndexPrefix(z80PrefixFD, spaceFD, spaceFDCB)
}

func (c *CPUZ80) dispatchIndexPrefix(mode byte, space, cbSpace opSpace) {
	prevMode := c.prefixMode
	prevDisp := c.haveDisp
	c.prefixMode = mode

	if c.peekByte() == 0xCB {
		// DDCB/FDCB: displacement first, then the CB opcode.
		c.fetchOpcode() // the CB byte
		c.indexDisp = int8(c.fetchByte())
		c.haveDisp = true
		opcode := c.fetchByte()
		c.decodeSpace = cbSpace
		c.decodeOpcode = opcode
		c.execIndexedCB(opcode)
	} else {
		opcode := c.fetchOpcode()
		c.decodeSpace = space
		c.decodeOpcode = opcode
		if indexOpNeedsDisp(opcode) {
			c.indexDisp = int8(c.fetchByte())
			c.haveDisp = true
		} else {
			c.haveDisp = false
		}
		c.baseOps[opcode](c)
	}

	c.prefixMode = prevMode
	c.haveDisp = prevDisp
}

// peekByte looks at the next opcode byte without consuming it; used to spot
// the CB byte after DD/FD, which reorders displacement fetch.
func (c *CPUZ80) peekByte() byte {
	return c.bus.Read8(c.PC)
}

// indexOpNeedsDisp reports whether an opcode in the DD/FD space carries a
// displacement byte, i.e. addresses the (HL) operand slot.
func indexOpNeedsDisp(opcode byte) bool {
	switch {
	case opcode == 0x34 || opcode == 0x35 || opcode == 0x36:
		return true
	case opcode == 0x76:
		return false
	case opcode >= 0x40 && opcode <= 0x7F:
		return (opcode>>3)&0x07 == 6 || opcode&0x07 == 6
	case opcode >= 0x80 && opcode <= 0xBF:
		return opcode&0x07 == 6
	}
	return false
}

func (c *CPUZ80) opEDPrefix() {
	prevMode := c.prefixMode
	c.prefixMode = z80PrefixNone
	opcode := c.fetchOpcode()
	c.decodeSpace = spaceED
	c.decodeOpcode = opcode
	c.edOps[opcode](c)
	c.prefixMode = prevMode
}
