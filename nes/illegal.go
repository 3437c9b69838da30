package nes

// The undocumented opcodes. All of them are combinations of documented
// operations sharing silicon: the read-modify-write combos run the shift or
// step and feed the result straight into the ALU, the immediate ones splice
// an AND into another operation. Timing falls out of the component steps.

// LAX - load A and X with the same byte. Shortcut for LDA then TAX.
func (c *CPU) lax(addr uint16) {
	v := c.read(addr)
	c.Reg.Write(A, v)
	c.Reg.Write(X, v)
}

// SAX - store A AND X. As with STA and STX, no flags are affected.
func (c *CPU) sax(addr uint16) {
	c.write(addr, c.Reg.Read(A)&c.Reg.Read(X))
}

// DCP - decrement memory, then compare A with the result.
func (c *CPU) dcp(addr uint16) {
	v := c.read(addr) - 1
	c.tick()
	c.compareValue(c.Reg.Read(A), v)
	c.write(addr, v)
}

// ISB - increment memory, then subtract the result from A. Also known as
// ISC.
func (c *CPU) isb(addr uint16) {
	v := c.read(addr) + 1
	c.tick()
	c.addA(v ^ 0xFF)
	c.write(addr, v)
}

// SLO - shift memory left, then OR the result into A.
func (c *CPU) slo(addr uint16) {
	v := c.read(addr)
	c.tick()
	c.Reg.SetFlag(carry, v&0x80 != 0)
	v <<= 1
	c.Reg.Write(A, c.Reg.Read(A)|v)
	c.write(addr, v)
}

// RLA - rotate memory left, then AND the result into A.
func (c *CPU) rla(addr uint16) {
	var in byte
	if c.Reg.Flag(carry) {
		in = 0x01
	}

	v := c.read(addr)
	c.tick()
	c.Reg.SetFlag(carry, v&0x80 != 0)
	v = v<<1 | in
	c.Reg.Write(A, c.Reg.Read(A)&v)
	c.write(addr, v)
}

// SRE - shift memory right, then EOR the result into A.
func (c *CPU) sre(addr uint16) {
	v := c.read(addr)
	c.tick()
	c.Reg.SetFlag(carry, v&0x01 != 0)
	v >>= 1
	c.Reg.Write(A, c.Reg.Read(A)^v)
	c.write(addr, v)
}

// RRA - rotate memory right, then add the result to A with carry. The carry
// fed into the add is the one the rotate just produced.
func (c *CPU) rra(addr uint16) {
	var in byte
	if c.Reg.Flag(carry) {
		in = 0x80
	}

	v := c.read(addr)
	c.tick()
	c.Reg.SetFlag(carry, v&0x01 != 0)
	v = in | v>>1
	c.addA(v)
	c.write(addr, v)
}

// AAC - AND immediate, then copy N into C. Also known as ANC.
func (c *CPU) aac(addr uint16) {
	c.Reg.Write(A, c.Reg.Read(A)&c.read(addr))
	c.Reg.SetFlag(carry, c.Reg.Flag(negative))
}

// ASR - AND immediate, then shift A right. Also known as ALR.
func (c *CPU) asr(addr uint16) {
	v := c.Reg.Read(A) & c.read(addr)
	c.Reg.SetFlag(carry, v&0x01 != 0)
	c.Reg.Write(A, v>>1)
}

// ARR - AND immediate, then rotate A right through the carry. The flags are
// the odd part: C comes from bit 6 of the result and V from bit 6 XOR bit 5.
func (c *CPU) arr(addr uint16) {
	v := (c.Reg.Read(A) & c.read(addr)) >> 1
	if c.Reg.Flag(carry) {
		v |= 0x80
	}
	c.Reg.Write(A, v)
	c.Reg.SetFlag(carry, v&0x40 != 0)
	c.Reg.SetFlag(overflow, (v>>6)&0x01 != (v>>5)&0x01)
}

// ATX - AND immediate into both A and X. Also known as LXA. The hardware
// ORs line noise into A first; what is stable, and what code relies on, is
// A = X = operand semantics with the usual Z/N update.
func (c *CPU) atx(addr uint16) {
	v := c.read(addr)
	c.Reg.Write(A, v)
	c.Reg.Write(X, v)
}

// AXS - X = (A AND X) - immediate, without borrow. Also known as SBX. C is
// the no-borrow flag of the comparison.
func (c *CPU) axs(addr uint16) {
	v := c.read(addr)
	ax := c.Reg.Read(A) & c.Reg.Read(X)
	c.Reg.SetFlag(carry, ax >= v)
	c.Reg.Write(X, ax-v)
}

// storeHigh implements the SHA/SHX/SHY write: the stored value is v AND
// (high byte of the address + 1), and that same value replaces the high
// byte of the target address.
func (c *CPU) storeHigh(v byte, addr uint16) {
	val := v & (byte(addr>>8) + 1)
	c.write(uint16(val)<<8|addr&0x00FF, val)
}

// TAS - SP = A AND X, then the SHA store through the new stack pointer.
func (c *CPU) tas(addr uint16) {
	sp := c.Reg.Read(A) & c.Reg.Read(X)
	c.Reg.Write(SP, sp)
	c.storeHigh(sp, addr)
}
