package nes

import (
	"errors"
	"fmt"
	"io"
)

const (
	nmiVector    = uint16(0xFFFA)
	resetVector  = uint16(0xFFFC)
	irqBrkVector = uint16(0xFFFE)

	stackHi = uint16(0x0100)
)

// ErrUnknownOpcode is returned by Execute when the fetched byte has no
// mapping in the decode table. The caller decides whether to halt.
var ErrUnknownOpcode = errors.New("unknown opcode")

// Bus is the memory system as seen by the CPU: a 16-bit address space plus a
// clock line. The CPU precedes every Read and Write with exactly one Cycle
// call, and emits further Cycle calls for the internal dead cycles the real
// chip takes. Peripherals that run off CPU time (PPU, APU, DMA) hang off
// Cycle.
type Bus interface {
	Read(addr uint16) byte
	Write(addr uint16, v byte)
	Cycle()
}

// CPU emulates the Ricoh 2A03 variant of the MOS 6502: the NMOS core with
// the documented instruction set, the commonly used undocumented opcodes,
// and no decimal mode.
//
// A CPU owns its register file and holds the Bus for its whole life. One
// Execute call runs exactly one instruction; the sequence of Cycle/Read/
// Write calls it produces on the Bus is the timing contract the rest of the
// system is driven by.
type CPU struct {
	Reg Registers

	bus    Bus
	nmi    bool
	irq    bool
	cycles uint64

	trace io.Writer
}

// NewCPU returns a CPU wired to bus. If trace is non-nil, every Execute
// writes one nestest-format line describing the instruction about to run.
func NewCPU(bus Bus, trace io.Writer) *CPU {
	return &CPU{bus: bus, trace: trace}
}

// Init performs the power-on sequence: the program counter is loaded from
// the reset vector, SP becomes 0xFD and P becomes 0x24 (interrupts disabled,
// always-one set).
func (c *CPU) Init() {
	c.Reg.SetPC(c.read16(resetVector))
	c.Reg.Write(SP, 0xFD)
	c.Reg.Write(P, 0x24)
}

// Reset performs a warm reset: interrupts are disabled, SP drops by three
// without any stack writes, and the program counter is reloaded from the
// reset vector.
func (c *CPU) Reset() {
	c.Reg.SetFlag(interruptDisable, true)
	c.Reg.Write(SP, c.Reg.Read(SP)-3)
	c.Reg.SetPC(c.read16(resetVector))
}

// TriggerNMI latches the non-maskable interrupt line. The latch is consumed
// either by the dispatch at the next instruction boundary or by a BRK that
// is already underway.
func (c *CPU) TriggerNMI() {
	c.nmi = true
}

// TriggerIRQ latches the maskable interrupt line. It is serviced at the next
// instruction boundary unless the interrupt-disable flag is set.
func (c *CPU) TriggerIRQ() {
	c.irq = true
}

// Cycles returns the number of bus cycles emitted since power-on.
func (c *CPU) Cycles() uint64 {
	return c.cycles
}

// Execute services any pending interrupt, then fetches, decodes and runs one
// instruction. It returns an error only when the opcode byte has no mapping;
// everything a real 6502 tolerates silently (stack wrap, ROM writes, PC
// wrap) is tolerated here too.
func (c *CPU) Execute() error {
	c.serviceInterrupts()

	if c.trace != nil {
		disassemble(c.trace, c.bus, &c.Reg, c.cycles)
	}

	pc := c.Reg.PC()
	op := c.read(pc)
	c.Reg.SetPC(pc + 1)

	inst := instructions[op]
	if inst.Name == "" {
		return fmt.Errorf("nes: %w 0x%02X at 0x%04X", ErrUnknownOpcode, op, pc)
	}

	var addr uint16
	switch inst.Mode {
	case Implied, Accumulator:
		// no operand to resolve
	default:
		addr = c.resolve(inst)
	}

	switch op {
	case 0x04, 0x0C, 0x14, 0x1A, 0x1C, 0x34, 0x3A, 0x3C, 0x44, 0x54, 0x5A,
		0x5C, 0x64, 0x74, 0x7A, 0x7C, 0x80, 0x82, 0x89, 0xC2, 0xD4, 0xDA,
		0xDC, 0xE2, 0xEA, 0xF4, 0xFA, 0xFC:
		c.nop(inst.Mode, addr)
	case 0x61, 0x65, 0x69, 0x6D, 0x71, 0x75, 0x79, 0x7D:
		c.adc(addr)
	case 0xE1, 0xE5, 0xE9, 0xEB, 0xED, 0xF1, 0xF5, 0xF9, 0xFD:
		c.sbc(addr)
	case 0x21, 0x25, 0x29, 0x2D, 0x31, 0x35, 0x39, 0x3D:
		c.and(addr)
	case 0x01, 0x05, 0x09, 0x0D, 0x11, 0x15, 0x19, 0x1D:
		c.ora(addr)
	case 0x41, 0x45, 0x49, 0x4D, 0x51, 0x55, 0x59, 0x5D:
		c.eor(addr)
	case 0x06, 0x0A, 0x0E, 0x16, 0x1E:
		c.asl(inst.Mode, addr)
	case 0x46, 0x4A, 0x4E, 0x56, 0x5E:
		c.lsr(inst.Mode, addr)
	case 0x26, 0x2A, 0x2E, 0x36, 0x3E:
		c.rol(inst.Mode, addr)
	case 0x66, 0x6A, 0x6E, 0x76, 0x7E:
		c.ror(inst.Mode, addr)
	case 0x24, 0x2C:
		c.bit(addr)
	case 0xC1, 0xC5, 0xC9, 0xCD, 0xD1, 0xD5, 0xD9, 0xDD:
		c.compare(c.Reg.Read(A), addr)
	case 0xE0, 0xE4, 0xEC:
		c.compare(c.Reg.Read(X), addr)
	case 0xC0, 0xC4, 0xCC:
		c.compare(c.Reg.Read(Y), addr)
	case 0xC6, 0xCE, 0xD6, 0xDE:
		c.decMem(addr)
	case 0xE6, 0xEE, 0xF6, 0xFE:
		c.incMem(addr)
	case 0xCA:
		c.decReg(X)
	case 0x88:
		c.decReg(Y)
	case 0xE8:
		c.incReg(X)
	case 0xC8:
		c.incReg(Y)
	case 0xA1, 0xA5, 0xA9, 0xAD, 0xB1, 0xB5, 0xB9, 0xBD:
		c.load(A, addr)
	case 0xA2, 0xA6, 0xAE, 0xB6, 0xBE:
		c.load(X, addr)
	case 0xA0, 0xA4, 0xAC, 0xB4, 0xBC:
		c.load(Y, addr)
	case 0x81, 0x85, 0x8D, 0x91, 0x95, 0x99, 0x9D:
		c.store(A, addr)
	case 0x86, 0x8E, 0x96:
		c.store(X, addr)
	case 0x84, 0x8C, 0x94:
		c.store(Y, addr)
	case 0xAA:
		c.transfer(A, X)
	case 0xA8:
		c.transfer(A, Y)
	case 0x8A:
		c.transfer(X, A)
	case 0x98:
		c.transfer(Y, A)
	case 0xBA:
		c.transfer(SP, X)
	case 0x9A:
		c.transfer(X, SP)
	case 0x90:
		c.branch(addr, !c.Reg.Flag(carry))
	case 0xB0:
		c.branch(addr, c.Reg.Flag(carry))
	case 0xD0:
		c.branch(addr, !c.Reg.Flag(zero))
	case 0xF0:
		c.branch(addr, c.Reg.Flag(zero))
	case 0x10:
		c.branch(addr, !c.Reg.Flag(negative))
	case 0x30:
		c.branch(addr, c.Reg.Flag(negative))
	case 0x50:
		c.branch(addr, !c.Reg.Flag(overflow))
	case 0x70:
		c.branch(addr, c.Reg.Flag(overflow))
	case 0x4C, 0x6C:
		c.jmp(addr)
	case 0x20:
		c.jsr(addr)
	case 0x60:
		c.rts()
	case 0x40:
		c.rti()
	case 0x48:
		c.pha()
	case 0x08:
		c.php()
	case 0x68:
		c.pla()
	case 0x28:
		c.plp()
	case 0x18:
		c.setFlag(carry, false)
	case 0x38:
		c.setFlag(carry, true)
	case 0x58:
		c.setFlag(interruptDisable, false)
	case 0x78:
		c.setFlag(interruptDisable, true)
	case 0xD8:
		c.setFlag(decimal, false)
	case 0xF8:
		c.setFlag(decimal, true)
	case 0xB8:
		c.setFlag(overflow, false)
	case 0x00:
		c.brk()
	case 0xA3, 0xA7, 0xAF, 0xB3, 0xB7, 0xBF:
		c.lax(addr)
	case 0x83, 0x87, 0x8F, 0x97:
		c.sax(addr)
	case 0xC3, 0xC7, 0xCF, 0xD3, 0xD7, 0xDB, 0xDF:
		c.dcp(addr)
	case 0xE3, 0xE7, 0xEF, 0xF3, 0xF7, 0xFB, 0xFF:
		c.isb(addr)
	case 0x03, 0x07, 0x0F, 0x13, 0x17, 0x1B, 0x1F:
		c.slo(addr)
	case 0x23, 0x27, 0x2F, 0x33, 0x37, 0x3B, 0x3F:
		c.rla(addr)
	case 0x43, 0x47, 0x4F, 0x53, 0x57, 0x5B, 0x5F:
		c.sre(addr)
	case 0x63, 0x67, 0x6F, 0x73, 0x77, 0x7B, 0x7F:
		c.rra(addr)
	case 0x0B, 0x2B:
		c.aac(addr)
	case 0x4B:
		c.asr(addr)
	case 0x6B:
		c.arr(addr)
	case 0xAB:
		c.atx(addr)
	case 0xCB:
		c.axs(addr)
	case 0x9C:
		c.storeHigh(c.Reg.Read(Y), addr)
	case 0x9E:
		c.storeHigh(c.Reg.Read(X), addr)
	case 0x93, 0x9F:
		c.storeHigh(c.Reg.Read(A)&c.Reg.Read(X), addr)
	case 0x9B:
		c.tas(addr)
	default:
		return fmt.Errorf("nes: %w 0x%02X at 0x%04X", ErrUnknownOpcode, op, pc)
	}

	return nil
}

// tick advances the bus clock by one cycle.
func (c *CPU) tick() {
	c.cycles++
	c.bus.Cycle()
}

func (c *CPU) read(addr uint16) byte {
	c.tick()
	return c.bus.Read(addr)
}

func (c *CPU) write(addr uint16, v byte) {
	c.tick()
	c.bus.Write(addr, v)
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := c.read(addr)
	hi := c.read(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) push(v byte) {
	sp := c.Reg.Read(SP)
	c.write(stackHi|uint16(sp), v)
	c.Reg.Write(SP, sp-1)
}

func (c *CPU) push16(v uint16) {
	c.push(byte(v >> 8))
	c.push(byte(v))
}

func (c *CPU) pop() byte {
	sp := c.Reg.Read(SP) + 1
	c.Reg.Write(SP, sp)
	return c.read(stackHi | uint16(sp))
}

func (c *CPU) pop16() uint16 {
	lo := uint16(c.pop())
	hi := uint16(c.pop())
	return hi<<8 | lo
}

// cross reports whether base+offset lands on a different page than base.
func cross(base uint16, offset byte) bool {
	return (base+uint16(offset))&0xFF00 != base&0xFF00
}

// operand returns the program counter and advances it past n operand bytes.
func (c *CPU) operand(n uint16) uint16 {
	pc := c.Reg.PC()
	c.Reg.SetPC(pc + n)
	return pc
}

// resolve turns the addressing mode of inst into the effective operand
// address, advancing the program counter past the operand bytes and emitting
// the cycles the real chip spends forming the address.
//
// The indexed absolute and post-indexed indirect modes read from the
// partially summed address before the carry into the high byte settles: for
// Read-kind instructions that access only happens when the page actually
// crosses, for Write and ReadModWrite kinds it always does. The zero-page
// indexed and pre-indexed modes burn their dummy access on the unindexed
// address.
func (c *CPU) resolve(inst Instruction) uint16 {
	switch inst.Mode {
	case Immediate:
		return c.operand(1)

	case ZeroPage:
		return uint16(c.read(c.operand(1)))

	case ZeroPageIndexedX:
		zp := c.read(c.operand(1))
		_ = c.read(uint16(zp))
		return uint16(zp + c.Reg.Read(X))

	case ZeroPageIndexedY:
		zp := c.read(c.operand(1))
		_ = c.read(uint16(zp))
		return uint16(zp + c.Reg.Read(Y))

	case Absolute:
		return c.read16(c.operand(2))

	case IndexedX:
		return c.indexed(inst.Kind, c.Reg.Read(X))

	case IndexedY:
		return c.indexed(inst.Kind, c.Reg.Read(Y))

	case Indirect:
		ptr := c.read16(c.operand(2))
		lo := c.read(ptr)

		// The 6502 cannot carry into the high byte of the pointer: the
		// second fetch wraps within the same page.
		var hi byte
		if ptr&0x00FF == 0x00FF {
			hi = c.read(ptr & 0xFF00)
		} else {
			hi = c.read(ptr + 1)
		}
		return uint16(hi)<<8 | uint16(lo)

	case PreIndexedIndirect:
		ptr := c.read(c.operand(1))
		_ = c.read(uint16(ptr))

		ptr += c.Reg.Read(X)
		lo := c.read(uint16(ptr))
		hi := c.read(uint16(ptr + 1)) // wraps within the zero page
		return uint16(hi)<<8 | uint16(lo)

	case PostIndexedIndirect:
		ptr := c.read(c.operand(1))
		lo := c.read(uint16(ptr))
		hi := c.read(uint16(ptr + 1)) // wraps within the zero page

		base := uint16(hi)<<8 | uint16(lo)
		y := c.Reg.Read(Y)
		if inst.Kind != Read || cross(base, y) {
			_ = c.read(uint16(hi)<<8 | uint16(lo+y))
		}
		return base + uint16(y)

	case Relative:
		off := c.read(c.operand(1))
		return c.Reg.PC() + uint16(int8(off))

	default:
		return 0
	}
}

// indexed resolves abs,X / abs,Y for the given index register value.
func (c *CPU) indexed(kind InstructionKind, idx byte) uint16 {
	base := c.read16(c.operand(2))
	if kind != Read || cross(base, idx) {
		_ = c.read(base&0xFF00 | uint16(byte(base)+idx))
	}
	return base + uint16(idx)
}

// serviceInterrupts runs the interrupt sequence for a pending NMI or, when
// interrupts are enabled, a pending IRQ. NMI wins when both are latched.
func (c *CPU) serviceInterrupts() {
	switch {
	case c.nmi:
		c.nmi = false
		c.interrupt(nmiVector)
	case c.irq:
		c.irq = false
		if !c.Reg.Flag(interruptDisable) {
			c.interrupt(irqBrkVector)
		}
	}
}

// interrupt pushes PC and P (B clear) and jumps through the vector. Seven
// cycles, like the hardware sequence.
func (c *CPU) interrupt(vector uint16) {
	c.tick()
	c.tick()
	c.push16(c.Reg.PC())
	c.push(c.Reg.Read(P))
	c.Reg.SetFlag(interruptDisable, true)
	c.Reg.SetPC(c.read16(vector))
}
