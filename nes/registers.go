package nes

// status are all the flags that represent the processor status.
type status byte

const (
	// Carry flag.
	//
	// After ADC, this is the carry result of the addition.
	// After SBC or CMP, this flag will be set if no borrow was the result, or
	// alternatively a "greater than or equal" result.
	// After a shift instruction (ASL, LSR, ROL, ROR), this contains the bit
	// that was shifted out.
	carry status = 1 << iota

	// Zero flag is set when the result of an instruction is zero.
	zero

	// InterruptDisable flag.
	//
	// When set, all interrupts except the NMI are inhibited.
	// Automatically set by the cpu when an IRQ is triggered, and restored
	// to its previous state by RTI.
	interruptDisable

	// Decimal flag. On the NES, this flag has no effect.
	decimal

	// Break flag.
	//
	// Not a real register bit. In the byte pushed to the stack, Break is 1
	// if the push came from an instruction (PHP or BRK) or 0 if it came
	// from an interrupt line (/IRQ or /NMI). PLP and RTI ignore it.
	brk

	// Unused flag. Reads back as 1.
	unused

	// Overflow flag.
	//
	// ADC and SBC will set this flag if the signed result would be invalid.
	// BIT loads bit 6 of the addressed value directly into it. The compares
	// leave it alone.
	overflow

	// Negative flag.
	//
	// After most instructions that have a value result, this flag will
	// contain bit 7 of that result. BIT loads bit 7 of the addressed value
	// directly into it.
	negative
)

// Register selects one of the byte-wide CPU registers.
type Register int

const (
	A Register = iota
	X
	Y
	P
	SP
)

// Registers is the 6502 register file: the accumulator, the X and Y index
// registers, the stack pointer, the status byte and the program counter.
//
// All access goes through Read/Write so that the flag side effects of the
// hardware are impossible to forget: storing to A, X or Y recomputes Z and N,
// and storing to P forces the always-one bit and drops the phantom B bit.
type Registers struct {
	a, x, y byte
	sp      byte
	p       status
	pc      uint16
}

// Read returns the current value of reg.
func (r *Registers) Read(reg Register) byte {
	switch reg {
	case A:
		return r.a
	case X:
		return r.x
	case Y:
		return r.y
	case P:
		return byte(r.p)
	default:
		return r.sp
	}
}

// Write stores v into reg.
//
// A, X and Y update the zero and negative flags from v. P is masked with
// (v & 0xCF) | 0x20: the B bit only exists on the stack, and the unused bit
// always reads as 1. SP is stored raw, which is why TXS affects no flags.
func (r *Registers) Write(reg Register, v byte) {
	switch reg {
	case A:
		r.UpdateZN(v)
		r.a = v
	case X:
		r.UpdateZN(v)
		r.x = v
	case Y:
		r.UpdateZN(v)
		r.y = v
	case P:
		r.p = status(v&0xCF | 0x20)
	default:
		r.sp = v
	}
}

// PC returns the program counter.
func (r *Registers) PC() uint16 {
	return r.pc
}

// SetPC stores v into the program counter.
func (r *Registers) SetPC(v uint16) {
	r.pc = v
}

// Flag reports whether f is set.
func (r *Registers) Flag(f status) bool {
	return r.p&f != 0
}

// SetFlag sets or clears f.
func (r *Registers) SetFlag(f status, on bool) {
	if on {
		r.p |= f
	} else {
		r.p &^= f
	}
}

// UpdateZN derives the zero and negative flags from v.
func (r *Registers) UpdateZN(v byte) {
	r.SetFlag(zero, v == 0)
	r.SetFlag(negative, v&0x80 != 0)
}

// UpdateCV derives the carry and overflow flags from the 16-bit sum of a and
// b. Carry is the ninth bit of the sum; overflow is set when a and b agree in
// sign but the result does not.
//
// The same rule serves ADC and SBC: subtraction is addition of the one's
// complement, so SBC passes b ^ 0xFF.
func (r *Registers) UpdateCV(a, b byte, sum uint16) {
	r.SetFlag(carry, sum > 0xFF)
	r.SetFlag(overflow, uint16(^(a^b))&(uint16(a)^sum)&0x80 != 0)
}
