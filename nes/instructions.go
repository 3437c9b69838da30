package nes

// AddressingMode tells the CPU where the operand of an instruction lives.
type AddressingMode byte

const (
	// Immediate addressing is used when the operand's 1-byte value is given
	// in the instruction itself.
	Immediate AddressingMode = iota

	// ZeroPage addressing requires a 1-byte address and can only access the
	// zero page ($0000-$00FF).
	ZeroPage

	// Absolute addressing requires a full 2-byte little-endian address and
	// can access the full range ($0000-$FFFF).
	Absolute

	// Relative addressing is used by the branch instructions.
	//
	// A 1-byte signed operand is added to the program counter, and the
	// program continues execution from the new address.
	Relative

	// Implied addressing occurs when there is no operand. The addressing
	// mode is implied by the instruction.
	Implied

	// Accumulator addressing is a special type of Implied addressing that
	// only addresses the accumulator.
	Accumulator

	// IndexedX addressing works like Absolute but uses the X register as an
	// offset.
	//
	// Read instructions take an extra cycle when the sum wraps into the
	// next page; write and read-modify-write instructions always take it.
	IndexedX

	// IndexedY addressing works like Absolute but uses the Y register as an
	// offset. Same extra-cycle rule as IndexedX.
	IndexedY

	// ZeroPageIndexedX addressing works like ZeroPage but uses the X
	// register as an offset. The sum wraps within the zero page.
	ZeroPageIndexedX

	// ZeroPageIndexedY addressing works like ZeroPage but uses the Y
	// register as an offset. The sum wraps within the zero page.
	ZeroPageIndexedY

	// Indirect addressing reads a memory location from a 2-byte pointer.
	// Only JMP uses it. When the pointer sits at $xxFF the high byte is
	// fetched from $xx00, not from the next page.
	Indirect

	// PreIndexedIndirect accepts a zero-page address, adds X (wrapping
	// within the zero page) and reads a 2-byte pointer from there.
	PreIndexedIndirect

	// PostIndexedIndirect reads a 2-byte pointer from a zero-page address
	// and adds Y to it afterwards.
	PostIndexedIndirect
)

// InstructionKind classifies what an instruction does with its resolved
// address. The distinction drives the extra-cycle behavior of the indexed
// addressing modes: reads only pay for a page cross, writes and
// read-modify-writes always burn the dummy access.
type InstructionKind byte

const (
	_ InstructionKind = iota
	Read
	Write
	ReadModWrite
)

// Instruction describes one opcode: its mnemonic, addressing mode, kind,
// encoded size and the cycle counts of the canonical 6502 timing table.
// Cycles is the base count; PageCycles is the penalty a Read-kind
// instruction pays when its operand crosses a page.
type Instruction struct {
	OpCode     byte
	Name       string
	Mode       AddressingMode
	Kind       InstructionKind
	Size       byte
	Cycles     byte
	PageCycles byte
	Illegal    bool
}

// Decode returns the Instruction for op. Unmapped opcodes decode to a zero
// Instruction with an empty Name.
func Decode(op byte) Instruction {
	return instructions[op]
}

// instructions is the full decode table. The twelve KIL bytes plus XAA and
// LAS are left unmapped; executing them fails the step.
var instructions = [256]Instruction{
	0x00: {OpCode: 0x00, Name: "BRK", Size: 2, Cycles: 7, Mode: Implied},
	0x01: {OpCode: 0x01, Name: "ORA", Size: 2, Cycles: 6, Mode: PreIndexedIndirect, Kind: Read},
	0x03: {OpCode: 0x03, Name: "SLO", Size: 2, Cycles: 8, Mode: PreIndexedIndirect, Kind: ReadModWrite, Illegal: true},
	0x04: {OpCode: 0x04, Name: "NOP", Size: 2, Cycles: 3, Mode: ZeroPage, Kind: Read, Illegal: true},
	0x05: {OpCode: 0x05, Name: "ORA", Size: 2, Cycles: 3, Mode: ZeroPage, Kind: Read},
	0x06: {OpCode: 0x06, Name: "ASL", Size: 2, Cycles: 5, Mode: ZeroPage, Kind: ReadModWrite},
	0x07: {OpCode: 0x07, Name: "SLO", Size: 2, Cycles: 5, Mode: ZeroPage, Kind: ReadModWrite, Illegal: true},
	0x08: {OpCode: 0x08, Name: "PHP", Size: 1, Cycles: 3, Mode: Implied},
	0x09: {OpCode: 0x09, Name: "ORA", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read},
	0x0A: {OpCode: 0x0A, Name: "ASL", Size: 1, Cycles: 2, Mode: Accumulator, Kind: ReadModWrite},
	0x0B: {OpCode: 0x0B, Name: "AAC", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read, Illegal: true},
	0x0C: {OpCode: 0x0C, Name: "NOP", Size: 3, Cycles: 4, Mode: Absolute, Kind: Read, Illegal: true},
	0x0D: {OpCode: 0x0D, Name: "ORA", Size: 3, Cycles: 4, Mode: Absolute, Kind: Read},
	0x0E: {OpCode: 0x0E, Name: "ASL", Size: 3, Cycles: 6, Mode: Absolute, Kind: ReadModWrite},
	0x0F: {OpCode: 0x0F, Name: "SLO", Size: 3, Cycles: 6, Mode: Absolute, Kind: ReadModWrite, Illegal: true},
	0x10: {OpCode: 0x10, Name: "BPL", Size: 2, Cycles: 2, PageCycles: 1, Mode: Relative},
	0x11: {OpCode: 0x11, Name: "ORA", Size: 2, Cycles: 5, PageCycles: 1, Mode: PostIndexedIndirect, Kind: Read},
	0x13: {OpCode: 0x13, Name: "SLO", Size: 2, Cycles: 8, Mode: PostIndexedIndirect, Kind: ReadModWrite, Illegal: true},
	0x14: {OpCode: 0x14, Name: "NOP", Size: 2, Cycles: 4, Mode: ZeroPageIndexedX, Kind: Read, Illegal: true},
	0x15: {OpCode: 0x15, Name: "ORA", Size: 2, Cycles: 4, Mode: ZeroPageIndexedX, Kind: Read},
	0x16: {OpCode: 0x16, Name: "ASL", Size: 2, Cycles: 6, Mode: ZeroPageIndexedX, Kind: ReadModWrite},
	0x17: {OpCode: 0x17, Name: "SLO", Size: 2, Cycles: 6, Mode: ZeroPageIndexedX, Kind: ReadModWrite, Illegal: true},
	0x18: {OpCode: 0x18, Name: "CLC", Size: 1, Cycles: 2, Mode: Implied},
	0x19: {OpCode: 0x19, Name: "ORA", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedY, Kind: Read},
	0x1A: {OpCode: 0x1A, Name: "NOP", Size: 1, Cycles: 2, Mode: Implied, Illegal: true},
	0x1B: {OpCode: 0x1B, Name: "SLO", Size: 3, Cycles: 7, Mode: IndexedY, Kind: ReadModWrite, Illegal: true},
	0x1C: {OpCode: 0x1C, Name: "NOP", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedX, Kind: Read, Illegal: true},
	0x1D: {OpCode: 0x1D, Name: "ORA", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedX, Kind: Read},
	0x1E: {OpCode: 0x1E, Name: "ASL", Size: 3, Cycles: 7, Mode: IndexedX, Kind: ReadModWrite},
	0x1F: {OpCode: 0x1F, Name: "SLO", Size: 3, Cycles: 7, Mode: IndexedX, Kind: ReadModWrite, Illegal: true},
	0x20: {OpCode: 0x20, Name: "JSR", Size: 3, Cycles: 6, Mode: Absolute},
	0x21: {OpCode: 0x21, Name: "AND", Size: 2, Cycles: 6, Mode: PreIndexedIndirect, Kind: Read},
	0x23: {OpCode: 0x23, Name: "RLA", Size: 2, Cycles: 8, Mode: PreIndexedIndirect, Kind: ReadModWrite, Illegal: true},
	0x24: {OpCode: 0x24, Name: "BIT", Size: 2, Cycles: 3, Mode: ZeroPage, Kind: Read},
	0x25: {OpCode: 0x25, Name: "AND", Size: 2, Cycles: 3, Mode: ZeroPage, Kind: Read},
	0x26: {OpCode: 0x26, Name: "ROL", Size: 2, Cycles: 5, Mode: ZeroPage, Kind: ReadModWrite},
	0x27: {OpCode: 0x27, Name: "RLA", Size: 2, Cycles: 5, Mode: ZeroPage, Kind: ReadModWrite, Illegal: true},
	0x28: {OpCode: 0x28, Name: "PLP", Size: 1, Cycles: 4, Mode: Implied},
	0x29: {OpCode: 0x29, Name: "AND", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read},
	0x2A: {OpCode: 0x2A, Name: "ROL", Size: 1, Cycles: 2, Mode: Accumulator, Kind: ReadModWrite},
	0x2B: {OpCode: 0x2B, Name: "AAC", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read, Illegal: true},
	0x2C: {OpCode: 0x2C, Name: "BIT", Size: 3, Cycles: 4, Mode: Absolute, Kind: Read},
	0x2D: {OpCode: 0x2D, Name: "AND", Size: 3, Cycles: 4, Mode: Absolute, Kind: Read},
	0x2E: {OpCode: 0x2E, Name: "ROL", Size: 3, Cycles: 6, Mode: Absolute, Kind: ReadModWrite},
	0x2F: {OpCode: 0x2F, Name: "RLA", Size: 3, Cycles: 6, Mode: Absolute, Kind: ReadModWrite, Illegal: true},
	0x30: {OpCode: 0x30, Name: "BMI", Size: 2, Cycles: 2, PageCycles: 1, Mode: Relative},
	0x31: {OpCode: 0x31, Name: "AND", Size: 2, Cycles: 5, PageCycles: 1, Mode: PostIndexedIndirect, Kind: Read},
	0x33: {OpCode: 0x33, Name: "RLA", Size: 2, Cycles: 8, Mode: PostIndexedIndirect, Kind: ReadModWrite, Illegal: true},
	0x34: {OpCode: 0x34, Name: "NOP", Size: 2, Cycles: 4, Mode: ZeroPageIndexedX, Kind: Read, Illegal: true},
	0x35: {OpCode: 0x35, Name: "AND", Size: 2, Cycles: 4, Mode: ZeroPageIndexedX, Kind: Read},
	0x36: {OpCode: 0x36, Name: "ROL", Size: 2, Cycles: 6, Mode: ZeroPageIndexedX, Kind: ReadModWrite},
	0x37: {OpCode: 0x37, Name: "RLA", Size: 2, Cycles: 6, Mode: ZeroPageIndexedX, Kind: ReadModWrite, Illegal: true},
	0x38: {OpCode: 0x38, Name: "SEC", Size: 1, Cycles: 2, Mode: Implied},
	0x39: {OpCode: 0x39, Name: "AND", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedY, Kind: Read},
	0x3A: {OpCode: 0x3A, Name: "NOP", Size: 1, Cycles: 2, Mode: Implied, Illegal: true},
	0x3B: {OpCode: 0x3B, Name: "RLA", Size: 3, Cycles: 7, Mode: IndexedY, Kind: ReadModWrite, Illegal: true},
	0x3C: {OpCode: 0x3C, Name: "NOP", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedX, Kind: Read, Illegal: true},
	0x3D: {OpCode: 0x3D, Name: "AND", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedX, Kind: Read},
	0x3E: {OpCode: 0x3E, Name: "ROL", Size: 3, Cycles: 7, Mode: IndexedX, Kind: ReadModWrite},
	0x3F: {OpCode: 0x3F, Name: "RLA", Size: 3, Cycles: 7, Mode: IndexedX, Kind: ReadModWrite, Illegal: true},
	0x40: {OpCode: 0x40, Name: "RTI", Size: 1, Cycles: 6, Mode: Implied},
	0x41: {OpCode: 0x41, Name: "EOR", Size: 2, Cycles: 6, Mode: PreIndexedIndirect, Kind: Read},
	0x43: {OpCode: 0x43, Name: "SRE", Size: 2, Cycles: 8, Mode: PreIndexedIndirect, Kind: ReadModWrite, Illegal: true},
	0x44: {OpCode: 0x44, Name: "NOP", Size: 2, Cycles: 3, Mode: ZeroPage, Kind: Read, Illegal: true},
	0x45: {OpCode: 0x45, Name: "EOR", Size: 2, Cycles: 3, Mode: ZeroPage, Kind: Read},
	0x46: {OpCode: 0x46, Name: "LSR", Size: 2, Cycles: 5, Mode: ZeroPage, Kind: ReadModWrite},
	0x47: {OpCode: 0x47, Name: "SRE", Size: 2, Cycles: 5, Mode: ZeroPage, Kind: ReadModWrite, Illegal: true},
	0x48: {OpCode: 0x48, Name: "PHA", Size: 1, Cycles: 3, Mode: Implied},
	0x49: {OpCode: 0x49, Name: "EOR", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read},
	0x4A: {OpCode: 0x4A, Name: "LSR", Size: 1, Cycles: 2, Mode: Accumulator, Kind: ReadModWrite},
	0x4B: {OpCode: 0x4B, Name: "ASR", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read, Illegal: true},
	0x4C: {OpCode: 0x4C, Name: "JMP", Size: 3, Cycles: 3, Mode: Absolute},
	0x4D: {OpCode: 0x4D, Name: "EOR", Size: 3, Cycles: 4, Mode: Absolute, Kind: Read},
	0x4E: {OpCode: 0x4E, Name: "LSR", Size: 3, Cycles: 6, Mode: Absolute, Kind: ReadModWrite},
	0x4F: {OpCode: 0x4F, Name: "SRE", Size: 3, Cycles: 6, Mode: Absolute, Kind: ReadModWrite, Illegal: true},
	0x50: {OpCode: 0x50, Name: "BVC", Size: 2, Cycles: 2, PageCycles: 1, Mode: Relative},
	0x51: {OpCode: 0x51, Name: "EOR", Size: 2, Cycles: 5, PageCycles: 1, Mode: PostIndexedIndirect, Kind: Read},
	0x53: {OpCode: 0x53, Name: "SRE", Size: 2, Cycles: 8, Mode: PostIndexedIndirect, Kind: ReadModWrite, Illegal: true},
	0x54: {OpCode: 0x54, Name: "NOP", Size: 2, Cycles: 4, Mode: ZeroPageIndexedX, Kind: Read, Illegal: true},
	0x55: {OpCode: 0x55, Name: "EOR", Size: 2, Cycles: 4, Mode: ZeroPageIndexedX, Kind: Read},
	0x56: {OpCode: 0x56, Name: "LSR", Size: 2, Cycles: 6, Mode: ZeroPageIndexedX, Kind: ReadModWrite},
	0x57: {OpCode: 0x57, Name: "SRE", Size: 2, Cycles: 6, Mode: ZeroPageIndexedX, Kind: ReadModWrite, Illegal: true},
	0x58: {OpCode: 0x58, Name: "CLI", Size: 1, Cycles: 2, Mode: Implied},
	0x59: {OpCode: 0x59, Name: "EOR", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedY, Kind: Read},
	0x5A: {OpCode: 0x5A, Name: "NOP", Size: 1, Cycles: 2, Mode: Implied, Illegal: true},
	0x5B: {OpCode: 0x5B, Name: "SRE", Size: 3, Cycles: 7, Mode: IndexedY, Kind: ReadModWrite, Illegal: true},
	0x5C: {OpCode: 0x5C, Name: "NOP", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedX, Kind: Read, Illegal: true},
	0x5D: {OpCode: 0x5D, Name: "EOR", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedX, Kind: Read},
	0x5E: {OpCode: 0x5E, Name: "LSR", Size: 3, Cycles: 7, Mode: IndexedX, Kind: ReadModWrite},
	0x5F: {OpCode: 0x5F, Name: "SRE", Size: 3, Cycles: 7, Mode: IndexedX, Kind: ReadModWrite, Illegal: true},
	0x60: {OpCode: 0x60, Name: "RTS", Size: 1, Cycles: 6, Mode: Implied},
	0x61: {OpCode: 0x61, Name: "ADC", Size: 2, Cycles: 6, Mode: PreIndexedIndirect, Kind: Read},
	0x63: {OpCode: 0x63, Name: "RRA", Size: 2, Cycles: 8, Mode: PreIndexedIndirect, Kind: ReadModWrite, Illegal: true},
	0x64: {OpCode: 0x64, Name: "NOP", Size: 2, Cycles: 3, Mode: ZeroPage, Kind: Read, Illegal: true},
	0x65: {OpCode: 0x65, Name: "ADC", Size: 2, Cycles: 3, Mode: ZeroPage, Kind: Read},
	0x66: {OpCode: 0x66, Name: "ROR", Size: 2, Cycles: 5, Mode: ZeroPage, Kind: ReadModWrite},
	0x67: {OpCode: 0x67, Name: "RRA", Size: 2, Cycles: 5, Mode: ZeroPage, Kind: ReadModWrite, Illegal: true},
	0x68: {OpCode: 0x68, Name: "PLA", Size: 1, Cycles: 4, Mode: Implied},
	0x69: {OpCode: 0x69, Name: "ADC", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read},
	0x6A: {OpCode: 0x6A, Name: "ROR", Size: 1, Cycles: 2, Mode: Accumulator, Kind: ReadModWrite},
	0x6B: {OpCode: 0x6B, Name: "ARR", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read, Illegal: true},
	0x6C: {OpCode: 0x6C, Name: "JMP", Size: 3, Cycles: 5, Mode: Indirect},
	0x6D: {OpCode: 0x6D, Name: "ADC", Size: 3, Cycles: 4, Mode: Absolute, Kind: Read},
	0x6E: {OpCode: 0x6E, Name: "ROR", Size: 3, Cycles: 6, Mode: Absolute, Kind: ReadModWrite},
	0x6F: {OpCode: 0x6F, Name: "RRA", Size: 3, Cycles: 6, Mode: Absolute, Kind: ReadModWrite, Illegal: true},
	0x70: {OpCode: 0x70, Name: "BVS", Size: 2, Cycles: 2, PageCycles: 1, Mode: Relative},
	0x71: {OpCode: 0x71, Name: "ADC", Size: 2, Cycles: 5, PageCycles: 1, Mode: PostIndexedIndirect, Kind: Read},
	0x73: {OpCode: 0x73, Name: "RRA", Size: 2, Cycles: 8, Mode: PostIndexedIndirect, Kind: ReadModWrite, Illegal: true},
	0x74: {OpCode: 0x74, Name: "NOP", Size: 2, Cycles: 4, Mode: ZeroPageIndexedX, Kind: Read, Illegal: true},
	0x75: {OpCode: 0x75, Name: "ADC", Size: 2, Cycles: 4, Mode: ZeroPageIndexedX, Kind: Read},
	0x76: {OpCode: 0x76, Name: "ROR", Size: 2, Cycles: 6, Mode: ZeroPageIndexedX, Kind: ReadModWrite},
	0x77: {OpCode: 0x77, Name: "RRA", Size: 2, Cycles: 6, Mode: ZeroPageIndexedX, Kind: ReadModWrite, Illegal: true},
	0x78: {OpCode: 0x78, Name: "SEI", Size: 1, Cycles: 2, Mode: Implied},
	0x79: {OpCode: 0x79, Name: "ADC", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedY, Kind: Read},
	0x7A: {OpCode: 0x7A, Name: "NOP", Size: 1, Cycles: 2, Mode: Implied, Illegal: true},
	0x7B: {OpCode: 0x7B, Name: "RRA", Size: 3, Cycles: 7, Mode: IndexedY, Kind: ReadModWrite, Illegal: true},
	0x7C: {OpCode: 0x7C, Name: "NOP", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedX, Kind: Read, Illegal: true},
	0x7D: {OpCode: 0x7D, Name: "ADC", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedX, Kind: Read},
	0x7E: {OpCode: 0x7E, Name: "ROR", Size: 3, Cycles: 7, Mode: IndexedX, Kind: ReadModWrite},
	0x7F: {OpCode: 0x7F, Name: "RRA", Size: 3, Cycles: 7, Mode: IndexedX, Kind: ReadModWrite, Illegal: true},
	0x80: {OpCode: 0x80, Name: "NOP", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read, Illegal: true},
	0x81: {OpCode: 0x81, Name: "STA", Size: 2, Cycles: 6, Mode: PreIndexedIndirect, Kind: Write},
	0x82: {OpCode: 0x82, Name: "NOP", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read, Illegal: true},
	0x83: {OpCode: 0x83, Name: "SAX", Size: 2, Cycles: 6, Mode: PreIndexedIndirect, Kind: Write, Illegal: true},
	0x84: {OpCode: 0x84, Name: "STY", Size: 2, Cycles: 3, Mode: ZeroPage, Kind: Write},
	0x85: {OpCode: 0x85, Name: "STA", Size: 2, Cycles: 3, Mode: ZeroPage, Kind: Write},
	0x86: {OpCode: 0x86, Name: "STX", Size: 2, Cycles: 3, Mode: ZeroPage, Kind: Write},
	0x87: {OpCode: 0x87, Name: "SAX", Size: 2, Cycles: 3, Mode: ZeroPage, Kind: Write, Illegal: true},
	0x88: {OpCode: 0x88, Name: "DEY", Size: 1, Cycles: 2, Mode: Implied},
	0x89: {OpCode: 0x89, Name: "NOP", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read, Illegal: true},
	0x8A: {OpCode: 0x8A, Name: "TXA", Size: 1, Cycles: 2, Mode: Implied},
	0x8C: {OpCode: 0x8C, Name: "STY", Size: 3, Cycles: 4, Mode: Absolute, Kind: Write},
	0x8D: {OpCode: 0x8D, Name: "STA", Size: 3, Cycles: 4, Mode: Absolute, Kind: Write},
	0x8E: {OpCode: 0x8E, Name: "STX", Size: 3, Cycles: 4, Mode: Absolute, Kind: Write},
	0x8F: {OpCode: 0x8F, Name: "SAX", Size: 3, Cycles: 4, Mode: Absolute, Kind: Write, Illegal: true},
	0x90: {OpCode: 0x90, Name: "BCC", Size: 2, Cycles: 2, PageCycles: 1, Mode: Relative},
	0x91: {OpCode: 0x91, Name: "STA", Size: 2, Cycles: 6, Mode: PostIndexedIndirect, Kind: Write},
	0x93: {OpCode: 0x93, Name: "SHA", Size: 2, Cycles: 6, Mode: PostIndexedIndirect, Kind: Write, Illegal: true},
	0x94: {OpCode: 0x94, Name: "STY", Size: 2, Cycles: 4, Mode: ZeroPageIndexedX, Kind: Write},
	0x95: {OpCode: 0x95, Name: "STA", Size: 2, Cycles: 4, Mode: ZeroPageIndexedX, Kind: Write},
	0x96: {OpCode: 0x96, Name: "STX", Size: 2, Cycles: 4, Mode: ZeroPageIndexedY, Kind: Write},
	0x97: {OpCode: 0x97, Name: "SAX", Size: 2, Cycles: 4, Mode: ZeroPageIndexedY, Kind: Write, Illegal: true},
	0x98: {OpCode: 0x98, Name: "TYA", Size: 1, Cycles: 2, Mode: Implied},
	0x99: {OpCode: 0x99, Name: "STA", Size: 3, Cycles: 5, Mode: IndexedY, Kind: Write},
	0x9A: {OpCode: 0x9A, Name: "TXS", Size: 1, Cycles: 2, Mode: Implied},
	0x9B: {OpCode: 0x9B, Name: "TAS", Size: 3, Cycles: 5, Mode: IndexedY, Kind: Write, Illegal: true},
	0x9C: {OpCode: 0x9C, Name: "SHY", Size: 3, Cycles: 5, Mode: IndexedX, Kind: Write, Illegal: true},
	0x9D: {OpCode: 0x9D, Name: "STA", Size: 3, Cycles: 5, Mode: IndexedX, Kind: Write},
	0x9E: {OpCode: 0x9E, Name: "SHX", Size: 3, Cycles: 5, Mode: IndexedY, Kind: Write, Illegal: true},
	0x9F: {OpCode: 0x9F, Name: "SHA", Size: 3, Cycles: 5, Mode: IndexedY, Kind: Write, Illegal: true},
	0xA0: {OpCode: 0xA0, Name: "LDY", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read},
	0xA1: {OpCode: 0xA1, Name: "LDA", Size: 2, Cycles: 6, Mode: PreIndexedIndirect, Kind: Read},
	0xA2: {OpCode: 0xA2, Name: "LDX", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read},
	0xA3: {OpCode: 0xA3, Name: "LAX", Size: 2, Cycles: 6, Mode: PreIndexedIndirect, Kind: Read, Illegal: true},
	0xA4: {OpCode: 0xA4, Name: "LDY", Size: 2, Cycles: 3, Mode: ZeroPage, Kind: Read},
	0xA5: {OpCode: 0xA5, Name: "LDA", Size: 2, Cycles: 3, Mode: ZeroPage, Kind: Read},
	0xA6: {OpCode: 0xA6, Name: "LDX", Size: 2, Cycles: 3, Mode: ZeroPage, Kind: Read},
	0xA7: {OpCode: 0xA7, Name: "LAX", Size: 2, Cycles: 3, Mode: ZeroPage, Kind: Read, Illegal: true},
	0xA8: {OpCode: 0xA8, Name: "TAY", Size: 1, Cycles: 2, Mode: Implied},
	0xA9: {OpCode: 0xA9, Name: "LDA", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read},
	0xAA: {OpCode: 0xAA, Name: "TAX", Size: 1, Cycles: 2, Mode: Implied},
	0xAB: {OpCode: 0xAB, Name: "ATX", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read, Illegal: true},
	0xAC: {OpCode: 0xAC, Name: "LDY", Size: 3, Cycles: 4, Mode: Absolute, Kind: Read},
	0xAD: {OpCode: 0xAD, Name: "LDA", Size: 3, Cycles: 4, Mode: Absolute, Kind: Read},
	0xAE: {OpCode: 0xAE, Name: "LDX", Size: 3, Cycles: 4, Mode: Absolute, Kind: Read},
	0xAF: {OpCode: 0xAF, Name: "LAX", Size: 3, Cycles: 4, Mode: Absolute, Kind: Read, Illegal: true},
	0xB0: {OpCode: 0xB0, Name: "BCS", Size: 2, Cycles: 2, PageCycles: 1, Mode: Relative},
	0xB1: {OpCode: 0xB1, Name: "LDA", Size: 2, Cycles: 5, PageCycles: 1, Mode: PostIndexedIndirect, Kind: Read},
	0xB3: {OpCode: 0xB3, Name: "LAX", Size: 2, Cycles: 5, PageCycles: 1, Mode: PostIndexedIndirect, Kind: Read, Illegal: true},
	0xB4: {OpCode: 0xB4, Name: "LDY", Size: 2, Cycles: 4, Mode: ZeroPageIndexedX, Kind: Read},
	0xB5: {OpCode: 0xB5, Name: "LDA", Size: 2, Cycles: 4, Mode: ZeroPageIndexedX, Kind: Read},
	0xB6: {OpCode: 0xB6, Name: "LDX", Size: 2, Cycles: 4, Mode: ZeroPageIndexedY, Kind: Read},
	0xB7: {OpCode: 0xB7, Name: "LAX", Size: 2, Cycles: 4, Mode: ZeroPageIndexedY, Kind: Read, Illegal: true},
	0xB8: {OpCode: 0xB8, Name: "CLV", Size: 1, Cycles: 2, Mode: Implied},
	0xB9: {OpCode: 0xB9, Name: "LDA", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedY, Kind: Read},
	0xBA: {OpCode: 0xBA, Name: "TSX", Size: 1, Cycles: 2, Mode: Implied},
	0xBC: {OpCode: 0xBC, Name: "LDY", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedX, Kind: Read},
	0xBD: {OpCode: 0xBD, Name: "LDA", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedX, Kind: Read},
	0xBE: {OpCode: 0xBE, Name: "LDX", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedY, Kind: Read},
	0xBF: {OpCode: 0xBF, Name: "LAX", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedY, Kind: Read, Illegal: true},
	0xC0: {OpCode: 0xC0, Name: "CPY", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read},
	0xC1: {OpCode: 0xC1, Name: "CMP", Size: 2, Cycles: 6, Mode: PreIndexedIndirect, Kind: Read},
	0xC2: {OpCode: 0xC2, Name: "NOP", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read, Illegal: true},
	0xC3: {OpCode: 0xC3, Name: "DCP", Size: 2, Cycles: 8, Mode: PreIndexedIndirect, Kind: ReadModWrite, Illegal: true},
	0xC4: {OpCode: 0xC4, Name: "CPY", Size: 2, Cycles: 3, Mode: ZeroPage, Kind: Read},
	0xC5: {OpCode: 0xC5, Name: "CMP", Size: 2, Cycles: 3, Mode: ZeroPage, Kind: Read},
	0xC6: {OpCode: 0xC6, Name: "DEC", Size: 2, Cycles: 5, Mode: ZeroPage, Kind: ReadModWrite},
	0xC7: {OpCode: 0xC7, Name: "DCP", Size: 2, Cycles: 5, Mode: ZeroPage, Kind: ReadModWrite, Illegal: true},
	0xC8: {OpCode: 0xC8, Name: "INY", Size: 1, Cycles: 2, Mode: Implied},
	0xC9: {OpCode: 0xC9, Name: "CMP", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read},
	0xCA: {OpCode: 0xCA, Name: "DEX", Size: 1, Cycles: 2, Mode: Implied},
	0xCB: {OpCode: 0xCB, Name: "AXS", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read, Illegal: true},
	0xCC: {OpCode: 0xCC, Name: "CPY", Size: 3, Cycles: 4, Mode: Absolute, Kind: Read},
	0xCD: {OpCode: 0xCD, Name: "CMP", Size: 3, Cycles: 4, Mode: Absolute, Kind: Read},
	0xCE: {OpCode: 0xCE, Name: "DEC", Size: 3, Cycles: 6, Mode: Absolute, Kind: ReadModWrite},
	0xCF: {OpCode: 0xCF, Name: "DCP", Size: 3, Cycles: 6, Mode: Absolute, Kind: ReadModWrite, Illegal: true},
	0xD0: {OpCode: 0xD0, Name: "BNE", Size: 2, Cycles: 2, PageCycles: 1, Mode: Relative},
	0xD1: {OpCode: 0xD1, Name: "CMP", Size: 2, Cycles: 5, PageCycles: 1, Mode: PostIndexedIndirect, Kind: Read},
	0xD3: {OpCode: 0xD3, Name: "DCP", Size: 2, Cycles: 8, Mode: PostIndexedIndirect, Kind: ReadModWrite, Illegal: true},
	0xD4: {OpCode: 0xD4, Name: "NOP", Size: 2, Cycles: 4, Mode: ZeroPageIndexedX, Kind: Read, Illegal: true},
	0xD5: {OpCode: 0xD5, Name: "CMP", Size: 2, Cycles: 4, Mode: ZeroPageIndexedX, Kind: Read},
	0xD6: {OpCode: 0xD6, Name: "DEC", Size: 2, Cycles: 6, Mode: ZeroPageIndexedX, Kind: ReadModWrite},
	0xD7: {OpCode: 0xD7, Name: "DCP", Size: 2, Cycles: 6, Mode: ZeroPageIndexedX, Kind: ReadModWrite, Illegal: true},
	0xD8: {OpCode: 0xD8, Name: "CLD", Size: 1, Cycles: 2, Mode: Implied},
	0xD9: {OpCode: 0xD9, Name: "CMP", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedY, Kind: Read},
	0xDA: {OpCode: 0xDA, Name: "NOP", Size: 1, Cycles: 2, Mode: Implied, Illegal: true},
	0xDB: {OpCode: 0xDB, Name: "DCP", Size: 3, Cycles: 7, Mode: IndexedY, Kind: ReadModWrite, Illegal: true},
	0xDC: {OpCode: 0xDC, Name: "NOP", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedX, Kind: Read, Illegal: true},
	0xDD: {OpCode: 0xDD, Name: "CMP", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedX, Kind: Read},
	0xDE: {OpCode: 0xDE, Name: "DEC", Size: 3, Cycles: 7, Mode: IndexedX, Kind: ReadModWrite},
	0xDF: {OpCode: 0xDF, Name: "DCP", Size: 3, Cycles: 7, Mode: IndexedX, Kind: ReadModWrite, Illegal: true},
	0xE0: {OpCode: 0xE0, Name: "CPX", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read},
	0xE1: {OpCode: 0xE1, Name: "SBC", Size: 2, Cycles: 6, Mode: PreIndexedIndirect, Kind: Read},
	0xE2: {OpCode: 0xE2, Name: "NOP", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read, Illegal: true},
	0xE3: {OpCode: 0xE3, Name: "ISB", Size: 2, Cycles: 8, Mode: PreIndexedIndirect, Kind: ReadModWrite, Illegal: true},
	0xE4: {OpCode: 0xE4, Name: "CPX", Size: 2, Cycles: 3, Mode: ZeroPage, Kind: Read},
	0xE5: {OpCode: 0xE5, Name: "SBC", Size: 2, Cycles: 3, Mode: ZeroPage, Kind: Read},
	0xE6: {OpCode: 0xE6, Name: "INC", Size: 2, Cycles: 5, Mode: ZeroPage, Kind: ReadModWrite},
	0xE7: {OpCode: 0xE7, Name: "ISB", Size: 2, Cycles: 5, Mode: ZeroPage, Kind: ReadModWrite, Illegal: true},
	0xE8: {OpCode: 0xE8, Name: "INX", Size: 1, Cycles: 2, Mode: Implied},
	0xE9: {OpCode: 0xE9, Name: "SBC", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read},
	0xEA: {OpCode: 0xEA, Name: "NOP", Size: 1, Cycles: 2, Mode: Implied},
	0xEB: {OpCode: 0xEB, Name: "SBC", Size: 2, Cycles: 2, Mode: Immediate, Kind: Read, Illegal: true},
	0xEC: {OpCode: 0xEC, Name: "CPX", Size: 3, Cycles: 4, Mode: Absolute, Kind: Read},
	0xED: {OpCode: 0xED, Name: "SBC", Size: 3, Cycles: 4, Mode: Absolute, Kind: Read},
	0xEE: {OpCode: 0xEE, Name: "INC", Size: 3, Cycles: 6, Mode: Absolute, Kind: ReadModWrite},
	0xEF: {OpCode: 0xEF, Name: "ISB", Size: 3, Cycles: 6, Mode: Absolute, Kind: ReadModWrite, Illegal: true},
	0xF0: {OpCode: 0xF0, Name: "BEQ", Size: 2, Cycles: 2, PageCycles: 1, Mode: Relative},
	0xF1: {OpCode: 0xF1, Name: "SBC", Size: 2, Cycles: 5, PageCycles: 1, Mode: PostIndexedIndirect, Kind: Read},
	0xF3: {OpCode: 0xF3, Name: "ISB", Size: 2, Cycles: 8, Mode: PostIndexedIndirect, Kind: ReadModWrite, Illegal: true},
	0xF4: {OpCode: 0xF4, Name: "NOP", Size: 2, Cycles: 4, Mode: ZeroPageIndexedX, Kind: Read, Illegal: true},
	0xF5: {OpCode: 0xF5, Name: "SBC", Size: 2, Cycles: 4, Mode: ZeroPageIndexedX, Kind: Read},
	0xF6: {OpCode: 0xF6, Name: "INC", Size: 2, Cycles: 6, Mode: ZeroPageIndexedX, Kind: ReadModWrite},
	0xF7: {OpCode: 0xF7, Name: "ISB", Size: 2, Cycles: 6, Mode: ZeroPageIndexedX, Kind: ReadModWrite, Illegal: true},
	0xF8: {OpCode: 0xF8, Name: "SED", Size: 1, Cycles: 2, Mode: Implied},
	0xF9: {OpCode: 0xF9, Name: "SBC", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedY, Kind: Read},
	0xFA: {OpCode: 0xFA, Name: "NOP", Size: 1, Cycles: 2, Mode: Implied, Illegal: true},
	0xFB: {OpCode: 0xFB, Name: "ISB", Size: 3, Cycles: 7, Mode: IndexedY, Kind: ReadModWrite, Illegal: true},
	0xFC: {OpCode: 0xFC, Name: "NOP", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedX, Kind: Read, Illegal: true},
	0xFD: {OpCode: 0xFD, Name: "SBC", Size: 3, Cycles: 4, PageCycles: 1, Mode: IndexedX, Kind: Read},
	0xFE: {OpCode: 0xFE, Name: "INC", Size: 3, Cycles: 7, Mode: IndexedX, Kind: ReadModWrite},
	0xFF: {OpCode: 0xFF, Name: "ISB", Size: 3, Cycles: 7, Mode: IndexedX, Kind: ReadModWrite, Illegal: true},
}
