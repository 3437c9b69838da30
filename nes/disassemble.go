package nes

import (
	"fmt"
	"io"
	"strings"
)

var addressingFormats = map[AddressingMode]string{
	Immediate:           "#$%02X",    // #aa
	Absolute:            "$%04X",     // aaaa
	ZeroPage:            "$%02X",     // aa
	Implied:             "",          //
	Indirect:            "($%04X)",   // (aaaa)
	IndexedX:            "$%04X,X",   // aaaa,X
	IndexedY:            "$%04X,Y",   // aaaa,Y
	ZeroPageIndexedX:    "$%02X,X",   // aa,X
	ZeroPageIndexedY:    "$%02X,Y",   // aa,Y
	PreIndexedIndirect:  "($%02X,X)", // (aa,X)
	PostIndexedIndirect: "($%02X),Y", // (aa),Y
	Relative:            "$%04X",     // aaaa
	Accumulator:         "A",         // A
}

// Disassemble renders the instruction at pc as assembly text: the raw
// bytes, an asterisk for undocumented opcodes, the mnemonic and the operand
// in the classic nestest notation. The reads bypass the cycle accounting,
// so peeking at memory with side-effect-free buses is safe at any time.
func Disassemble(bus Bus, pc uint16) string {
	inst := instructions[bus.Read(pc)]
	if inst.Name == "" {
		return fmt.Sprintf("%04X  %02X       ???", pc, bus.Read(pc))
	}

	var raw string
	switch inst.Size {
	case 2:
		raw = fmt.Sprintf("%02X %02X   ", inst.OpCode, bus.Read(pc+1))
	case 3:
		raw = fmt.Sprintf("%02X %02X %02X", inst.OpCode, bus.Read(pc+1), bus.Read(pc+2))
	default:
		raw = fmt.Sprintf("%02X      ", inst.OpCode)
	}

	marker := " "
	if inst.Illegal {
		marker = "*"
	}

	var arg uint16
	switch inst.Mode {
	case Immediate, ZeroPage, ZeroPageIndexedX, ZeroPageIndexedY,
		PreIndexedIndirect, PostIndexedIndirect:
		arg = uint16(bus.Read(pc + 1))
	case Absolute, Indirect, IndexedX, IndexedY:
		arg = uint16(bus.Read(pc+1)) | uint16(bus.Read(pc+2))<<8
	case Relative:
		arg = pc + 2 + uint16(int8(bus.Read(pc+1)))
	}

	operand := addressingFormats[inst.Mode]
	if strings.Contains(operand, "%") {
		operand = fmt.Sprintf(operand, arg)
	}
	return strings.TrimRight(fmt.Sprintf("%04X  %s %s%s %s", pc, raw, marker, inst.Name, operand), " ")
}

// disassemble writes one nestest-format trace line: the instruction about
// to execute followed by the register state and cycle count before it runs.
func disassemble(out io.Writer, bus Bus, reg *Registers, cycles uint64) {
	text := Disassemble(bus, reg.PC())
	if pad := 48 - len(text); pad > 0 {
		text += strings.Repeat(" ", pad)
	}

	fmt.Fprintf(out, "%s A:%02X X:%02X Y:%02X P:%02X SP:%02X CYC:%d\n",
		text,
		reg.Read(A), reg.Read(X), reg.Read(Y), reg.Read(P), reg.Read(SP),
		cycles)
}
