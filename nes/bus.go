package nes

// ╔═════════════════╤═══════╤═════════════════════════╗
// ║ Address Range   │ Size  │ Purpose                 ║
// ╠═════════════════╪═══════╪═════════════════════════╣
// ║ 0x8000 - 0xFFFF │ 32768 │ PRG ROM (cartridge)     ║
// ║ 0x6000 - 0x7FFF │ 8192  │ PRG RAM (cartridge)     ║
// ║ 0x4020 - 0x5FFF │ 8160  │ expansion (cartridge)   ║
// ║ 0x4000 - 0x401F │ 32    │ APU / I/O registers     ║
// ║ 0x2000 - 0x3FFF │ 8192  │ PPU registers, mirrored ║
// ║ 0x0800 - 0x1FFF │ 6144  │ mirrors of system RAM   ║
// ║ 0x0000 - 0x07FF │ 2048  │ system RAM              ║
// ╚═════════════════╧═══════╧═════════════════════════╝

const ramSize = 2048

// RAM is the 2 KB of system memory, visible four times over below $2000.
type RAM struct {
	data []byte
}

// NewRAM returns zeroed system RAM.
func NewRAM() *RAM {
	return &RAM{
		data: make([]byte, ramSize),
	}
}

// Read returns the byte at address, mirrored every 0x800.
func (r *RAM) Read(address uint16) byte {
	return r.data[address%ramSize]
}

// Write stores v at address, mirrored every 0x800.
func (r *RAM) Write(address uint16, v byte) {
	r.data[address%ramSize] = v
}

// SysBus is the memory system the CPU drives: mirrored system RAM below
// $2000 and the cartridge from $4020 up. The PPU, APU and controller ports
// are collaborators of the outer system; with nothing attached their
// registers read as zero and swallow writes.
//
// Cycle is forwarded to the mapper, which is where time-sensitive cartridge
// hardware would hang; the bus also counts the ticks so a driver can meter
// real time against them.
type SysBus struct {
	RAM    *RAM
	Mapper Mapper

	cycles uint64
}

// NewSysBus wires fresh system RAM to the given mapper.
func NewSysBus(m Mapper) *SysBus {
	return &SysBus{
		RAM:    NewRAM(),
		Mapper: m,
	}
}

// Read routes a CPU read.
func (b *SysBus) Read(address uint16) byte {
	switch {
	case address < 0x2000:
		return b.RAM.Read(address)
	case address < 0x4020:
		// PPU/APU/controller registers, nothing attached.
		return 0
	default:
		return b.Mapper.CPURead(address)
	}
}

// Write routes a CPU write.
func (b *SysBus) Write(address uint16, v byte) {
	switch {
	case address < 0x2000:
		b.RAM.Write(address, v)
	case address < 0x4020:
		// PPU/APU/controller registers, nothing attached.
	default:
		b.Mapper.CPUWrite(address, v)
	}
}

// Cycle advances bus time by one CPU cycle.
func (b *SysBus) Cycle() {
	b.cycles++
	b.Mapper.Cycle()
}

// Cycles returns the number of cycles seen since construction.
func (b *SysBus) Cycles() uint64 {
	return b.cycles
}
