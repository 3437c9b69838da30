package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"
	"gopkg.in/urfave/cli.v2"

	"github.com/uknys/nesmesis/nes"
)

var monitorCommand = &cli.Command{
	Name:      "monitor",
	Usage:     "step through a rom in an interactive TUI",
	ArgsUsage: "rom",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "pc",
			Usage: "override the entry point (hex)",
		},
	},
	Action: func(c *cli.Context) error {
		cart, err := loadCartridge(c.Args().First())
		if err != nil {
			return err
		}

		bus := nes.NewSysBus(cart)
		cpu := nes.NewCPU(bus, nil)
		cpu.Init()

		if pc := c.String("pc"); pc != "" {
			v, err := parseHex16(pc)
			if err != nil {
				return err
			}
			cpu.Reg.SetPC(v)
		}

		final, err := tea.NewProgram(monitor{cpu: cpu, bus: bus}).Run()
		if err != nil {
			return err
		}
		if m := final.(monitor); m.err != nil {
			return m.err
		}
		return nil
	},
}

var (
	paneStyle  = lipgloss.NewStyle().Padding(0, 1)
	labelStyle = lipgloss.NewStyle().Bold(true)
)

// monitor is the bubbletea model: one CPU stepped one instruction per
// keypress, with the lower half of the zero page ($0000-$007F), the upper
// half of the stack page ($0180-$01FF) and the register file on screen.
type monitor struct {
	cpu *nes.CPU
	bus *nes.SysBus

	steps  uint64
	prevPC uint16
	err    error
}

func (m monitor) Init() tea.Cmd {
	return nil
}

func (m monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case " ", "j":
		m.prevPC = m.cpu.Reg.PC()
		if err := m.cpu.Execute(); err != nil {
			m.err = err
			return m, tea.Quit
		}
		m.steps++

	case "r":
		m.cpu.Reset()
	}

	return m, nil
}

// page renders 8 rows of 16 bytes starting at base, marking the byte at
// mark.
func (m monitor) page(base, mark uint16) string {
	var b strings.Builder
	for row := uint16(0); row < 8; row++ {
		start := base + row*16
		fmt.Fprintf(&b, "%04x │", start)
		for i := uint16(0); i < 16; i++ {
			if start+i == mark {
				fmt.Fprintf(&b, "[%02x]", m.bus.Read(start+i))
			} else {
				fmt.Fprintf(&b, " %02x ", m.bus.Read(start+i))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (m monitor) status() string {
	reg := &m.cpu.Reg
	p := reg.Read(nes.P)

	var flags strings.Builder
	flags.WriteString("N V - B D I Z C\n")
	for bit := 7; bit >= 0; bit-- {
		if p&(1<<bit) != 0 {
			flags.WriteString("* ")
		} else {
			flags.WriteString(". ")
		}
	}

	return fmt.Sprintf(`PC: %04x (%04x)
 A: %02x
 X: %02x
 Y: %02x
SP: %02x
 P: %02x

%s

cycles: %d
steps:  %d
`,
		reg.PC(), m.prevPC,
		reg.Read(nes.A), reg.Read(nes.X), reg.Read(nes.Y),
		reg.Read(nes.SP), p,
		flags.String(),
		m.cpu.Cycles(), m.steps)
}

func (m monitor) View() string {
	pc := m.cpu.Reg.PC()
	stackMark := 0x0100 | uint16(m.cpu.Reg.Read(nes.SP))

	memory := lipgloss.JoinVertical(
		lipgloss.Left,
		labelStyle.Render("zero page"),
		m.page(0x0000, 0xFFFF),
		labelStyle.Render("stack"),
		m.page(0x0180, stackMark),
	)

	next := fmt.Sprintf("next: %s\n\n%s",
		nes.Disassemble(m.bus, pc),
		spew.Sdump(nes.Decode(m.bus.Read(pc))))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			paneStyle.Render(memory),
			paneStyle.Render(m.status()),
		),
		paneStyle.Render(next),
		paneStyle.Render("space/j step · r reset · q quit"),
	) + "\n"
}
