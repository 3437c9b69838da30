package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/urfave/cli.v2"

	"github.com/uknys/nesmesis/nes"
)

func main() {
	app := &cli.App{
		Name:  "nesmesis",
		Usage: "cycle-accurate 6502 core with an NROM cartridge loader",
		Commands: []*cli.Command{
			infoCommand,
			traceCommand,
			monitorCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseHex16(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("bad hex value %q: %v", s, err)
	}
	return uint16(v), nil
}

func loadCartridge(path string) (*nes.NROM, error) {
	if path == "" {
		return nil, errors.New("missing rom argument")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return nes.LoadINES(f)
}

var infoCommand = &cli.Command{
	Name:      "info",
	Usage:     "print the iNES header of a rom",
	ArgsUsage: "rom",
	Action: func(c *cli.Context) error {
		cart, err := loadCartridge(c.Args().First())
		if err != nil {
			return err
		}

		mirror := "horizontal"
		switch cart.Mirror() {
		case nes.Vertical:
			mirror = "vertical"
		case nes.FourScreen:
			mirror = "four-screen"
		}

		fmt.Printf("mapper:    %d\n", cart.MapperNumber())
		fmt.Printf("prg:       %d x 16 KB\n", cart.PRGPages())
		fmt.Printf("mirroring: %s\n", mirror)
		return nil
	},
}

var traceCommand = &cli.Command{
	Name:      "trace",
	Usage:     "run a rom, printing one nestest-format line per instruction",
	ArgsUsage: "rom",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "pc",
			Usage: "override the entry point (hex)",
		},
		&cli.IntFlag{
			Name:  "steps",
			Usage: "number of instructions to run, 0 for unlimited",
			Value: 0,
		},
	},
	Action: func(c *cli.Context) error {
		cart, err := loadCartridge(c.Args().First())
		if err != nil {
			return err
		}

		cpu := nes.NewCPU(nes.NewSysBus(cart), os.Stdout)
		cpu.Init()

		if pc := c.String("pc"); pc != "" {
			v, err := parseHex16(pc)
			if err != nil {
				return err
			}
			cpu.Reg.SetPC(v)
		}

		steps := c.Int("steps")
		for i := 0; steps == 0 || i < steps; i++ {
			if err := cpu.Execute(); err != nil {
				return err
			}
		}
		return nil
	},
}
