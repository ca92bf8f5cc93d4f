// Command romrunner runs a CHIP-8 program without a window until it settles
// in its terminal loop, then prints the screen. It is meant for test ROMs
// and scripted checks.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/memory"
)

// exit codes
const (
	exitDone    = 0
	exitFault   = 1
	exitTimeout = 2
	exitUsage   = 3
)

func main() {
	romPath := flag.String("rom", "", "path to ROM")
	mode := flag.String("mode", "auto", "instruction set: chip8, schip or auto")
	profile := flag.String("quirks", "", "quirk profile: "+strings.Join(emu.QuirkProfiles(), ", "))
	ips := flag.Int("ips", emu.DefaultIPS, "instructions per emulated second")
	frames := flag.Int("frames", 60*60, "max frames to run")
	trace := flag.Bool("trace", false, "log every executed instruction")
	disasm := flag.Int("disasm", 0, "print N instructions from 0x200 and exit")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout (e.g. 30s); 0 disables")
	keys := flag.String("keys", "", "hex keys held down for the whole run, e.g. \"5a\"")
	quiet := flag.Bool("q", false, "do not print the screen")
	flag.Parse()

	if *romPath == "" && flag.NArg() > 0 {
		*romPath = flag.Arg(0)
	}
	if *romPath == "" {
		log.Print("-rom is required")
		os.Exit(exitUsage)
	}

	m, err := emu.New(emu.Config{Trace: *trace, IPS: *ips, Mode: *mode, Profile: *profile})
	if err != nil {
		log.Print(err)
		os.Exit(exitUsage)
	}
	if err := m.LoadROMFile(*romPath); err != nil {
		log.Printf("load rom: %v", err)
		os.Exit(exitUsage)
	}

	if *disasm > 0 {
		for i, in := range m.Disassemble(memory.ProgramStart, *disasm) {
			fmt.Printf("%03X  %04X  %s\n", memory.ProgramStart+2*i, in.Raw, in)
		}
		return
	}

	for _, ch := range *keys {
		var k byte
		if _, err := fmt.Sscanf(string(ch), "%x", &k); err != nil {
			log.Printf("bad key %q", ch)
			os.Exit(exitUsage)
		}
		m.SetKey(k, true)
	}

	start := time.Now()
	var deadline time.Time
	if *timeout > 0 {
		deadline = start.Add(*timeout)
	}

	code := exitTimeout
	n := 0
	for n < *frames {
		n++
		if err := m.StepFrame(); err != nil {
			fmt.Printf("\nFault: %v\n", err)
			code = exitFault
			break
		}
		if m.State() == cpu.Halted || m.AtTerminalLoop() {
			code = exitDone
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			fmt.Printf("\nTimeout after %s.\n", time.Since(start).Truncate(time.Millisecond))
			break
		}
	}

	if !*quiet {
		printScreen(m)
	}
	r := m.Registers()
	fmt.Printf("PC=%03X I=%03X SP=%d state=%s\n", r.PC, r.I, r.SP, m.State())
	for i, v := range r.V {
		fmt.Printf("V%X=%02X ", i, v)
	}
	fmt.Printf("\nDone: frames=%d elapsed=%s xxhash=%016x\n", n, time.Since(start).Truncate(time.Millisecond), m.FrameHash())
	os.Exit(code)
}

func printScreen(m *emu.Machine) {
	w, _ := m.Resolution()
	px := m.Pixels()
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	border := "+" + strings.Repeat("-", w) + "+\n"
	out.WriteString(border)
	for y := 0; y*w < len(px); y++ {
		out.WriteByte('|')
		for _, p := range px[y*w : (y+1)*w] {
			if p != 0 {
				out.WriteByte('#')
			} else {
				out.WriteByte(' ')
			}
		}
		out.WriteString("|\n")
	}
	out.WriteString(border)
}
