package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/ui"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/web"
	"github.com/retroenv/retrogolib/buildinfo"
	"golang.org/x/sync/errgroup"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

type CLIFlags struct {
	ROMPath string
	Scale   int
	Title   string
	Trace   bool
	Version bool

	// machine
	IPS     int
	Mode    string
	Profile string
	Strict  bool
	Wrap    bool
	Muted   bool
	ROMsDir string

	// headless
	Headless bool
	Frames   int
	PNGOut   string
	Expect   string // expected frame xxhash hex

	Web        string // serve the display over http on this address
	WebOrigins string // extra origins allowed to open the websocket
}

func parseFlags() CLIFlags {
	var f CLIFlags
	flag.StringVar(&f.ROMPath, "rom", "", "path to ROM (.ch8, .sc8, or a .zip/.gz/.7z containing one)")
	flag.IntVar(&f.Scale, "scale", 10, "window scale")
	flag.StringVar(&f.Title, "title", "chip8emu", "window title")
	flag.BoolVar(&f.Trace, "trace", false, "log every executed instruction")
	flag.BoolVar(&f.Version, "version", false, "print version and exit")

	flag.IntVar(&f.IPS, "ips", emu.DefaultIPS, "instructions per second")
	flag.StringVar(&f.Mode, "mode", "schip", "instruction set: chip8, schip or auto")
	flag.StringVar(&f.Profile, "quirks", "", "quirk profile: "+strings.Join(emu.QuirkProfiles(), ", "))
	flag.BoolVar(&f.Strict, "strict", true, "fault on unknown opcodes instead of skipping them")
	flag.BoolVar(&f.Wrap, "wrap", false, "wrap sprites at the screen edges")
	flag.BoolVar(&f.Muted, "mute", false, "start with sound off")
	flag.StringVar(&f.ROMsDir, "romdir", "roms", "directory browsed by the ROM menu")

	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Frames, "frames", 300, "frames to run in headless mode")
	flag.StringVar(&f.PNGOut, "outpng", "", "write last frame to PNG at path")
	flag.StringVar(&f.Expect, "expect", "", "assert frame xxhash (hex)")

	flag.StringVar(&f.Web, "web", "", "serve the display to browsers on this address (e.g. :8080)")
	flag.StringVar(&f.WebOrigins, "web-origins", "", "comma-separated extra origins allowed to connect (e.g. http://host:8080)")
	flag.Parse()

	if f.ROMPath == "" && flag.NArg() > 0 {
		f.ROMPath = flag.Arg(0)
	}
	return f
}

func runHeadless(m *emu.Machine, frames int, pngPath, expect string) error {
	if frames <= 0 {
		frames = 1
	}

	start := time.Now()
	var runErr error
	n := 0
	for ; n < frames; n++ {
		if runErr = m.StepFrame(); runErr != nil || m.State() == cpu.Halted {
			n++
			break
		}
	}
	dur := time.Since(start)

	hash := m.FrameHash()
	w, h := m.Resolution()
	log.Printf("headless: frames=%d elapsed=%s res=%dx%d state=%s frame_xxhash=%016x",
		n, dur.Truncate(time.Millisecond), w, h, m.State(), hash)

	if pngPath != "" {
		if err := m.SaveScreenshot(pngPath, 1); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Printf("wrote %s", pngPath)
	}
	if runErr != nil {
		return runErr
	}

	if expect != "" {
		want := strings.TrimPrefix(strings.ToLower(expect), "0x")
		got := fmt.Sprintf("%016x", hash)
		if got != want {
			return fmt.Errorf("frame hash mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

// runWeb drives the machine in real time and serves it until interrupted.
func runWeb(m *emu.Machine, addr string, origins []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	srv := web.NewServer(m, origins...)
	g.Go(func() error { return srv.ListenAndServe(ctx, addr) })
	g.Go(func() error {
		err := m.Run(ctx)
		if err == nil && m.State() == cpu.Halted {
			// program exited; take the server down too
			return errHalted
		}
		return err
	})
	if err := g.Wait(); err != nil && !errors.Is(err, errHalted) {
		return err
	}
	return nil
}

var errHalted = errors.New("program exited")

func main() {
	f := parseFlags()
	if f.Version {
		fmt.Printf("chip8emu version: %s\n", buildinfo.Version(version, commit, date))
		return
	}

	emuCfg := emu.Config{
		Trace:       f.Trace,
		IPS:         f.IPS,
		Mode:        f.Mode,
		Permissive:  !f.Strict,
		Profile:     f.Profile,
		WrapSprites: f.Wrap,
	}
	m, err := emu.New(emuCfg)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if f.ROMPath != "" {
		if err := m.LoadROMFile(f.ROMPath); err != nil {
			log.Fatalf("load rom: %v", err)
		}
		r := m.ROM()
		log.Printf("ROM: %q size=%dB xxhash=%s mode=%s", r.Name, len(r.Data), r.Fingerprint(), m.Mode())
	}

	switch {
	case f.Headless:
		if f.ROMPath == "" {
			log.Fatal("-headless needs a ROM")
		}
		if err := runHeadless(m, f.Frames, f.PNGOut, f.Expect); err != nil {
			log.Fatal(err)
		}
	case f.Web != "":
		if f.ROMPath == "" {
			log.Fatal("-web needs a ROM")
		}
		var origins []string
		for _, o := range strings.Split(f.WebOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if err := runWeb(m, f.Web, origins); err != nil {
			log.Fatal(err)
		}
	default:
		uiCfg := ui.Config{Title: f.Title, Scale: f.Scale, ROMsDir: f.ROMsDir, Muted: f.Muted}
		app := ui.NewApp(uiCfg, m)
		if err := app.Run(); err != nil {
			log.Fatal(err)
		}
	}
}
