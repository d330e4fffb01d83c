// Command sphterm runs the fluid solver in a terminal, drawing particles as
// density-shaded characters.
//
// Keys: space spawns a block, b a burst at the domain centre, r resets,
// p pauses, q or Esc quits.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph/config"
	"github.com/pthm-cable/sph/fluid"
)

func main() {
	configPath := flag.String("config", "", "Path to config YAML file (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config value)")
	workers := flag.Int("workers", -1, "Solver workers (-1 = config value, 0 = GOMAXPROCS)")
	stepsPerFrame := flag.Int("steps-per-frame", 8, "Solver steps per drawn frame")
	fps := flag.Int("fps", 30, "Frames per second")
	logPath := flag.String("log", "", "Write JSON logs to this file (empty = discard)")
	flag.Parse()

	logger, closeLog, err := openLogger(*logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := config.Init(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *seed != 0 {
		cfg.Seeding.Seed = *seed
	}
	if *workers >= 0 {
		cfg.Solver.Workers = *workers
	}

	if err := run(cfg, logger, max(*stepsPerFrame, 1), max(*fps, 1)); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func openLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewJSONHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(slog.NewJSONHandler(f, nil)), func() { f.Close() }, nil
}

func run(cfg *config.Config, logger *slog.Logger, stepsPerFrame, fps int) error {
	solver, err := fluid.New(cfg, fluid.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("creating solver: %w", err)
	}
	defer solver.Close()
	solver.Seed()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()
	screen.HideCursor()

	v := newView(screen, cfg.Domain.Width, cfg.Domain.Height)
	blockCenter, blockSize := solver.Params().DefaultBlock()
	domainCenter := r2.Vec{X: cfg.Domain.Width / 2, Y: cfg.Domain.Height / 2}

	eventChan := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var (
		positions []r2.Vec
		reports   []fluid.SpawnReport
		paused    bool
	)

	for {
		select {
		case ev := <-eventChan:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
				v.resize()
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
					return nil
				}
				if ev.Key() != tcell.KeyRune {
					break
				}
				switch ev.Rune() {
				case 'q':
					return nil
				case ' ':
					solver.RequestSpawn(blockCenter, blockSize)
				case 'b':
					solver.RequestBurst(domainCenter)
				case 'r':
					solver.RequestReset()
				case 'p':
					paused = !paused
				}
			}

		case <-ticker.C:
			if !paused {
				for i := 0; i < stepsPerFrame; i++ {
					if err := solver.Step(); err != nil {
						return fmt.Errorf("simulation stopped at tick %d: %w", solver.Tick(), err)
					}
				}
			}

			reports = solver.DrainReports(reports[:0])
			for _, r := range reports {
				if r.Err != nil {
					logger.Warn("spawn rejected", "kind", r.Kind, "tick", r.Tick, "error", r.Err)
				}
			}

			positions = solver.Positions(positions)
			status := fmt.Sprintf(" t=%.3fs  tick=%d  particles=%d/%d",
				solver.SimTime(), solver.Tick(), len(positions), solver.Cap())
			if paused {
				status += "  [paused]"
			}
			v.draw(positions, status)
			screen.Show()
		}
	}
}
