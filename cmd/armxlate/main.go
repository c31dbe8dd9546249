// Package main provides the command line interface for armxlate.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/armxlate/cache"
	"github.com/sarchlab/armxlate/config"
	"github.com/sarchlab/armxlate/loader"
	"github.com/sarchlab/armxlate/xlate"
)

var (
	configPath = flag.String("config", "", "Path to configuration file (JSON or YAML)")
	policyName = flag.String("policy", "", "Memory policy override: direct or table")
	thumb      = flag.Bool("thumb", false, "Treat a raw image entry as Thumb code")
	baseAddr   = flag.String("base", "0x8000", "Load address of a raw image")
	raw        = flag.Bool("raw", false, "Treat the input as a flat code image instead of ELF")
	blocks     = flag.String("blocks", "", "Extra block starts, comma separated (bit 0 selects Thumb)")
	run        = flag.Bool("run", false, "Execute the entry block on the host emulator")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: armxlate [options] <program>\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel, *verbose)
	h := config.DetectHost()
	logger.Debug("host detected", "arch", h.Arch, "arm64", h.ARM64,
		"atomics", h.Atomics, "asimd", h.ASIMD)

	src, entry, err := openProgram(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	extra, err := parseStarts(*blocks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	bc := cache.New(cache.Config{Sets: cfg.CacheSets, Ways: cfg.CacheWays})
	t := xlate.New(src.code,
		xlate.WithConfig(cfg),
		xlate.WithLogger(logger),
		xlate.WithPublisher(bc))

	translated, err := t.TranslateMany(context.Background(), append([]xlate.Start{entry}, extra...))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Translation error: %v\n", err)
		os.Exit(1)
	}
	for _, b := range translated {
		printBlock(b)
	}

	exitCode := 0
	if *run {
		exitCode = runProgram(bc, src, entry, t.Policy(), cfg.PageShift, logger)
	}

	printStats(bc.Stats(), bc.Len())
	os.Exit(exitCode)
}

// loadConfig reads the optional config file, then applies the environment
// and the -policy flag on top.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if *policyName != "" {
		cfg.Policy = *policyName
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string, verbose bool) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	if verbose {
		l = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// guestProgram is the translator's view of the input plus, for ELF inputs,
// what is needed to execute it.
type guestProgram struct {
	code xlate.CodeSource
	elf  *loader.Program
	data []byte
	base uint32
}

func openProgram(path string) (*guestProgram, xlate.Start, error) {
	if *raw {
		base, err := parseAddr(*baseAddr)
		if err != nil {
			return nil, xlate.Start{}, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, xlate.Start{}, fmt.Errorf("failed to read image: %w", err)
		}
		p := &guestProgram{code: xlate.NewImage(base, data), data: data, base: base}
		return p, xlate.Start{PC: base, Thumb: *thumb}, nil
	}

	prog, err := loader.Load(path)
	if err != nil {
		return nil, xlate.Start{}, err
	}
	if *verbose {
		fmt.Printf("Loaded: %s\n", path)
		fmt.Printf("Entry point: 0x%x (thumb=%v)\n", prog.EntryPoint, prog.Thumb)
		fmt.Printf("Segments: %d\n", len(prog.Segments))
	}
	return &guestProgram{code: prog, elf: prog}, xlate.Start{PC: prog.EntryPoint, Thumb: prog.Thumb}, nil
}

func parseAddr(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return uint32(v), nil
}

// parseStarts turns "0x8000,0x8101" into block starts. An odd address
// selects Thumb state.
func parseStarts(s string) ([]xlate.Start, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var starts []xlate.Start
	for _, field := range strings.Split(s, ",") {
		addr, err := parseAddr(field)
		if err != nil {
			return nil, err
		}
		starts = append(starts, xlate.Start{PC: addr &^ 1, Thumb: addr&1 != 0})
	}
	return starts, nil
}

func printBlock(b *xlate.Block) {
	state := "arm"
	if b.Thumb {
		state = "thumb"
	}
	fmt.Printf("block 0x%08x-0x%08x (%s): %d guest, %d host instructions\n",
		b.GuestPC, b.End(), state, b.GuestInsts, len(b.Insts))
	fmt.Print(b.Listing())
	fmt.Printf("\n")
}

func printStats(s cache.Statistics, resident int) {
	fmt.Printf("Cache:\n")
	fmt.Printf("  Resident:      %d\n", resident)
	fmt.Printf("  Lookups:       %d\n", s.Lookups)
	fmt.Printf("  Hits:          %d\n", s.Hits)
	fmt.Printf("  Misses:        %d\n", s.Misses)
	fmt.Printf("  Publishes:     %d\n", s.Publishes)
	fmt.Printf("  Evictions:     %d\n", s.Evictions)
	fmt.Printf("  Invalidations: %d\n", s.Invalidations)
}
