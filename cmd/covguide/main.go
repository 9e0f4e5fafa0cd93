// covguide - coverage-guided, generator-based fuzzing engine
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"

	"github.com/neu-se/covguide/internal/config"
	"github.com/neu-se/covguide/internal/dedupe"
	"github.com/neu-se/covguide/internal/guidance"
	"github.com/neu-se/covguide/internal/harnessdemo"
	"github.com/neu-se/covguide/internal/persist"
	"github.com/neu-se/covguide/internal/trace"
	"github.com/neu-se/covguide/internal/ui"
	"github.com/neu-se/covguide/internal/web"
	pguidance "github.com/neu-se/covguide/pkg/guidance"
)

var version = "0.1.0-dev"

var (
	configFile  string
	outputDir   string
	seedDir     string
	overrides   []string
	demoTarget  string
	webEnabled  bool
	webAddr     string
	noTUI       bool
	verboseFlag int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "covguide",
		Short: "coverage-guided, generator-based fuzzing engine",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the guidance loop against a target until its wall-clock budget is spent",
		RunE:  runRun,
	}
	runCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to a YAML option file (defaults applied for any field it omits)")
	runCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (overrides config's output_dir)")
	runCmd.Flags().StringVar(&seedDir, "seed-dir", "", "directory of seed files (overrides config's seed_dir)")
	runCmd.Flags().StringArrayVar(&overrides, "set", nil, `JSON-fragment option override, e.g. --set '{"steal_responsibility":true}'`)
	runCmd.Flags().StringVar(&demoTarget, "demo-target", "firstbyte", "bundled example target to fuzz: firstbyte, parity, or spin")
	runCmd.Flags().BoolVar(&webEnabled, "web", false, "also serve a read-only JSON/websocket stats feed")
	runCmd.Flags().StringVar(&webAddr, "web-addr", ":9090", "address for the stats feed")
	runCmd.Flags().BoolVar(&noTUI, "no-tui", false, "run headless instead of showing the terminal dashboard")
	runCmd.Flags().IntVarP(&verboseFlag, "verbose", "v", 0, "log verbosity threshold")
	rootCmd.AddCommand(runCmd)

	replayCmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "execute a single saved input against a bundled example target and print its outcome",
		Args:  cobra.ExactArgs(1),
		RunE:  runReplay,
	}
	replayCmd.Flags().StringVar(&demoTarget, "demo-target", "firstbyte", "bundled example target to replay against: firstbyte, parity, or spin")
	rootCmd.AddCommand(replayCmd)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "print the most recent stats line recorded in an output directory's plot_data",
		RunE:  runStats,
	}
	statsCmd.Flags().StringVarP(&outputDir, "output", "o", "./covguide-out", "output directory to read plot_data from")
	rootCmd.AddCommand(statsCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("covguide %s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if seedDir != "" {
		cfg.SeedDir = seedDir
	}
	cfg.Verbose = verboseFlag

	for _, fragment := range overrides {
		config.ApplyOverride(cfg, fragment)
	}
	return cfg, nil
}

// buildDemoTarget wires a bundled harnessdemo target to emit.
func buildDemoTarget(name string, emit trace.Callback) (pguidance.Executor, error) {
	switch name {
	case "firstbyte":
		return harnessdemo.NewFirstByteTarget(emit), nil
	case "parity":
		return harnessdemo.NewParityTarget(emit), nil
	case "spin":
		return harnessdemo.NewSpinTarget(emit, 1000), nil
	default:
		return nil, fmt.Errorf("unknown demo target %q (want firstbyte, parity, or spin)", name)
	}
}

func loadSeeds(f *guidance.Fuzzer, dir string) error {
	if dir == "" {
		f.AddSeed([]byte{0})
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read seed dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("read seed %s: %w", e.Name(), err)
		}
		f.AddSeed(data)
	}
	return nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	store, err := persist.Open(cfg.OutputDir)
	if err != nil {
		return err
	}
	dupFilter := dedupe.DefaultFilter()
	logger := guidance.NewLogger(cfg.Verbose)

	f := guidance.New(cfg.ToGuidanceConfig(), store, dupFilter, logger)
	if err := loadSeeds(f, cfg.SeedDir); err != nil {
		return err
	}

	target, err := buildDemoTarget(demoTarget, f.GenerateCallback(1))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Dashboard pushes run on a small bounded goroutine pool so a slow
	// websocket write never stalls the single fuzzing goroutine.
	broadcastPool, err := ants.NewPool(8, ants.WithPreAlloc(true), ants.WithMaxBlockingTasks(64))
	if err != nil {
		return fmt.Errorf("start broadcast pool: %w", err)
	}
	defer broadcastPool.Release()

	var server *web.Server
	if webEnabled {
		server = web.NewServer(f.Stats(), 20)
		go func() {
			if err := server.Start(webAddr); err != nil {
				logger.Logf(0, "stats server: %v", err)
			}
		}()
		defer server.Stop()

		stop := make(chan struct{})
		defer close(stop)
		go func() {
			ticker := time.NewTicker(guidance.StatsRefreshPeriod)
			defer ticker.Stop()
			for {
				select {
				case <-stop:
					return
				case <-ticker.C:
					broadcastPool.Submit(server.BroadcastStats)
				}
			}
		}()
	}

	if noTUI {
		fmt.Printf("covguide: fuzzing %s, output in %s\n", demoTarget, cfg.OutputDir)
		err := f.Run(ctx, target)
		fmt.Printf("covguide: stopped after %d trials, %d unique failures\n",
			f.Stats().Snapshot().Trials, f.Stats().Snapshot().UniqueFailures)
		return err
	}

	dashboard := ui.NewDashboard(f.Stats(), cfg.MaxDuration)
	dashboard.Start()
	dashboard.AddLog("INFO", fmt.Sprintf("fuzzing %s, output in %s", demoTarget, cfg.OutputDir))

	runErrCh := make(chan error, 1)
	go func() { runErrCh <- f.Run(ctx, target) }()

	if err := ui.Run(dashboard); err != nil {
		return err
	}
	cancel()
	return <-runErrCh
}

func runReplay(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	var events []trace.Event
	target, err := buildDemoTarget(demoTarget, func(ev trace.Event) { events = append(events, ev) })
	if err != nil {
		return err
	}

	outcome, runErr := target.Execute(&fileStream{data: data})
	fmt.Printf("outcome: %s\n", outcome)
	if runErr != nil {
		fmt.Printf("error: %v\n", runErr)
	}
	fmt.Printf("events: %d\n", len(events))
	return nil
}

// fileStream adapts a byte slice read from disk to pkg/guidance.ByteStream
// for replay, padding with EOF once exhausted.
type fileStream struct {
	data []byte
	pos  int
}

func (s *fileStream) NextByte() (int, error) {
	if s.pos >= len(s.data) {
		return pguidance.EOF, nil
	}
	b := s.data[s.pos]
	s.pos++
	return int(b), nil
}

func runStats(cmd *cobra.Command, args []string) error {
	path := filepath.Join(outputDir, "plot_data")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 0 || lines[0] == "" {
		fmt.Println("no stats recorded yet")
		return nil
	}
	fmt.Println("unix_seconds, cycles_done, cur_parent_idx, queue_size, 0, 0, unique_failures, 0, 0, execs_per_sec, valid, invalid")
	fmt.Println(lines[len(lines)-1])
	return nil
}
