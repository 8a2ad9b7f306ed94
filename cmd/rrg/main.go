package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/vanderheijden86/rerungrid/internal/datasource"
	_ "github.com/vanderheijden86/rerungrid/internal/ttyguard"
	"github.com/vanderheijden86/rerungrid/pkg/config"
	"github.com/vanderheijden86/rerungrid/pkg/debug"
	"github.com/vanderheijden86/rerungrid/pkg/grid"
	"github.com/vanderheijden86/rerungrid/pkg/loader"
	"github.com/vanderheijden86/rerungrid/pkg/ui"
	"github.com/vanderheijden86/rerungrid/pkg/version"
	"github.com/vanderheijden86/rerungrid/pkg/watcher"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	records        string
	workflow       string
	configPath     string
	exclude        string
	robotExcluded  bool
	robotRows      bool
	robotMetrics   bool
	exportRequest  string
	exportSnapshot string
	yes            bool
	noHooks        bool
	version        bool
	cpuProfile     string
}

func (o options) headless() bool {
	return o.robotExcluded || o.robotRows || o.robotMetrics || o.exportRequest != "" || o.exportSnapshot != ""
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("rrg", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.records, "records", "", "Task records file (.json, .jsonl) or SQLite database (.db, .sqlite)")
	fs.StringVar(&o.workflow, "workflow", "", "Workflow id (overrides config and records envelope)")
	fs.StringVar(&o.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/rrg/config.yaml)")
	fs.StringVar(&o.exclude, "exclude", "", "Comma-separated task@date cells to uncheck before output")
	fs.BoolVar(&o.robotExcluded, "robot-excluded", false, "Print the rerun request as JSON and exit")
	fs.BoolVar(&o.robotRows, "robot-rows", false, "Print visible rows and their cells as JSON and exit")
	fs.BoolVar(&o.robotMetrics, "robot-metrics", false, "Print timing metrics as JSON and exit")
	fs.StringVar(&o.exportRequest, "export-request", "", "Write the rerun request to this path")
	fs.StringVar(&o.exportSnapshot, "export-snapshot", "", "Write an SVG or PNG grid snapshot to this path")
	fs.BoolVar(&o.yes, "yes", false, "Overwrite existing export files without asking")
	fs.BoolVar(&o.noHooks, "no-hooks", false, "Skip .rrg/hooks.yaml hooks around --export-request")
	fs.BoolVar(&o.version, "version", false, "Show version")
	fs.StringVar(&o.cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: rrg [options]")
		fmt.Fprintln(stderr, "\nSelect task-instances to leave out of a workflow rerun.")
		fs.PrintDefaults()
	}
	err := fs.Parse(args)
	return o, err
}

func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if o.version {
		fmt.Fprintf(stdout, "rrg %s\n", version.String())
		return 0
	}

	if o.cpuProfile != "" {
		f, err := os.Create(o.cpuProfile)
		if err != nil {
			fmt.Fprintf(stderr, "Could not create CPU profile: %v\n", err)
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(stderr, "Could not start CPU profile: %v\n", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	cfg, err := loadConfig(o.configPath)
	if err != nil {
		if o.configPath != "" {
			fmt.Fprintf(stderr, "Error loading config: %v\n", err)
			return 1
		}
		// Non-fatal: continue with defaults
		fmt.Fprintf(stderr, "Warning: %v\n", err)
		cfg = config.DefaultConfig()
	}

	source := o.records
	if source == "" {
		source = cfg.Source
	}
	if source == "" {
		fmt.Fprintln(stderr, "Error: no records source; pass --records or set source in the config")
		return 2
	}

	warn := func(msg string) { fmt.Fprintf(stderr, "Warning: %s\n", msg) }
	build := func() (*grid.Engine, error) {
		return buildEngine(context.Background(), source, o.workflow, cfg, warn)
	}

	engine, err := build()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if o.exclude != "" {
		if err := applyExcludes(engine, o.exclude); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
	}

	if o.headless() {
		if err := runHeadless(o, engine, stdout, stderr); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if f, ok := stdout.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		fmt.Fprintln(stderr, "Error: stdout is not a terminal; use --robot-excluded or --robot-rows for scripted use")
		return 2
	}

	opts := ui.Options{
		Columns:    cfg.Axis.Columns,
		LabelWidth: cfg.UI.LabelWidth,
		ShowDates:  cfg.UI.ShowDates,
		ExportDir:  cfg.ExportDir(),
		Reload:     build,
	}
	if cfg.Watch.Enabled {
		w, err := watcher.NewWatcher(source, watcher.WithDebounceDuration(cfg.Debounce()))
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			fmt.Fprintf(stderr, "Warning: live reload disabled: %v\n", err)
		} else {
			defer w.Stop()
			opts.Watcher = w
		}
	}

	if err := runTUIProgram(ui.NewModel(engine, opts)); err != nil {
		fmt.Fprintf(stderr, "Error running rrg: %v\n", err)
		return 1
	}
	return 0
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return config.DefaultConfig(), fmt.Errorf("config %s: %w", path, err)
		}
		return config.LoadFrom(path)
	}
	return config.Load()
}

// buildEngine loads the records and builds the engine. The workflow id is
// the flag, then the config, then the records envelope, then the file name.
func buildEngine(ctx context.Context, source, workflowFlag string, cfg config.Config, warn func(string)) (*grid.Engine, error) {
	ds, src, err := datasource.LoadPath(ctx, source, loader.ParseOptions{WarningHandler: warn})
	if err != nil {
		return nil, err
	}
	if ds.Skipped > 0 {
		debug.Log("skipped %d malformed entries in %s", ds.Skipped, src.Path)
	}

	workflowID := workflowFlag
	if workflowID == "" {
		workflowID = cfg.WorkflowID
	}
	if workflowID == "" {
		workflowID = ds.WorkflowID
	}
	if workflowID == "" {
		base := filepath.Base(src.Path)
		workflowID = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return grid.New(workflowID, ds.Tasks, grid.WithMinSpan(cfg.MinSpan()))
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set RRG_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("RRG_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}
				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
