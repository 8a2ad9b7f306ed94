package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/vanderheijden86/rerungrid/pkg/debug"
)

// maxSummaryStderr caps the stderr excerpt printed per failed hook.
const maxSummaryStderr = 200

// HookResult records one hook execution.
type HookResult struct {
	Hook     Hook
	Phase    HookPhase
	Success  bool
	Stdout   string
	Stderr   string
	Duration time.Duration
	Error    error
}

// Executor runs configured hooks with the export context in their environment.
type Executor struct {
	config  *Config
	context ExportContext
	results []HookResult
}

// NewExecutor creates an executor for config. A nil config runs nothing.
func NewExecutor(config *Config, ctx ExportContext) *Executor {
	if config == nil {
		config = &Config{}
	}
	return &Executor{config: config, context: ctx}
}

// RunPreExport runs pre-export hooks in order. The first failing hook with
// on_error=fail stops the run and its error is returned.
func (e *Executor) RunPreExport() error {
	return e.runPhase(PreExport, e.config.Hooks.PreExport)
}

// RunPostExport runs every post-export hook. A failing hook with
// on_error=fail makes the run return an error, but later hooks still run.
func (e *Executor) RunPostExport() error {
	var firstErr error
	for _, hook := range e.config.Hooks.PostExport {
		res := e.runHook(PostExport, hook)
		if !res.Success && hook.OnError == "fail" && firstErr == nil {
			firstErr = fmt.Errorf("post-export hook %q failed: %w", hook.Name, res.Error)
		}
	}
	return firstErr
}

func (e *Executor) runPhase(phase HookPhase, hooks []Hook) error {
	for _, hook := range hooks {
		res := e.runHook(phase, hook)
		if !res.Success && hook.OnError != "continue" {
			return fmt.Errorf("%s hook %q failed: %w", phase, hook.Name, res.Error)
		}
	}
	return nil
}

func (e *Executor) runHook(phase HookPhase, hook Hook) HookResult {
	timeout := hook.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", hook.Command)
	cmd.WaitDelay = time.Second
	cmd.Env = append(os.Environ(), e.context.ToEnv()...)
	for k, v := range hook.Env {
		cmd.Env = append(cmd.Env, k+"="+os.ExpandEnv(v))
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := HookResult{
		Hook:     hook,
		Phase:    phase,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("timed out after %v", timeout)
	}
	res.Error = err
	res.Success = err == nil

	debug.Log("hook %s/%s success=%v duration=%v", phase, hook.Name, res.Success, res.Duration)
	e.results = append(e.results, res)
	return res
}

// Results returns every hook result in execution order.
func (e *Executor) Results() []HookResult {
	return e.results
}

// Summary renders a short report of all runs, with a stderr excerpt for
// each failure.
func (e *Executor) Summary() string {
	if len(e.results) == 0 {
		return ""
	}
	var ok, failed int
	var b strings.Builder
	for _, r := range e.results {
		if r.Success {
			ok++
			continue
		}
		failed++
		fmt.Fprintf(&b, "  %s %s: %v\n", r.Phase, r.Hook.Name, r.Error)
		if r.Stderr != "" {
			fmt.Fprintf(&b, "    stderr: %s\n", truncate(r.Stderr, maxSummaryStderr))
		}
	}
	return fmt.Sprintf("Hooks: %d succeeded, %d failed\n", ok, failed) + b.String()
}

// RunHooks loads hooks from projectDir and returns an executor ready to run
// them. It returns nil when noHooks is set or nothing is configured.
func RunHooks(projectDir string, ctx ExportContext, noHooks bool) (*Executor, error) {
	if noHooks {
		return nil, nil
	}
	loader := NewLoader(WithProjectDir(projectDir))
	if err := loader.Load(); err != nil {
		return nil, err
	}
	for _, w := range loader.Warnings() {
		debug.Log("hooks: %s", w)
	}
	if !loader.HasHooks() {
		return nil, nil
	}
	return NewExecutor(loader.Config(), ctx), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
