package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/nektos/stackscope/pkg/common"
	"github.com/nektos/stackscope/pkg/model"
	"github.com/nektos/stackscope/pkg/render"
	"github.com/nektos/stackscope/pkg/runtime"
)

// Runner runs programs
type Runner interface {
	NewProgramExecutor(programs ...*model.Program) common.Executor
	RunProgram(ctx context.Context, program *model.Program) *runtime.Result
}

// Recorder persists finished runs
type Recorder interface {
	Record(ctx context.Context, program *model.Program, result *runtime.Result) error
}

// ProgramError reports a program that did not complete normally
type ProgramError struct {
	Program string
	Status  runtime.Status
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("program '%s' ended with %s", e.Program, e.Status)
}

// Option customizes a runner
type Option func(*runnerImpl)

// WithOutput sets where summaries and traces are rendered, os.Stdout by default
func WithOutput(w io.Writer) Option {
	return func(r *runnerImpl) {
		r.out = w
	}
}

// WithRecorder stores every finished run
func WithRecorder(rec Recorder) Option {
	return func(r *runnerImpl) {
		r.recorder = rec
	}
}

// WithResultHandler is called after each run, before the run is recorded
func WithResultHandler(fn func(*model.Program, *runtime.Result)) Option {
	return func(r *runnerImpl) {
		r.onResult = fn
	}
}

type runnerImpl struct {
	config   *Config
	mode     render.Mode
	out      io.Writer
	colored  bool
	recorder Recorder
	onResult func(*model.Program, *runtime.Result)
	outMu    sync.Mutex
}

// New creates a new Runner
func New(runnerConfig *Config, opts ...Option) (Runner, error) {
	if err := runnerConfig.Validate(); err != nil {
		return nil, err
	}
	mode, _ := render.ParseMode(runnerConfig.Trace)
	runner := &runnerImpl{
		config: runnerConfig,
		mode:   mode,
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(runner)
	}
	runner.colored = render.CheckIfColorable(runner.out)
	return runner, nil
}

func (runner *runnerImpl) NewProgramExecutor(programs ...*model.Program) common.Executor {
	maxNameLen := 0
	for _, p := range programs {
		if len(p.Name) > maxNameLen {
			maxNameLen = len(p.Name)
		}
	}

	executors := make([]common.Executor, 0, len(programs))
	for _, p := range programs {
		executors = append(executors, runner.newProgramExecutor(p, maxNameLen))
	}

	return func(ctx context.Context) error {
		ctx = common.WithDryrun(ctx, common.Dryrun(ctx) || runner.config.DryRun)
		ctx = common.WithKeepGoing(ctx, common.KeepGoing(ctx) || runner.config.KeepGoing)
		return common.NewParallelExecutor(runner.config.Parallel, executors...)(ctx)
	}
}

func (runner *runnerImpl) newProgramExecutor(program *model.Program, nameWidth int) common.Executor {
	return func(ctx context.Context) error {
		runID := uuid.New().String()
		ctx = runtime.WithRunID(ctx, runID)
		ctx = WithProgramLogger(ctx, fmt.Sprintf("%-*s", nameWidth, program.Name), runID, runner.config)

		var result *runtime.Result
		execute := func(ctx context.Context) error {
			result = runner.RunProgram(ctx, program)
			if err := runner.render(result); err != nil {
				common.Logger(ctx).Warnf("unable to render trace: %v", err)
			}
			return nil
		}
		notify := common.Executor(func(context.Context) error {
			runner.onResult(program, result)
			return nil
		}).IfBool(runner.onResult != nil)
		// runs even when the context was cancelled after the program started
		record := common.Executor(func(ctx context.Context) error {
			if result == nil {
				return nil
			}
			if err := runner.recorder.Record(ctx, program, result); err != nil {
				common.Logger(ctx).Warnf("unable to store run: %v", err)
			}
			return nil
		}).IfBool(runner.recorder != nil)
		report := func(ctx context.Context) error {
			logger := common.Logger(ctx)
			if result.Status.OK() {
				logger.Infof("\U0001F3C1 %s in %d steps (%s)", result.Status, result.Steps, result.Duration)
				return nil
			}
			logger.Errorf("❌ %s", result.Status)
			if common.KeepGoing(ctx) {
				return common.Warningf("program '%s' ended with %s", program.Name, result.Status)
			}
			return &ProgramError{Program: program.Name, Status: result.Status}
		}

		return common.NewPipelineExecutor(
			common.NewInfoExecutor("⭐ Run %s", program.Name),
			common.NewDebugExecutor("run id %s", runID),
			execute,
			notify,
		).Finally(record).Then(report)(ctx)
	}
}

// RunProgram runs one program with its engine overrides applied
func (runner *runnerImpl) RunProgram(ctx context.Context, program *model.Program) *runtime.Result {
	cfg := runner.config.EngineConfig(program)
	cfg.HoistOnly = cfg.HoistOnly || common.Dryrun(ctx)
	common.Logger(ctx).Debugf("max depth %d, this mode %s", cfg.MaxDepth, cfg.ThisMode)
	return runtime.NewInterpreter(cfg).Run(ctx, program.AST())
}

// render writes one run as a single block so parallel runs do not interleave
func (runner *runnerImpl) render(result *runtime.Result) error {
	if runner.mode == render.ModeNone {
		return nil
	}
	buf := new(bytes.Buffer)
	if err := render.Write(buf, render.FromResult(result), runner.mode, runner.colored); err != nil {
		return err
	}
	runner.outMu.Lock()
	defer runner.outMu.Unlock()
	_, err := io.Copy(runner.out, buf)
	return err
}
