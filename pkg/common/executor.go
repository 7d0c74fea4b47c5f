package common

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Warning that implements `error` but safe to ignore
type Warning struct {
	Message string
}

// Error the contract for error
func (w Warning) Error() string {
	return w.Message
}

// Warningf create a warning
func Warningf(format string, args ...interface{}) Warning {
	return Warning{
		Message: fmt.Sprintf(format, args...),
	}
}

// CancelledError marks a program that never ran because an earlier one failed
type CancelledError struct {
	Err error
}

func (e CancelledError) Error() string {
	return "program cancelled after earlier failure"
}

func (e CancelledError) Unwrap() error {
	return e.Err
}

// Executor is one unit of work, usually a single program run
type Executor func(ctx context.Context) error

// Conditional define contract for the conditional predicate
type Conditional func(ctx context.Context) bool

// NewInfoExecutor is an executor that logs messages
func NewInfoExecutor(format string, args ...interface{}) Executor {
	return func(ctx context.Context) error {
		Logger(ctx).Infof(format, args...)
		return nil
	}
}

// NewDebugExecutor is an executor that logs messages
func NewDebugExecutor(format string, args ...interface{}) Executor {
	return func(ctx context.Context) error {
		Logger(ctx).Debugf(format, args...)
		return nil
	}
}

// NewPipelineExecutor creates a new executor from a series of other executors
func NewPipelineExecutor(executors ...Executor) Executor {
	if len(executors) == 0 {
		return func(_ context.Context) error {
			return nil
		}
	}
	var rtn Executor
	for _, executor := range executors {
		if rtn == nil {
			rtn = executor
		} else {
			rtn = rtn.Then(executor)
		}
	}
	return rtn
}

// NewErrorExecutor creates a new executor that always errors out
func NewErrorExecutor(err error) Executor {
	return func(_ context.Context) error {
		return err
	}
}

// NewParallelExecutor runs executors on at most `parallel` workers. Unless
// the context carries keep-going, the first real failure stops queued work
// and the remaining executors report CancelledError.
func NewParallelExecutor(parallel int, executors ...Executor) Executor {
	return func(ctx context.Context) error {
		workCtx, cancelWork := context.WithCancel(ctx)
		defer cancelWork()
		keepGoing := KeepGoing(ctx)

		work := make(chan Executor, len(executors))
		errs := make(chan error, len(executors))

		if 1 > parallel {
			log.Debugf("Parallel tasks (%d) below minimum, setting to 1", parallel)
			parallel = 1
		}

		for i := 0; i < parallel; i++ {
			go func(work <-chan Executor, errs chan<- error) {
				for executor := range work {
					if !keepGoing && workCtx.Err() != nil {
						errs <- CancelledError{Err: workCtx.Err()}
						continue
					}
					err := executor(workCtx)
					if err != nil && !keepGoing && !isWarning(err) {
						cancelWork()
					}
					errs <- err
				}
			}(work, errs)
		}

		for i := 0; i < len(executors); i++ {
			work <- executors[i]
		}
		close(work)

		var errList []error
		var cancelled error
		for i := 0; i < len(executors); i++ {
			err := <-errs
			if err == nil {
				continue
			}
			var ce CancelledError
			switch {
			case isWarning(err):
				Logger(ctx).Warning(err.Error())
			case errors.As(err, &ce):
				if cancelled == nil {
					cancelled = err
				}
			default:
				errList = append(errList, err)
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		if len(errList) == 0 {
			return cancelled
		}
		return errors.Join(errList...)
	}
}

func isWarning(err error) bool {
	return errors.As(err, new(Warning))
}

// NewFieldExecutor runs exec with an extra field on the context logger
func NewFieldExecutor(name string, value interface{}, exec Executor) Executor {
	return func(ctx context.Context) error {
		return exec(WithLogger(ctx, Logger(ctx).WithField(name, value)))
	}
}

// Then runs another executor if this executor succeeds
func (e Executor) Then(then Executor) Executor {
	return func(ctx context.Context) error {
		err := e(ctx)
		if err != nil {
			switch err.(type) {
			case Warning:
				Logger(ctx).Warning(err.Error())
			default:
				return err
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return then(ctx)
	}
}

// If only runs this executor if conditional is true
func (e Executor) If(conditional Conditional) Executor {
	return func(ctx context.Context) error {
		if conditional(ctx) {
			return e(ctx)
		}
		return nil
	}
}

// IfBool only runs this executor if conditional is true
func (e Executor) IfBool(conditional bool) Executor {
	return e.If(func(_ context.Context) bool {
		return conditional
	})
}

// Finally adds an executor to run after other executor
func (e Executor) Finally(finally Executor) Executor {
	return func(ctx context.Context) error {
		err := e(ctx)
		err2 := finally(ctx)
		if err2 != nil {
			return fmt.Errorf("Error occurred running finally: %v (original error: %v)", err2, err)
		}
		return err
	}
}
