package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/nektos/stackscope/pkg/common"
)

const (
	red     = 31
	green   = 32
	yellow  = 33
	blue    = 34
	magenta = 35
	cyan    = 36
	gray    = 37
)

var (
	colors    = []int{cyan, magenta, green, yellow, blue, red}
	nextColor int
	mux       sync.Mutex
)

// ProgramLoggerFactory builds the logger used for one program run
type ProgramLoggerFactory interface {
	WithProgramLogger() *logrus.Logger
}

type programLoggerFactoryContextKey string

var programLoggerFactoryContextKeyVal = (programLoggerFactoryContextKey)("programloggerkey")

// WithProgramLoggerFactory replaces the default per-program logger
func WithProgramLoggerFactory(ctx context.Context, factory ProgramLoggerFactory) context.Context {
	return context.WithValue(ctx, programLoggerFactoryContextKeyVal, factory)
}

// WithProgramLogger attaches a new logger to context that prefixes every line
// with the program name
func WithProgramLogger(ctx context.Context, programName string, runID string, config *Config) context.Context {
	var logger *logrus.Logger
	if factory, ok := ctx.Value(programLoggerFactoryContextKeyVal).(ProgramLoggerFactory); ok && factory != nil {
		logger = factory.WithProgramLogger()
	} else {
		var formatter logrus.Formatter
		if config.JSONLogger {
			formatter = &logrus.JSONFormatter{}
		} else {
			mux.Lock()
			nextColor++
			formatter = &programLogFormatter{
				color: colors[nextColor%len(colors)],
			}
			mux.Unlock()
		}

		logger = logrus.New()
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.GetLevel())
		logger.SetFormatter(formatter)
	}

	rtn := logger.WithFields(logrus.Fields{
		"program": programName,
		"runID":   runID,
		"dryrun":  common.Dryrun(ctx),
	}).WithContext(ctx)

	return common.WithLogger(ctx, rtn)
}

type programLogFormatter struct {
	color int
}

func (f *programLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := &bytes.Buffer{}
	colored := f.isColored(entry)
	paint := func(code int, s string) string {
		if !colored {
			return s
		}
		return fmt.Sprintf("\x1b[%dm%s\x1b[0m", code, s)
	}

	name := fmt.Sprintf("[%v]", entry.Data["program"])
	msg := strings.TrimSuffix(entry.Message, "\n")

	switch {
	case entry.Data["raw_output"] == true:
		// program output
		fmt.Fprintf(b, "%s   %s %s", paint(f.color, name), paint(f.color, "|"), msg)
	default:
		if entry.Data["dryrun"] == true {
			b.WriteString(paint(gray, "*DRYRUN*") + " ")
		}
		b.WriteString(paint(f.color, name) + " ")
		if entry.Level == logrus.DebugLevel {
			b.WriteString("[DEBUG] ")
		}
		b.WriteString(msg)
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (f *programLogFormatter) isColored(entry *logrus.Entry) bool {
	if force, ok := os.LookupEnv("CLICOLOR_FORCE"); ok {
		return force != "0"
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	return checkIfTerminal(entry.Logger.Out)
}

func checkIfTerminal(w io.Writer) bool {
	if v, ok := w.(*os.File); ok {
		return term.IsTerminal(int(v.Fd()))
	}
	return false
}
