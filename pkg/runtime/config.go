package runtime

import (
	"time"
)

// DefaultMaxDepth is the stack limit used when none is configured
const DefaultMaxDepth = 10000

// ThisMode decides `this` for plain (non-method) calls
type ThisMode string

const (
	ThisUndefined ThisMode = "undefined"
	ThisGlobal    ThisMode = "global"
)

// Config controls a single interpreter
type Config struct {
	MaxDepth   int           `toml:"max_depth"`   // maximum call stack depth, global context included
	ThisMode   ThisMode      `toml:"this_mode"`   // `this` for plain calls
	StepBudget int           `toml:"step_budget"` // statements executed before the run is aborted, 0 for unlimited
	Timeout    time.Duration `toml:"timeout"`     // wall clock limit, 0 for unlimited
	HoistOnly  bool          `toml:"-"`           // stop after the global hoisting pass
}

func (c Config) withDefaults() Config {
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.ThisMode == "" {
		c.ThisMode = ThisUndefined
	}
	return c
}
