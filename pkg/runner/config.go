package runner

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/nektos/stackscope/pkg/model"
	"github.com/nektos/stackscope/pkg/render"
	"github.com/nektos/stackscope/pkg/runtime"
)

// EnvPrefix prefixes every environment variable read by LoadConfig
const EnvPrefix = "STACKSCOPE_"

// Config contains the config for a new runner
type Config struct {
	Engine      runtime.Config `toml:"engine"`      // interpreter settings shared by every program
	Workdir     string         `toml:"workdir"`     // path to working directory
	ProgramPath string         `toml:"programs"`    // program file or directory, relative to Workdir
	JSONLogger  bool           `toml:"json_logger"` // use json or text logger
	Trace       string         `toml:"trace"`       // trace rendering after each run: none, events or stack
	StorePath   string         `toml:"store_path"`  // bolt database holding run history
	StoreCodec  string         `toml:"store_codec"` // json or cbor
	NoStore     bool           `toml:"no_store"`    // do not persist runs
	Parallel    int            `toml:"parallel"`    // programs run at the same time
	KeepGoing   bool           `toml:"keep_going"`  // a failed program does not cancel the others
	DryRun      bool           `toml:"dry_run"`     // only run the global hoisting pass
	ServerAddr  string         `toml:"server_addr"` // listen address of the HTTP API
}

// DefaultStorePath is the run history location under the XDG data directory
func DefaultStorePath() string {
	return filepath.Join(xdg.DataHome, "stackscope", "runs.db")
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	return &Config{
		Engine: runtime.Config{
			MaxDepth: runtime.DefaultMaxDepth,
			ThisMode: runtime.ThisUndefined,
		},
		Workdir:     ".",
		ProgramPath: "programs",
		Trace:       string(render.ModeNone),
		StorePath:   DefaultStorePath(),
		StoreCodec:  "json",
		Parallel:    1,
		ServerAddr:  ":8080",
	}
}

// LoadOptions names the optional configuration sources
type LoadOptions struct {
	File    string // TOML file
	EnvFile string // dotenv file with STACKSCOPE_* variables
}

// LoadConfig layers defaults, the TOML file and the environment, each
// overriding the non-empty settings of the previous one
func LoadConfig(opts LoadOptions) (*Config, error) {
	cfg := DefaultConfig()

	if opts.File != "" {
		fileCfg := Config{}
		if _, err := toml.DecodeFile(opts.File, &fileCfg); err != nil {
			return nil, errors.Wrapf(err, "unable to read config file %s", opts.File)
		}
		if err := Merge(cfg, &fileCfg); err != nil {
			return nil, err
		}
	}

	env, err := readEnv(opts.EnvFile)
	if err != nil {
		return nil, err
	}
	envCfg, err := configFromEnv(env)
	if err != nil {
		return nil, err
	}
	if err := Merge(cfg, envCfg); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// Merge overrides dst with every non-empty setting of src
func Merge(dst, src *Config) error {
	if err := mergo.Merge(dst, src, mergo.WithOverride); err != nil {
		return errors.Wrap(err, "unable to merge config")
	}
	return nil
}

// readEnv returns STACKSCOPE_* variables from the dotenv file, overridden by
// the process environment
func readEnv(envFile string) (map[string]string, error) {
	env := map[string]string{}
	if envFile != "" {
		fileEnv, err := godotenv.Read(envFile)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read env file %s", envFile)
		}
		for k, v := range fileEnv {
			if strings.HasPrefix(k, EnvPrefix) {
				env[k] = v
			}
		}
	}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}
	return env, nil
}

func configFromEnv(env map[string]string) (*Config, error) {
	cfg := &Config{}
	var err error
	for k, v := range env {
		switch strings.TrimPrefix(k, EnvPrefix) {
		case "MAX_DEPTH":
			cfg.Engine.MaxDepth, err = strconv.Atoi(v)
		case "THIS_MODE":
			cfg.Engine.ThisMode = runtime.ThisMode(v)
		case "STEP_BUDGET":
			cfg.Engine.StepBudget, err = strconv.Atoi(v)
		case "TIMEOUT":
			cfg.Engine.Timeout, err = time.ParseDuration(v)
		case "WORKDIR":
			cfg.Workdir = v
		case "PROGRAMS":
			cfg.ProgramPath = v
		case "JSON":
			cfg.JSONLogger, err = strconv.ParseBool(v)
		case "TRACE":
			cfg.Trace = v
		case "STORE":
			cfg.StorePath = v
		case "STORE_CODEC":
			cfg.StoreCodec = v
		case "NO_STORE":
			cfg.NoStore, err = strconv.ParseBool(v)
		case "PARALLEL":
			cfg.Parallel, err = strconv.Atoi(v)
		case "KEEP_GOING":
			cfg.KeepGoing, err = strconv.ParseBool(v)
		case "ADDR":
			cfg.ServerAddr = v
		}
		if err != nil {
			return nil, errors.Wrapf(err, "invalid value for %s", k)
		}
	}
	return cfg, nil
}

// Validate checks settings that cannot be checked by type alone
func (config *Config) Validate() error {
	if _, err := render.ParseMode(config.Trace); err != nil {
		return err
	}
	switch config.StoreCodec {
	case "", "json", "cbor":
	default:
		return errors.Errorf("store codec must be json or cbor, got %q", config.StoreCodec)
	}
	switch config.Engine.ThisMode {
	case "", runtime.ThisUndefined, runtime.ThisGlobal:
	default:
		return errors.Errorf("this mode must be undefined or global, got %q", config.Engine.ThisMode)
	}
	if config.Engine.MaxDepth < 0 || config.Engine.StepBudget < 0 || config.Parallel < 0 {
		return errors.New("max depth, step budget and parallel must not be negative")
	}
	return nil
}

// EngineConfig returns the interpreter settings for one program, applying
// the program's own overrides
func (config *Config) EngineConfig(program *model.Program) runtime.Config {
	cfg := config.Engine
	if program.MaxDepth > 0 {
		cfg.MaxDepth = program.MaxDepth
	}
	if program.ThisMode != "" {
		cfg.ThisMode = runtime.ThisMode(program.ThisMode)
	}
	cfg.HoistOnly = config.DryRun
	return cfg
}

// ProgramsPath resolves ProgramPath against Workdir
func (config *Config) ProgramsPath() string {
	if filepath.IsAbs(config.ProgramPath) || config.Workdir == "" {
		return config.ProgramPath
	}
	return filepath.Join(config.Workdir, config.ProgramPath)
}
