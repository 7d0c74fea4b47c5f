package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/nektos/stackscope/pkg/runner"
	"github.com/nektos/stackscope/pkg/runtime"
)

// Input contains the input for the root command
type Input struct {
	workdir     string
	programPath string
	configFile  string
	envFile     string
	verbose     bool
	jsonLogger  bool
	dryrun      bool
	listOptions bool
	graph       bool
	watch       bool
	pick        bool
	keepGoing   bool
	noStore     bool
	trace       string
	maxDepth    int
	thisMode    string
	stepBudget  int
	timeout     time.Duration
	parallel    int
	storePath   string
	storeCodec  string
	serverAddr  string
}

func (i *Input) resolve(path string) string {
	basedir, err := filepath.Abs(i.workdir)
	if err != nil {
		log.Fatal(err)
	}
	if path == "" {
		return path
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(basedir, path)
	}
	return path
}

// Workdir returns path to workdir
func (i *Input) Workdir() string {
	return i.resolve(".")
}

// ConfigFile returns the path to the TOML config, the user config when none was given
func (i *Input) ConfigFile() string {
	if i.configFile != "" {
		return i.resolve(i.configFile)
	}
	return defaultConfigFile()
}

// EnvFile returns the path to the dotenv file
func (i *Input) EnvFile() string {
	return i.resolve(i.envFile)
}

func addEngineFlags(flags *pflag.FlagSet, input *Input) {
	flags.IntVar(&input.maxDepth, "max-depth", 0, fmt.Sprintf("maximum call stack depth, global context included (default %d)", runtime.DefaultMaxDepth))
	flags.StringVar(&input.thisMode, "this-mode", "", "value of this in plain calls: undefined or global (default undefined)")
	flags.IntVar(&input.stepBudget, "step-budget", 0, "abort a run after this many statements, 0 for unlimited")
	flags.DurationVar(&input.timeout, "timeout", 0, "abort a run after this long, 0 for unlimited")
}

func addStoreFlags(flags *pflag.FlagSet, input *Input) {
	flags.StringVar(&input.storePath, "store", "", "path to the run history database (default "+runner.DefaultStorePath()+")")
	flags.StringVar(&input.storeCodec, "store-codec", "", "record encoding in the run history: json or cbor (default json)")
}

// newConfig layers the flags given on the command line over the config file
// and environment. Empty flags keep the lower layers.
func (i *Input) newConfig() (*runner.Config, error) {
	config, err := runner.LoadConfig(runner.LoadOptions{
		File:    i.ConfigFile(),
		EnvFile: i.EnvFile(),
	})
	if err != nil {
		return nil, err
	}

	overrides := &runner.Config{
		Engine: runtime.Config{
			MaxDepth:   i.maxDepth,
			ThisMode:   runtime.ThisMode(i.thisMode),
			StepBudget: i.stepBudget,
			Timeout:    i.timeout,
		},
		ProgramPath: i.programPath,
		Trace:       i.trace,
		StorePath:   i.storePath,
		StoreCodec:  i.storeCodec,
		Parallel:    i.parallel,
		ServerAddr:  i.serverAddr,
	}
	if err := runner.Merge(config, overrides); err != nil {
		return nil, err
	}

	config.Workdir = i.Workdir()
	config.JSONLogger = config.JSONLogger || i.jsonLogger
	config.DryRun = config.DryRun || i.dryrun
	config.KeepGoing = config.KeepGoing || i.keepGoing
	config.NoStore = config.NoStore || i.noStore
	if !filepath.IsAbs(config.StorePath) {
		config.StorePath = i.resolve(config.StorePath)
	}

	return config, config.Validate()
}
