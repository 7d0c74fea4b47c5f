package cmd

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/andreaskoch/go-fswatch"
	"github.com/kballard/go-shellquote"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nektos/stackscope/pkg/common"
	"github.com/nektos/stackscope/pkg/model"
	"github.com/nektos/stackscope/pkg/render"
	"github.com/nektos/stackscope/pkg/runner"
	"github.com/nektos/stackscope/pkg/store"
)

var exitFunc = os.Exit

// Execute is the entry point to running the CLI
func Execute(ctx context.Context, version string) {
	input := new(Input)
	rootCmd := createRootCommand(ctx, input, version)
	rootCmd.SetArgs(args())

	if err := rootCmd.Execute(); err != nil {
		exitFunc(1)
	}
}

func createRootCommand(ctx context.Context, input *Input, version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:              "stackscope [program name...]",
		Short:            "Run scope and call stack programs and trace how every name resolves.",
		Args:             cobra.ArbitraryArgs,
		RunE:             newRunCommand(ctx, input),
		PersistentPreRun: setup(input),
		Version:          version,
		SilenceUsage:     true,
	}
	rootCmd.Flags().BoolVarP(&input.listOptions, "list", "l", false, "list programs")
	rootCmd.Flags().BoolVarP(&input.graph, "graph", "g", false, "draw the call stack of each run")
	rootCmd.Flags().BoolVarP(&input.dryrun, "dryrun", "n", false, "validate programs and run only the global hoisting pass")
	rootCmd.Flags().BoolVarP(&input.watch, "watch", "w", false, "run again when a program file changes")
	rootCmd.Flags().BoolVar(&input.pick, "pick", false, "choose the programs to run interactively")
	rootCmd.Flags().BoolVar(&input.keepGoing, "keep-going", false, "a failed program does not cancel the others and the exit status stays 0")
	rootCmd.Flags().IntVarP(&input.parallel, "parallel", "p", 0, "number of programs run at the same time (default 1)")
	rootCmd.Flags().BoolVar(&input.noStore, "no-store", false, "do not save runs in the history")
	rootCmd.Flags().StringVar(&input.trace, "trace", "", "trace printed after each run: none, events or stack (default none)")
	addEngineFlags(rootCmd.Flags(), input)

	rootCmd.PersistentFlags().BoolVarP(&input.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&input.jsonLogger, "json", false, "output logs in json format")
	rootCmd.PersistentFlags().StringVarP(&input.programPath, "file", "f", "", "program file or directory of programs (default \"programs\")")
	rootCmd.PersistentFlags().StringVarP(&input.workdir, "directory", "C", ".", "working directory")
	rootCmd.PersistentFlags().StringVar(&input.configFile, "config", "", "TOML config file")
	rootCmd.PersistentFlags().StringVar(&input.envFile, "env-file", "", "dotenv file with STACKSCOPE_* settings")
	addStoreFlags(rootCmd.PersistentFlags(), input)

	rootCmd.AddCommand(newHistoryCommand(ctx, input))
	rootCmd.AddCommand(newServeCommand(ctx, input))
	return rootCmd
}

// args prepends the default arguments from rc files to the command line
func args() []string {
	args := make([]string, 0)
	for _, f := range configLocations() {
		args = append(args, readArgsFile(f)...)
	}
	return append(args, os.Args[1:]...)
}

func readArgsFile(file string) []string {
	args := make([]string, 0)
	f, err := os.Open(file)
	if err != nil {
		return args
	}
	defer func() {
		err := f.Close()
		if err != nil {
			log.Errorf("Failed to close args file: %v", err)
		}
	}()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts, err := shellquote.Split(os.ExpandEnv(line))
		if err != nil {
			log.Warnf("Ignoring line of %s: %v", file, err)
			continue
		}
		args = append(args, parts...)
	}
	return args
}

func setup(input *Input) func(*cobra.Command, []string) {
	return func(_ *cobra.Command, _ []string) {
		if input.verbose {
			log.SetLevel(log.DebugLevel)
		}
		if input.jsonLogger {
			log.SetFormatter(&log.JSONFormatter{})
		}
	}
}

func newRunCommand(ctx context.Context, input *Input) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		config, err := input.newConfig()
		if err != nil {
			return err
		}
		programsPath := config.ProgramsPath()

		programs, err := model.LoadPrograms(programsPath)
		if err != nil {
			return err
		}

		if input.listOptions {
			return printList(cmd.OutOrStdout(), programs)
		}

		names := args
		if input.pick && len(names) == 0 {
			if names, err = pickPrograms(programs); err != nil {
				return err
			}
		}
		if _, err := model.FilterPrograms(programs, names...); err != nil {
			return err
		}
		if len(programs) == 0 {
			return errors.Errorf("no programs found in %s", programsPath)
		}

		opts := []runner.Option{runner.WithOutput(cmd.OutOrStdout())}
		if input.graph {
			drawer := &graphDrawer{out: cmd.OutOrStdout(), colored: render.CheckIfColorable(cmd.OutOrStdout())}
			opts = append(opts, runner.WithResultHandler(drawer.draw))
		}
		if !config.NoStore && !config.DryRun {
			s, err := store.Open(config.StorePath, store.Options{Codec: store.Codec(config.StoreCodec)})
			if err != nil {
				return err
			}
			opts = append(opts, runner.WithRecorder(s))
		}
		r, err := runner.New(config, opts...)
		if err != nil {
			return err
		}

		// programs are loaded again so a watched change is picked up
		executor := func(ctx context.Context) error {
			programs, err := model.LoadPrograms(programsPath)
			if err != nil {
				return err
			}
			selected, err := model.FilterPrograms(programs, names...)
			if err != nil {
				return err
			}
			return r.NewProgramExecutor(selected...)(ctx)
		}

		if input.watch {
			return watchAndRun(ctx, programsPath, executor)
		}
		return executor(ctx)
	}
}

func pickPrograms(programs []*model.Program) ([]string, error) {
	if !render.CheckIfTerminal(os.Stdin) {
		return nil, errors.New("--pick needs an interactive terminal")
	}
	names := model.ProgramNames(programs)
	answer := []string{}
	prompt := &survey.MultiSelect{
		Message: "Choose the programs to run:",
		Options: names,
		Default: names,
	}
	if err := survey.AskOne(prompt, &answer, survey.WithValidator(survey.Required)); err != nil {
		return nil, err
	}
	return answer, nil
}

func watchAndRun(ctx context.Context, path string, fn common.Executor) error {
	dir := path
	if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
		dir = filepath.Dir(path)
	}

	folderWatcher := fswatch.NewFolderWatcher(
		dir,
		false,
		func(p string) bool {
			return !model.IsProgramFile(p)
		},
		1, // 1 second
	)

	folderWatcher.Start()
	defer folderWatcher.Stop()

	// run once before watching
	if err := fn(ctx); err != nil {
		log.Error(err)
	}

	for folderWatcher.IsRunning() {
		log.Debugf("Watching %s for changes", dir)
		select {
		case <-ctx.Done():
			return nil
		case changes := <-folderWatcher.ChangeDetails():
			log.Debugf("%s", changes.String())
			if err := fn(ctx); err != nil {
				log.Error(err)
			}
		}
	}
	return nil
}
