package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nektos/stackscope/pkg/render"
	"github.com/nektos/stackscope/pkg/store"
)

func openStore(input *Input) (*store.Store, error) {
	config, err := input.newConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(config.StorePath, store.Options{Codec: store.Codec(config.StoreCodec)})
}

func newHistoryCommand(ctx context.Context, input *Input) *cobra.Command {
	var program string
	var limit int
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStore(input)
			if err != nil {
				return err
			}
			records, err := s.List(program, limit)
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), records)
		},
	}
	historyCmd.Flags().StringVar(&program, "program", "", "only runs of this program")
	historyCmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs, 0 for all")

	var trace string
	var source bool
	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored run and its trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := render.ParseMode(trace)
			if err != nil {
				return err
			}
			s, err := openStore(input)
			if err != nil {
				return err
			}
			rec, err := s.Lookup(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if source && rec.Source != "" {
				fmt.Fprintln(out, rec.Source)
			}
			for _, line := range rec.Output {
				fmt.Fprintf(out, "| %s\n", line)
			}
			return render.Write(out, rec.Report(), mode, render.CheckIfColorable(out))
		},
	}
	showCmd.Flags().StringVar(&trace, "trace", string(render.ModeEvents), "none, events or stack")
	showCmd.Flags().BoolVar(&source, "source", false, "print the program source")

	rmCmd := &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete stored runs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			s, err := openStore(input)
			if err != nil {
				return err
			}
			for _, ref := range args {
				rec, err := s.Lookup(ref)
				if err != nil {
					return fmt.Errorf("%s: %w", ref, err)
				}
				if err := s.Delete(rec.ID); err != nil {
					return err
				}
				log.Infof("Deleted run %d", rec.ID)
			}
			return nil
		},
	}

	var keep time.Duration
	gcCmd := &cobra.Command{
		Use:   "gc",
		Short: "Delete runs older than --keep",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			s, err := openStore(input)
			if err != nil {
				return err
			}
			deleted, err := s.GC(ctx, keep)
			if err != nil {
				return err
			}
			log.Infof("Deleted %d runs", deleted)
			return nil
		},
	}
	gcCmd.Flags().DurationVar(&keep, "keep", 30*24*time.Hour, "age of the oldest run kept")

	historyCmd.AddCommand(showCmd, rmCmd, gcCmd)
	return historyCmd
}

func printHistory(w io.Writer, records []*store.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No runs stored")
		return err
	}
	fmt.Fprintf(w, "%-6s%-10s%-24s%-30s%-8s%s\n", "ID", "Run", "Program", "Status", "Steps", "Created")
	for _, rec := range records {
		runID := rec.RunID
		if len(runID) > 8 {
			runID = runID[:8]
		}
		fmt.Fprintf(w, "%-6d%-10s%-24s%-30s%-8d%s\n", rec.ID, runID, rec.Program, rec.Status, rec.Steps, rec.Created().Format(time.DateTime))
	}
	return nil
}
