package cmd

import (
	"context"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nektos/stackscope/pkg/runner"
	"github.com/nektos/stackscope/pkg/server"
	"github.com/nektos/stackscope/pkg/store"
)

func newServeCommand(ctx context.Context, input *Input) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run history as a JSON API",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			config, err := input.newConfig()
			if err != nil {
				return err
			}
			s, err := store.Open(config.StorePath, store.Options{Codec: store.Codec(config.StoreCodec)})
			if err != nil {
				return err
			}
			r, err := runner.New(config, runner.WithOutput(io.Discard))
			if err != nil {
				return err
			}

			h, err := server.StartHandler(config.ServerAddr, s, r, log.StandardLogger())
			if err != nil {
				return err
			}
			log.Infof("Serving run history from %s on %s", s.Path(), h.URL())

			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return h.Shutdown(shutdownCtx)
		},
	}
	serveCmd.Flags().StringVar(&input.serverAddr, "addr", "", "listen address (default \":8080\")")
	addEngineFlags(serveCmd.Flags(), input)
	return serveCmd
}
