package main

import (
	"context"

	"github.com/nulzo/polymage/internal/analytics"
	"github.com/nulzo/polymage/internal/server"
	"github.com/nulzo/polymage/internal/store/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			app.cfg.Server.Port = port
		}

		var opts []server.Option
		if path := app.cfg.Store.Path; path != "" {
			repo, err := sqlite.Open(path)
			if err != nil {
				return err
			}
			defer repo.Close()

			ingestor := analytics.NewIngestor(app.log, repo)
			ingestor.Start(context.Background())
			defer ingestor.Stop()

			app.log.Info("recording invocation history", zap.String("path", path))
			opts = append(opts, server.WithHistory(repo, ingestor))
		}

		return server.New(app.cfg, app.log, app.service, opts...).Run(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().String("port", "", "Listen port (overrides server.port)")
}
