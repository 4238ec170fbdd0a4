package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nulzo/polymage/internal/cli"
	"github.com/nulzo/polymage/internal/config"
	"github.com/nulzo/polymage/internal/gateway"
	"github.com/nulzo/polymage/internal/logger"
	"github.com/nulzo/polymage/internal/tracing"
	"github.com/nulzo/polymage/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	// providers register their factories in init()
	_ "github.com/nulzo/polymage/pkg/platform/cloudflare"
	_ "github.com/nulzo/polymage/pkg/platform/drawthings"
	_ "github.com/nulzo/polymage/pkg/platform/groq"
	_ "github.com/nulzo/polymage/pkg/platform/lmstudio"
	_ "github.com/nulzo/polymage/pkg/platform/togetherai"
)

// app is the state shared by every subcommand, filled in by setup.
var app struct {
	cfg      *config.Config
	log      *zap.Logger
	service  gateway.Service
	shutdown tracing.Shutdown
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", cli.CrossMark(), err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "polymage",
	Short: "One interface over several generative image and text platforms",
	Long: `polymage talks to Cloudflare Workers AI, DrawThings, Groq, LM Studio and
TogetherAI through a single set of operations: text2text, text2data,
text2image, image2text and image2image.

Providers are read from config.yaml, or derived from CLOUDFLARE_ACCOUNT_ID,
CLOUDFLARE_API_TOKEN, GROQ_API_KEY, TOGETHER_AI_API_KEY, LMSTUDIO_HOST and
DRAWTHINGS_HOST when no config file lists any.

Examples:
  polymage models --capability text2image
  polymage generate -m flux-1-schnell -o cube.png "a red cube"
  polymage generate -m flux-kontext -i cube.png -o blue.png "make it blue"
  polymage caption -m llama-4-scout -i cube.png
  polymage instruct -m gpt-oss-20b --schema recipe.json "a pancake recipe"
  polymage serve
  polymage history --stats`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app.shutdown != nil {
			_ = app.shutdown(context.Background())
		}
		logger.Sync()
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(captionCmd)
	rootCmd.AddCommand(instructCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "Config file (default: ./config.yaml or ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Override log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
}

func setup(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		cfg.Log.Color = false
		cli.SetEnabled(false)
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.Format = cfg.Log.Format
	logCfg.EnableColor = logCfg.EnableColor && cfg.Log.Color
	logger.Initialize(logCfg)
	log := logger.Get()

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Init(cfg.Tracing.ServiceName, version.Version, log, os.Stderr)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		app.shutdown = shutdown
	}

	app.cfg = cfg
	app.log = log
	app.service = gateway.NewService(log)
	gateway.Bootstrap(cmd.Context(), app.service, cfg.Providers, log)
	return nil
}
