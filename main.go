package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amarkiccha/lead/config"
	"github.com/amarkiccha/lead/pkg/logger"
)

// skipConfig marks commands that run without loading the config file.
const skipConfig = "skip-config"

type app struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "lead",
		Short:        "Lead capture and directory backend",
		Long:         "Serves the lead capture form and the lead directory, backed by a spreadsheet web app.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := cmd.Annotations[skipConfig]; ok {
				return nil
			}

			cfg, err := config.Load(a.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = cfg

			logger.Init(&logger.Config{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				Output: cmd.ErrOrStderr(),
			})
			return nil
		},
		RunE: a.runServe,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "config.yaml", "path to the YAML config file")

	root.AddCommand(a.newServeCmd(), a.newLeadsCmd(), newHashPasswordCmd())
	return root
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
