// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielhkuo/recruit-feasibility/cliparse"
)

func newRootCmd() *cobra.Command {
	var cfg cliparse.Config

	root := &cobra.Command{
		Use:           "feasibility",
		Short:         "Recruitment feasibility estimator",
		Long:          "Estimates how many registry volunteers match a study's recruitment criteria and serves the researcher wizard API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := cliparse.Load(cmd.Flags())
			if err != nil {
				return err
			}
			cfg = c

			if err := cliparse.InitLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
				return eris.Wrap(err, "init logger")
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = zap.L().Sync()
		},
	}
	cliparse.BindFlags(root.PersistentFlags())

	root.AddCommand(
		newServeCmd(&cfg),
		newEstimateCmd(),
		newKeygenCmd(&cfg),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
