// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/recruit-feasibility/auth"
	"github.com/danielhkuo/recruit-feasibility/cliparse"
)

func newKeygenCmd(cfg *cliparse.Config) *cobra.Command {
	var (
		reviewer string
		secret   bool
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Print a reviewer key or a new random secret",
		Example: `  feasibility keygen --secret
  ADMIN_KEY_SALT=... feasibility keygen --reviewer alice`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if secret {
				s, err := auth.GenerateSecret()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, s)
				return nil
			}

			if reviewer == "" {
				return eris.New("--reviewer or --secret is required")
			}
			if cfg.AdminKeySalt == "" {
				return eris.New("ADMIN_KEY_SALT required")
			}
			fmt.Fprintf(out, "reviewer: %s\nkey: %s\n",
				auth.NormalizeReviewer(reviewer), auth.GenerateReviewerKey(reviewer, cfg.AdminKeySalt))
			return nil
		},
	}

	cmd.Flags().StringVar(&reviewer, "reviewer", "", "Reviewer name to derive a key for")
	cmd.Flags().BoolVar(&secret, "secret", false, "Generate a random value for ADMIN_KEY_SALT or SESSION_SECRET")
	cmd.MarkFlagsMutuallyExclusive("reviewer", "secret")
	return cmd
}
