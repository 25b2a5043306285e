// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/recruit-feasibility/estimate"
	"github.com/danielhkuo/recruit-feasibility/models"
)

func newEstimateCmd() *cobra.Command {
	var (
		file    string
		explain bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate matched volunteers for a criteria file",
		Long: `Reads recruitment criteria from a YAML or JSON file ("-" for stdin) and
prints the estimate. With --explain each criterion's effect on the pool is
listed.`,
		Example: "  feasibility estimate --file criteria.yaml --explain",
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := readCriteria(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			result, steps := estimate.Explain(criteria)
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if explain {
					return enc.Encode(struct {
						models.EstimateResult
						Steps []estimate.Adjustment `json:"steps"`
					}{result, steps})
				}
				return enc.Encode(result)
			}

			fmt.Fprintln(out, estimate.Summary(result))
			if criteria.TargetRecruitment > 0 {
				rule := estimate.Readiness(result.Matched, criteria.TargetRecruitment)
				fmt.Fprintf(out, "Readiness: %s. %s\n", rule.Status, rule.Message)
			}
			if explain {
				writeSteps(out, steps)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Criteria file (.yaml, .yml or .json; - for stdin)")
	cmd.Flags().BoolVar(&explain, "explain", false, "Show each criterion's effect on the pool")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// readCriteria decodes a criteria file. Files ending in .json are read as
// JSON; everything else, stdin included, as YAML.
func readCriteria(stdin io.Reader, path string) (models.RecruitmentCriteria, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return models.RecruitmentCriteria{}, eris.Wrapf(err, "read criteria %s", path)
	}

	var c models.RecruitmentCriteria
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &c)
	} else {
		err = yaml.Unmarshal(data, &c)
	}
	if err != nil {
		return models.RecruitmentCriteria{}, eris.Wrapf(err, "decode criteria %s", path)
	}
	return c, nil
}

func writeSteps(out io.Writer, steps []estimate.Adjustment) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CRITERION\tEFFECT\tPOOL")
	for _, s := range steps {
		effect := fmt.Sprintf("x%.3f", s.Factor)
		if s.Subtracted > 0 {
			effect = "-" + humanize.Comma(int64(s.Subtracted))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Criterion, effect, humanize.CommafWithDigits(s.Pool, 1))
	}
	tw.Flush()
}
