// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/openguard-dsl/guard/internal/config"
	"github.com/openguard-dsl/guard/internal/discover"
	"github.com/openguard-dsl/guard/internal/engine"
	"github.com/openguard-dsl/guard/internal/logging"
	"github.com/openguard-dsl/guard/internal/report"
	"github.com/openguard-dsl/guard/internal/status"
	"github.com/openguard-dsl/guard/pkg/errutil"
)

// Exit codes, per the CLI contract: 0 every rule passed, 5 at least one
// rule failed, 2 an I/O error prevented evaluation, 1 a parse error did.
const (
	exitOK         = 0
	exitParseError = 1
	exitIOError    = 2
	exitFailure    = 5
)

func newValidateCmd() *cobra.Command {
	var (
		dataPath  string
		pattern   string
		sortOrder string
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "validate RULES_PATH",
		Short: "Evaluate Guard rules against a data document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.Setup("validate", version, "json", os.Stderr)
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				errutil.LogError(logger, "failed to load config", err)
				os.Exit(exitIOError)
			}
			if pattern == "" {
				pattern = cfg.Pattern
			}

			order := sortOrderFromFlag(sortOrder, cfg.SortOrder)
			rulesPaths, err := discover.Entries(args[0], pattern, order)
			if err != nil {
				errutil.LogError(logger, "failed to discover rules files", err)
				os.Exit(exitIOError)
			}

			overall := status.Pass
			for _, rp := range rulesPaths {
				st, err := runValidateOne(cmd.Context(), logger, rp, dataPath, verbose || cfg.Verbose)
				if err != nil {
					os.Exit(classifyExit(err))
				}
				overall = status.And(overall, st)
			}

			if overall == status.Fail {
				os.Exit(exitFailure)
			}
			os.Exit(exitOK)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "path to the data document to validate")
	cmd.Flags().StringVar(&pattern, "pattern", "", "glob for selecting rule files in a directory")
	cmd.Flags().StringVar(&sortOrder, "sort-order", "", "alphabetical|last-modified|filesystem")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "print the full evaluation tree instead of a summary")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runValidateOne(ctx context.Context, logger *slog.Logger, rulesPath, dataPath string, verbose bool) (status.Status, error) {
	rulesText, err := discover.ReadFile(ctx, rulesPath)
	if err != nil {
		return status.Skip, err
	}
	dataBytes, err := discover.ReadFile(ctx, dataPath)
	if err != nil {
		return status.Skip, err
	}

	out, err := engine.Evaluate(engine.Request{
		RulesFilename: rulesPath,
		RulesText:     string(rulesText),
		Data:          dataBytes,
		Verbose:       verbose,
	})
	if err != nil {
		return status.Skip, err
	}

	overall := status.Pass
	for _, name := range out.RuleNames {
		overall = status.And(overall, out.RuleStatuses[name])
	}

	if verbose {
		report.RenderVerbose(os.Stdout, out.Roots)
	} else {
		report.RenderSummary(os.Stdout, out.Roots)
		if len(out.Roots) == 0 {
			for _, name := range out.RuleNames {
				fmt.Fprintf(os.Stdout, "%s %s\n", out.RuleStatuses[name], name)
			}
		}
	}

	logger.Info("evaluation complete", "rules_file", rulesPath, "trace_id", out.TraceID, "status", overall.String())
	return overall, nil
}

func sortOrderFromFlag(flagVal, cfgVal string) discover.SortOrder {
	v := flagVal
	if v == "" {
		v = cfgVal
	}
	switch v {
	case "last-modified":
		return discover.SortLastModified
	case "filesystem":
		return discover.SortFilesystem
	default:
		return discover.SortAlphabetical
	}
}

func classifyExit(err error) int {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return exitIOError
	}
	if oopsErr.Code() == "PARSE_ERROR" {
		return exitParseError
	}
	return exitIOError
}
