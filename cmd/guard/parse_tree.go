// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openguard-dsl/guard/internal/discover"
	"github.com/openguard-dsl/guard/internal/dsl"
	"github.com/openguard-dsl/guard/internal/logging"
	"github.com/openguard-dsl/guard/pkg/errutil"
)

func newParseTreeCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "parse-tree RULES_PATH",
		Short: "Print the parse tree of a Guard rules file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.Setup("parse-tree", version, "json", os.Stderr)

			src, err := discover.ReadFile(cmd.Context(), args[0])
			if err != nil {
				errutil.LogError(logger, "failed to read rules file", err)
				os.Exit(exitIOError)
			}

			rf, err := dsl.Parse(args[0], string(src))
			if err != nil {
				errutil.LogError(logger, "failed to parse rules file", err)
				os.Exit(exitParseError)
			}

			var out []byte
			switch format {
			case "yaml":
				out, err = dsl.ToYAML(rf)
			default:
				out, err = dsl.ToJSON(rf)
			}
			if err != nil {
				errutil.LogError(logger, "failed to serialize parse tree", err)
				os.Exit(exitIOError)
			}

			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "output format: json|yaml")
	return cmd
}
