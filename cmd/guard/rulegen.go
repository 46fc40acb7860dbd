// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openguard-dsl/guard/internal/discover"
	"github.com/openguard-dsl/guard/internal/logging"
	"github.com/openguard-dsl/guard/internal/rulegen"
	"github.com/openguard-dsl/guard/internal/value"
	"github.com/openguard-dsl/guard/pkg/errutil"
)

func newRulegenCmd() *cobra.Command {
	var ruleName string

	cmd := &cobra.Command{
		Use:   "rulegen DATA_PATH",
		Short: "Derive a starter Guard rule from an example data document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.Setup("rulegen", version, "json", os.Stderr)

			data, err := discover.ReadFile(cmd.Context(), args[0])
			if err != nil {
				errutil.LogError(logger, "failed to read data document", err)
				os.Exit(exitIOError)
			}

			root, err := value.Decode(data)
			if err != nil {
				errutil.LogError(logger, "failed to decode data document", err)
				os.Exit(exitIOError)
			}

			fmt.Print(rulegen.Generate(ruleName, root))
			return nil
		},
	}

	cmd.Flags().StringVar(&ruleName, "rule-name", "generated_rule", "name for the generated rule")
	return cmd
}
