// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Command guard evaluates, inspects, and scaffolds Guard policy rules
// against structured infrastructure documents.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/openguard-dsl/guard/internal/logging"
)

// version is overridden at build time via -ldflags.
var version = "dev"

var configFile string

// NewRootCmd creates the root command for the guard CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guard",
		Short: "Evaluate policy-as-code rules against structured documents",
		Long: `guard is a policy-as-code engine: it evaluates Guard-language rules
against JSON or YAML documents (CloudFormation templates, Kubernetes
manifests, or any structured data) and reports which rules passed,
failed, or were skipped.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newParseTreeCmd())
	cmd.AddCommand(newRulegenCmd())

	return cmd
}

func main() {
	logging.SetDefault("guard", version, "json")
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
