// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigmatch Contributors

package main

import (
	"fmt"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/sigmatch/sigmatch"
)

// schemaConfig holds configuration for the schema command.
type schemaConfig struct {
	output string
}

// newSchemaCmd creates the schema subcommand.
func newSchemaCmd() *cobra.Command {
	cfg := &schemaConfig{}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Generate the rule file JSON Schema",
		Long:  `Generate the JSON Schema describing the Sigma rule file format sigmatch accepts.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSchema(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&cfg.output, "output", "o", "-", "output file, '-' for stdout")

	return cmd
}

func runSchema(cmd *cobra.Command, cfg *schemaConfig) error {
	data, err := sigmatch.RuleSchema()
	if err != nil {
		return oops.Wrapf(err, "generating rule schema")
	}

	if cfg.output == "-" {
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	if err := os.WriteFile(cfg.output, append(data, '\n'), 0o600); err != nil {
		return oops.Wrapf(err, "writing schema to %s", cfg.output)
	}
	return nil
}
