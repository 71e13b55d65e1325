// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigmatch Contributors

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sigmatch/sigmatch"
	"github.com/sigmatch/sigmatch/internal/logging"
	"github.com/sigmatch/sigmatch/internal/observability"
	"github.com/sigmatch/sigmatch/internal/xdg"
)

// matchConfig holds configuration for the match command.
type matchConfig struct {
	rules       string
	events      string
	logFormat   string
	metricsAddr string
}

// Validate checks that the configuration is valid.
func (cfg *matchConfig) Validate() error {
	if cfg.rules == "" {
		return oops.Code("CONFIG_INVALID").Errorf("rules is required")
	}
	if cfg.events == "" {
		return oops.Code("CONFIG_INVALID").Errorf("events is required")
	}
	if cfg.logFormat != "json" && cfg.logFormat != "text" {
		return oops.Code("CONFIG_INVALID").Errorf("log-format must be 'json' or 'text', got %q", cfg.logFormat)
	}
	return nil
}

const defaultLogFormat = "json"

// newMatchCmd creates the match subcommand with all flags configured.
func newMatchCmd() *cobra.Command {
	cfg := &matchConfig{}

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match rules against events",
		Long: `Load Sigma rules from a file or directory and evaluate every event
from a JSON array or NDJSON stream against them, printing one JSON
finding line per match.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadMatchConfig(cmd.Flags(), cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runMatch(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("rules", "", "rule file or directory of .yml/.yaml rules")
	cmd.Flags().String("events", "", "events file (JSON array or NDJSON), '-' for stdin")
	cmd.Flags().String("log-format", defaultLogFormat, "log format (json or text)")
	cmd.Flags().String("metrics-addr", "", "metrics/health HTTP address (empty = disabled)")

	return cmd
}

// loadMatchConfig merges the config file (explicit --config path or the XDG
// default, if present) with command-line flags; flags win.
func loadMatchConfig(flags *pflag.FlagSet, cfg *matchConfig) error {
	k := koanf.New(".")

	path := configFile
	if path == "" {
		if _, err := os.Stat(xdg.ConfigFile()); err == nil {
			path = xdg.ConfigFile()
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
			return oops.Code("CONFIG_INVALID").Wrapf(err, "loading config file %s", path)
		}
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return oops.Code("CONFIG_INVALID").Wrapf(err, "merging command-line flags")
	}

	cfg.rules = k.String("rules")
	cfg.events = k.String("events")
	cfg.logFormat = k.String("log-format")
	cfg.metricsAddr = k.String("metrics-addr")
	return nil
}

// finding is one (rule, event) match, emitted as a JSON line.
type finding struct {
	ID         string `json:"id"`
	RuleID     string `json:"rule_id,omitempty"`
	RuleTitle  string `json:"rule"`
	Level      string `json:"level,omitempty"`
	EventIndex int    `json:"event"`
}

func runMatch(ctx context.Context, cfg *matchConfig, out io.Writer) error {
	logging.SetDefault("sigmatch", version, cfg.logFormat)

	rules, err := loadRules(cfg.rules)
	if err != nil {
		return err
	}
	slog.Info("Rules loaded", "count", len(rules), "path", cfg.rules)

	var metrics *observability.Metrics
	if cfg.metricsAddr != "" {
		server := observability.NewServer(cfg.metricsAddr, func() bool { return true })
		if err := server.Start(); err != nil {
			return oops.Wrapf(err, "starting observability server")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Warn("Observability shutdown failed", "error", err)
			}
		}()
		metrics = server.Metrics()
		slog.Info("Observability server listening", "addr", server.Addr())
	}

	events, err := loadEvents(cfg.events)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(out)
	total := 0
	for i, event := range events {
		if err := ctx.Err(); err != nil {
			return oops.Wrapf(err, "matching interrupted")
		}

		start := time.Now()
		var matched []string
		for _, rule := range rules {
			if !rule.IsMatch(event) {
				continue
			}
			matched = append(matched, rule.Title)
			f := finding{
				ID:         ulid.Make().String(),
				RuleID:     rule.ID,
				RuleTitle:  rule.Title,
				Level:      string(rule.Level),
				EventIndex: i,
			}
			if err := encoder.Encode(f); err != nil {
				return oops.Wrapf(err, "writing finding")
			}
			total++
		}
		if metrics != nil {
			metrics.RecordEvaluation(time.Since(start), matched)
		}
	}

	slog.Info("Matching finished", "events", len(events), "findings", total)
	return nil
}

// loadRules reads one rule file or every .yml/.yaml file under a directory.
func loadRules(path string) ([]*sigmatch.Rule, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, oops.Wrapf(err, "reading rules path %s", path)
	}

	var paths []string
	if info.IsDir() {
		err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(p))
			if ext == ".yml" || ext == ".yaml" {
				paths = append(paths, p)
			}
			return nil
		})
		if err != nil {
			return nil, oops.Wrapf(err, "walking rules directory %s", path)
		}
	} else {
		paths = []string{path}
	}

	rules := make([]*sigmatch.Rule, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p) //nolint:gosec // operator-supplied path
		if err != nil {
			return nil, oops.Wrapf(err, "reading rule file %s", p)
		}
		rule, err := sigmatch.ParseRule(data)
		if err != nil {
			return nil, oops.With("file", p).Wrapf(err, "parsing rule file %s", p)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// loadEvents reads events from a file or stdin: a JSON array, or one JSON
// object per line.
func loadEvents(path string) ([]*sigmatch.Event, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // operator-supplied path
	}
	if err != nil {
		return nil, oops.Wrapf(err, "reading events from %s", path)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		events, err := sigmatch.ParseEvents(trimmed)
		if err != nil {
			return nil, oops.Wrapf(err, "parsing events array")
		}
		return events, nil
	}

	var events []*sigmatch.Event
	for i, line := range bytes.Split(trimmed, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		event, err := sigmatch.ParseEvent(line)
		if err != nil {
			return nil, oops.Wrapf(err, "parsing event on line %d", i+1)
		}
		events = append(events, event)
	}
	return events, nil
}
