// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd implements the sqlogic CLI: compile a JSON Logic rule
// against a field schema and print the resulting SQL fragment and
// parameters as JSON. This is the out-of-process surface around the
// sqlogic library, in the shape every binary in this corpus wraps around
// its library core.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	sqlogic "github.com/Nam088/json-logic-to-sql"
	"github.com/Nam088/json-logic-to-sql/internal/dialect"
	"github.com/Nam088/json-logic-to-sql/internal/log"
	"github.com/Nam088/json-logic-to-sql/internal/schemaload"
)

// Config holds the resolved CLI flag values.
type Config struct {
	SchemaPath       string
	Dialect          string
	PlaceholderStyle string
	RuleFile         string
	Rule             string
	LoggingFormat    string
	LogLevel         string
}

func withDefaults(c Config) Config {
	if c.LoggingFormat == "" {
		c.LoggingFormat = "standard"
	}
	if c.LogLevel == "" {
		c.LogLevel = log.Info
	}
	return c
}

// Command wraps a cobra.Command carrying sqlogic-specific flags.
type Command struct {
	*cobra.Command
	cfg    Config
	logger log.Logger
}

// NewCommand returns a Command ready for Execute.
func NewCommand() *Command {
	cmd := &Command{cfg: Config{}}

	data, _ := os.ReadFile("version.txt")
	version := strings.TrimSpace(string(data))

	c := &cobra.Command{
		Use:     "sqlogic",
		Version: version + "+" + strings.Join([]string{"dev", runtime.GOOS, runtime.GOARCH}, "."),
		Short:   "Compile a JSON Logic rule into a parameterized SQL WHERE fragment.",
		RunE:    cmd.run,
	}
	cmd.Command = c

	flags := c.Flags()
	flags.StringVarP(&cmd.cfg.SchemaPath, "schema", "s", "", "path to the YAML or JSON field schema")
	flags.StringVarP(&cmd.cfg.Dialect, "dialect", "d", "", "target SQL dialect: postgresql, mysql, mssql, sqlite")
	flags.StringVar(&cmd.cfg.PlaceholderStyle, "placeholder-style", "", "override the dialect's default placeholder style: dollar, question, at")
	flags.StringVar(&cmd.cfg.RuleFile, "rule-file", "", "path to a JSON file containing the rule; mutually exclusive with the positional rule argument")
	flags.StringVar(&cmd.cfg.LoggingFormat, "logging-format", "", "logging format: standard or json")
	flags.StringVar(&cmd.cfg.LogLevel, "log-level", "", "logging level: DEBUG, INFO, WARN, ERROR")

	return cmd
}

func (c *Command) run(cmd *cobra.Command, args []string) error {
	c.cfg = withDefaults(c.cfg)

	logger, err := log.NewLogger(c.cfg.LoggingFormat, c.cfg.LogLevel, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.logger = logger

	if c.cfg.SchemaPath == "" {
		return fmt.Errorf("--schema is required")
	}
	if c.cfg.Dialect == "" {
		return fmt.Errorf("--dialect is required")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	schemaBytes, err := os.ReadFile(c.cfg.SchemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}
	s, err := schemaload.Load(ctx, logger, schemaBytes)
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}

	ruleBytes, err := c.resolveRule(args)
	if err != nil {
		return err
	}

	opts := []sqlogic.Option{sqlogic.WithDialect(dialect.Kind(c.cfg.Dialect))}
	if c.cfg.PlaceholderStyle != "" {
		opts = append(opts, sqlogic.WithPlaceholderStyle(dialect.PlaceholderStyle(c.cfg.PlaceholderStyle)))
	}

	start := time.Now()
	result, err := sqlogic.Compile(s, ruleBytes, opts...)
	if err != nil {
		return fmt.Errorf("failed to compile rule: %w", err)
	}
	logger.DebugContext(ctx, "compiled rule",
		"dialect", c.cfg.Dialect,
		"fields", len(s.Fields),
		"params", len(result.ParamsArray),
		"duration", time.Since(start).String(),
	)

	out, err := gojson.MarshalIndent(struct {
		SQL    string         `json:"sql"`
		Params map[string]any `json:"params"`
	}{SQL: result.SQL, Params: result.Params}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func (c *Command) resolveRule(args []string) (json.RawMessage, error) {
	switch {
	case c.cfg.RuleFile != "":
		data, err := os.ReadFile(c.cfg.RuleFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read rule file: %w", err)
		}
		return data, nil
	case len(args) > 0:
		return json.RawMessage(args[0]), nil
	default:
		return nil, fmt.Errorf("a rule is required: pass it as a positional argument or via --rule-file")
	}
}
