// Command qparse walks query strings or JSON documents through a YAML
// template spec and prints the result as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/SimonDaKappa/go-qparse"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type cliOpts struct {
	verbose  bool
	template string
	json     bool
	jsonPath string
}

func newRootCmd() *cobra.Command {
	opts := &cliOpts{}
	var logger *zap.Logger

	rootCmd := &cobra.Command{
		Use:   "qparse",
		Short: "Coerce query data through declarative templates",
		Long: `qparse walks decoded query data along a template and prints the typed result.

Templates are YAML files mapping keys to coercer expressions such as
natural, string:trim or enum:'GUEST,USER,ADMIN'.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if opts.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging of the walk")

	parseCmd := &cobra.Command{
		Use:   "parse <input>",
		Short: "Walk one input through a template spec",
		Long: `Walk one input through a template spec and print the result as indented JSON.

The input is a query string ("id=3&role=ADMIN") unless --json is set, in which
case it is a JSON document. An input of "-" is read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, opts, logger, args[0])
		},
	}
	parseCmd.Flags().StringVarP(&opts.template, "template", "t", "", "Path of the YAML template spec (required)")
	parseCmd.Flags().BoolVar(&opts.json, "json", false, "Read the input as a JSON document")
	parseCmd.Flags().StringVar(&opts.jsonPath, "path", "", "gjson path selecting part of a JSON input")
	_ = parseCmd.MarkFlagRequired("template")

	coercersCmd := &cobra.Command{
		Use:   "coercers",
		Short: "List the coercer names usable in templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range qparse.CoercerNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(parseCmd, coercersCmd)
	return rootCmd
}

func runParse(cmd *cobra.Command, opts *cliOpts, logger *zap.Logger, raw string) error {
	if raw == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		raw = strings.TrimSpace(string(data))
	}

	spec, err := qparse.LoadTemplateSpecFile(opts.template, nil)
	if err != nil {
		return err
	}

	input, err := decodeInput(opts, raw)
	if err != nil {
		return err
	}
	logger.Debug("Walking input", zap.String("template", opts.template), zap.Stringer("input", input))

	walker := qparse.NewWalker(qparse.WalkerOpts{Logger: logger})
	out, err := spec.WalkWith(walker, input)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func decodeInput(opts *cliOpts, raw string) (qparse.Value, error) {
	if opts.json {
		if opts.jsonPath != "" {
			return qparse.FromJSONPath([]byte(raw), opts.jsonPath)
		}
		return qparse.FromJSON([]byte(raw))
	}
	if opts.jsonPath != "" {
		return qparse.Value{}, fmt.Errorf("--path requires --json")
	}

	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return qparse.Value{}, fmt.Errorf("invalid query string: %w", err)
	}
	return qparse.FromValues(values), nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
