// Команда release-eval считает метрики релиза по локальным артефактам CI
// без запуска сервера и хранилищ.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dreschagin/release-confidence/internal/domain/service"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "release-eval",
		Short:         "Evaluate release confidence from coverage and test reports",
		SilenceUsage:  true,
	}
	root.AddCommand(newEvaluateCmd(), newFormatMinutesCmd())
	return root
}

func newEvaluateCmd() *cobra.Command {
	var coveragePath, testsPath, output string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Compute release metrics from a coverage report and test results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output != outputJSON && output != outputYAML {
				return fmt.Errorf("unsupported output %q, use json or yaml", output)
			}

			input, err := loadEvaluationInput(coveragePath, testsPath)
			if err != nil {
				return err
			}

			evaluation, err := service.NewReleaseEvaluator().Evaluate(input)
			if err != nil {
				return fmt.Errorf("evaluate release: %w", err)
			}

			return writeOutput(cmd.OutOrStdout(), output, evaluation)
		},
	}

	cmd.Flags().StringVar(&coveragePath, "coverage", "", "path to coverage JSON report")
	cmd.Flags().StringVar(&testsPath, "tests", "", "path to test results JSON")
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "output format: json or yaml")
	_ = cmd.MarkFlagRequired("coverage")
	_ = cmd.MarkFlagRequired("tests")

	return cmd
}

func newFormatMinutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format-minutes N",
		Short: "Format a duration in minutes as \"Xh Ym\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			minutes, err := strconv.Atoi(args[0])
			if err != nil || minutes < 0 {
				return fmt.Errorf("minutes must be a non-negative integer, got %q", args[0])
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), service.FormatMinutesToTime(minutes))
			return err
		},
	}
}

func loadEvaluationInput(coveragePath, testsPath string) (service.EvaluationInput, error) {
	rawCoverage, err := os.ReadFile(coveragePath)
	if err != nil {
		return service.EvaluationInput{}, fmt.Errorf("read coverage report: %w", err)
	}
	coverage, err := service.DecodeCoverageData(rawCoverage)
	if err != nil {
		return service.EvaluationInput{}, err
	}

	rawTests, err := os.ReadFile(testsPath)
	if err != nil {
		return service.EvaluationInput{}, fmt.Errorf("read test results: %w", err)
	}
	var tests service.TestResults
	if err := json.Unmarshal(rawTests, &tests); err != nil {
		return service.EvaluationInput{}, fmt.Errorf("decode test results: %w", err)
	}

	return service.EvaluationInput{Coverage: coverage, Tests: tests}, nil
}

func writeOutput(w io.Writer, format string, value interface{}) error {
	if format == outputYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
