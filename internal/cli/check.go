package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/todos/internal/harness"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Filter    string // scenario filter (glob pattern on file name)
	GoldenDir string // directory of {name}.golden snapshots
	Update    bool   // regenerate golden files
}

// ScenarioResult holds the result of a single scenario across backends.
type ScenarioResult struct {
	Name     string   `json:"name"`
	Pass     bool     `json:"pass"`
	Backends []string `json:"backends"`
	Errors   []string `json:"errors,omitempty"`
}

// CheckResult holds the overall check result.
type CheckResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <scenarios-dir>",
		Short: "Run storage scenarios against every backend",
		Long: `Run YAML scenarios against the session backend and a temporary SQLite
database. A scenario passes when its assertions hold on every backend, the
backends produce identical snapshots, and (with --golden) the snapshot
matches the golden file.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  todos check ./scenarios
  todos check ./scenarios --filter "delete_*"
  todos check ./scenarios --golden ./golden --update
  todos check ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "directory of golden snapshots to compare against")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files (requires --golden)")

	return cmd
}

func runCheck(opts *CheckOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}
	if opts.Update && opts.GoldenDir == "" {
		return NewExitError(ExitCommandError, "--update requires --golden")
	}

	scenarioFiles, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	result := CheckResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarioFiles)),
		Total:     len(scenarioFiles),
	}

	if len(scenarioFiles) == 0 {
		if opts.Format == "json" {
			return outputCheckJSON(cmd, result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	workDir, err := os.MkdirTemp("", "todos-check-*")
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create work directory", err)
	}
	defer os.RemoveAll(workDir)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	f := opts.formatter(cmd)

	for i, scenarioFile := range scenarioFiles {
		dir := filepath.Join(workDir, fmt.Sprintf("%03d", i))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return WrapExitError(ExitCommandError, "failed to create work directory", err)
		}

		scenResult := runScenario(ctx, opts, f, scenarioFile, harness.Backends(dir))
		if opts.Format != "json" {
			reportScenario(cmd.OutOrStdout(), scenResult)
		}

		result.Scenarios = append(result.Scenarios, scenResult)
		if scenResult.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputCheckJSON(cmd, result)
	}
	return outputCheckText(cmd, result)
}

// findScenarioFiles finds all YAML scenario files in a directory.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// runScenario runs one scenario file on every backend and compares the
// snapshots with each other and, when configured, with the golden file.
func runScenario(ctx context.Context, opts *CheckOptions, f *OutputFormatter, scenarioFile string, backends []harness.Backend) ScenarioResult {
	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return ScenarioResult{
			Name:     filepath.Base(scenarioFile),
			Backends: []string{},
			Errors:   []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}

	res := ScenarioResult{Name: scenario.Name, Backends: []string{}}
	var reference []byte
	var referenceBackend string

	for _, b := range backends {
		res.Backends = append(res.Backends, b.Name)
		f.VerboseLog("running %s on %s", scenario.Name, b.Name)

		run, err := harness.RunOn(ctx, b, scenario)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: execution failed: %v", b.Name, err))
			continue
		}
		for _, e := range run.Errors {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", b.Name, e))
		}

		data, err := harness.MarshalSnapshot(run.Snapshot)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", b.Name, err))
			continue
		}
		if reference == nil {
			reference, referenceBackend = data, b.Name
			continue
		}
		if !bytes.Equal(reference, data) {
			res.Errors = append(res.Errors, fmt.Sprintf("%s snapshot differs from %s", b.Name, referenceBackend))
		}
	}

	if reference != nil && opts.GoldenDir != "" {
		if err := checkGolden(opts, scenario.Name, reference); err != nil {
			res.Errors = append(res.Errors, err.Error())
		}
	}

	res.Pass = len(res.Errors) == 0
	return res
}

// checkGolden compares snapshot with {GoldenDir}/{name}.golden, or writes it
// when updating.
func checkGolden(opts *CheckOptions, name string, snapshot []byte) error {
	goldenPath := filepath.Join(opts.GoldenDir, name+".golden")

	if opts.Update {
		if err := os.MkdirAll(opts.GoldenDir, 0755); err != nil {
			return fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(goldenPath, snapshot, 0644); err != nil {
			return fmt.Errorf("failed to write golden file: %w", err)
		}
		return nil
	}

	golden, err := os.ReadFile(goldenPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("golden file missing: %s (run with --update to create)", goldenPath)
	}
	if err != nil {
		return fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(golden, snapshot) {
		return fmt.Errorf("snapshot does not match golden file %s (run with --update to regenerate)", goldenPath)
	}
	return nil
}

func reportScenario(w io.Writer, res ScenarioResult) {
	if res.Pass {
		fmt.Fprintf(w, "✓ %s (%s)\n", res.Name, strings.Join(res.Backends, ", "))
		return
	}
	fmt.Fprintf(w, "✗ %s\n", res.Name)
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// outputCheckJSON outputs the check result as JSON.
func outputCheckJSON(cmd *cobra.Command, result CheckResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_CHECK_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		exitErr := NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
		exitErr.Reported = true
		return exitErr
	}
	return nil
}

// outputCheckText prints the summary line.
func outputCheckText(cmd *cobra.Command, result CheckResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Check Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
