package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/axiom/scriptgen/internal/models"
	"github.com/axiom/scriptgen/internal/script"
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run a script and report PASS or FAIL",
	Long: `Run a script file with node and report PASS or FAIL.

Markdown fences around the code are stripped first. The command exits with the
script's exit code.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	code, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	res, err := components().Runner.Run(cmd.Context(), script.Sanitize(string(code)), nil)
	if err != nil {
		return err
	}

	printRunResult(cmd.OutOrStdout(), res)
	if !res.Pass {
		if res.ExitCode > 0 {
			return exitError{code: res.ExitCode}
		}
		return exitError{code: 1}
	}
	return nil
}

func printRunResult(w io.Writer, res models.RunResult) {
	if res.Stdout != "" {
		fmt.Fprint(w, res.Stdout)
	}
	if res.Stderr != "" {
		color.New(color.FgRed).Fprint(w, res.Stderr)
	}

	switch {
	case res.Pass:
		color.New(color.FgGreen, color.Bold).Fprintf(w, "PASS")
	case res.TimedOut:
		color.New(color.FgRed, color.Bold).Fprintf(w, "FAIL (timed out)")
	default:
		color.New(color.FgRed, color.Bold).Fprintf(w, "FAIL (exit %d)", res.ExitCode)
	}
	fmt.Fprintf(w, " in %dms\n", res.DurationMS)
}
