package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	generateOut     string
	generateSuggest bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <scenario>",
	Short: "Generate a script for a scenario",
	Long: `Generate a Playwright script for a scenario and print it.

The script goes to stdout (or --out); where it came from is reported on stderr.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "", "write the script to this file")
	generateCmd.Flags().BoolVar(&generateSuggest, "suggest", false, "also print edge-case suggestions")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	scenario := strings.Join(args, " ")
	c := components()
	gen := c.Service.Produce(cmd.Context(), scenario)

	stderr := cmd.ErrOrStderr()
	source := color.New(color.FgCyan).Sprint(gen.Source)
	if gen.Canned {
		source = color.New(color.FgYellow).Sprint(gen.Source + " (no model answered)")
	}
	fmt.Fprintf(stderr, "source: %s\n", source)

	if generateOut != "" {
		if err := os.WriteFile(generateOut, []byte(gen.Script), 0o644); err != nil {
			return fmt.Errorf("write script: %w", err)
		}
		fmt.Fprintf(stderr, "wrote %s\n", generateOut)
	} else {
		fmt.Fprint(cmd.OutOrStdout(), gen.Script)
		if !strings.HasSuffix(gen.Script, "\n") {
			fmt.Fprintln(cmd.OutOrStdout())
		}
	}

	if generateSuggest {
		fmt.Fprintln(stderr, color.New(color.Bold).Sprint("Suggestions:"))
		for _, s := range c.Service.Suggest(cmd.Context(), scenario, gen.Script) {
			fmt.Fprintf(stderr, "  - %s\n", s)
		}
	}
	return nil
}
