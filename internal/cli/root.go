package cli

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/axiom/scriptgen/internal/app"
	"github.com/axiom/scriptgen/internal/config"
)

var (
	verbose bool
	cfg     *config.Config
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "scriptgen",
	Short: "Generate and run Playwright scripts from plain-language scenarios",
	Long: `scriptgen turns a short scenario description into a runnable Playwright
script using a local or remote language model, repairs the script so it runs
as-is, and executes it.

Configuration is read from .env.example, .env and the environment, in that
order of increasing precedence.

Quick Start:
  scriptgen install                       Download the chromium runtime
  scriptgen probe                         Check which model endpoints answer
  scriptgen doctor                        Check Postgres, Redis and NATS
  scriptgen generate "check a checkbox"   Print a generated script
  scriptgen run test.js                   Run a script and report PASS/FAIL`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		if verbose {
			dev, err := zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			logger = dev
		}
		return nil
	},
}

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// Execute runs the root command
func Execute() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err == nil {
		return
	}
	var exit exitError
	if errors.As(err, &exit) {
		os.Exit(exit.code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

func components() *app.Components {
	return app.New(cfg, &http.Client{}, logger, nil)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log gateway and runner activity to stderr")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(smokeCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}
