package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/playwright-community/playwright-go"
	"github.com/spf13/cobra"
)

var installVerify bool

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Download the Playwright driver and chromium",
	Args:  cobra.NoArgs,
	RunE:  runInstall,
}

func init() {
	installCmd.Flags().BoolVar(&installVerify, "verify", false, "launch and close chromium after installing")
}

func runInstall(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	opts := &playwright.RunOptions{Browsers: []string{"chromium"}, Verbose: verbose}
	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("install playwright: %w", err)
	}
	fmt.Fprintln(out, color.New(color.FgGreen).Sprint("chromium installed"))

	if !installVerify {
		return nil
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}
	defer pw.Stop()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(true)})
	if err != nil {
		return fmt.Errorf("launch chromium: %w", err)
	}
	version := browser.Version()
	if err := browser.Close(); err != nil {
		return fmt.Errorf("close chromium: %w", err)
	}
	fmt.Fprintf(out, "chromium %s launches\n", version)
	return nil
}
