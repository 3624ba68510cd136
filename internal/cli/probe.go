package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Ping every model endpoint candidate",
	Long: `Send a short prompt to every local candidate derived from LOCAL_LLM_URL,
and to the remote provider when OPENAI_API_KEY is set, and show how each one
reacted.`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func runProbe(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if cfg.LocalLLMURL == "" && cfg.RemoteAPIKey == "" {
		fmt.Fprintln(out, "LOCAL_LLM_URL not set and no remote key configured")
		return nil
	}

	reports := components().Gateway.Probe(cmd.Context())

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tDIALECT\tLABEL\tURL\tDETAIL")
	for _, r := range reports {
		status := color.New(color.FgRed).Sprint("error")
		detail := r.Error
		if r.Error == "" {
			detail = r.Snippet
			if r.OK {
				status = color.New(color.FgGreen).Sprint(r.StatusCode)
			} else {
				status = color.New(color.FgYellow).Sprint(r.StatusCode)
			}
		}
		if len(detail) > 60 {
			detail = detail[:60] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", status, r.Dialect, r.Label, r.URL, detail)
	}
	return tw.Flush()
}
