package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/axiom/scriptgen/internal/middleware"
	"github.com/axiom/scriptgen/internal/models"
)

var (
	smokeServer  string
	smokeTimeout time.Duration
)

var smokeCmd = &cobra.Command{
	Use:   "smoke <scenario>",
	Short: "Drive a running server through generate-and-run",
	Long: `Post a scenario to a running server's generate-and-run endpoint and report
the result. A bearer token is minted from JWT_SECRET when it is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSmoke,
}

func init() {
	smokeCmd.Flags().StringVar(&smokeServer, "server", "http://localhost:3000", "base URL of the server")
	smokeCmd.Flags().DurationVar(&smokeTimeout, "timeout", 10*time.Minute, "overall request timeout")
}

func runSmoke(cmd *cobra.Command, args []string) error {
	body, err := json.Marshal(models.GenerateRequest{Scenario: strings.Join(args, " ")})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(smokeServer, "/") + "/api/v1/generate-and-run"
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.JWTSecret != "" {
		token, err := middleware.IssueToken(cfg.JWTSecret, "scriptgen-smoke", time.Hour)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: smokeTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("call server: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var result models.GenerateAndRunResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "generation %s\n", result.ID)
	fmt.Fprintln(out, color.New(color.Bold).Sprint("Script:"))
	fmt.Fprintln(out, strings.TrimRight(result.Code, "\n"))
	if len(result.Suggestions) > 0 {
		fmt.Fprintln(out, color.New(color.Bold).Sprint("Suggestions:"))
		for _, s := range result.Suggestions {
			fmt.Fprintf(out, "  - %s\n", s)
		}
	}
	if result.Result == nil {
		return fmt.Errorf("server returned no run result")
	}
	printRunResult(out, *result.Result)
	if !result.Result.Pass {
		return exitError{code: 1}
	}
	return nil
}
