package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/axiom/scriptgen/internal/database"
	"github.com/axiom/scriptgen/internal/eventbus"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check connectivity to the configured Postgres, Redis and NATS",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	out := cmd.OutOrStdout()
	failed := 0
	check := func(name, url string, connect func() error) {
		if url == "" {
			fmt.Fprintf(out, "%-9s %s\n", name, color.New(color.Faint).Sprint("not configured"))
			return
		}
		if err := connect(); err != nil {
			failed++
			report(out, name, false, err.Error())
			return
		}
		report(out, name, true, "ok")
	}

	check("postgres", cfg.DatabaseURL, func() error {
		db, err := database.OpenHistory(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		db.Close()
		return nil
	})
	check("redis", cfg.RedisURL, func() error {
		rdb, err := database.OpenRunCache(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		return rdb.Close()
	})
	check("nats", cfg.NATSURL, func() error {
		pub, err := eventbus.Connect(cfg.NATSURL, logger)
		if err != nil {
			return err
		}
		pub.Close()
		return nil
	})

	if failed > 0 {
		return exitError{code: 1}
	}
	return nil
}

func report(w io.Writer, name string, ok bool, detail string) {
	status := color.New(color.FgGreen).Sprint(detail)
	if !ok {
		status = color.New(color.FgRed).Sprint(detail)
	}
	fmt.Fprintf(w, "%-9s %s\n", name, status)
}
