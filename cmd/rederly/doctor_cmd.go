package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"rederly/client/internal/health"
)

func (c *cli) doctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the session store, route policy and backend",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = c.run(func(ctx context.Context, a *app, out io.Writer) error {
		var checker health.Checker
		checker.Add("session store ("+a.cfg.SessionBackend+")", func(ctx context.Context) error {
			_, err := a.repo.GetAll(ctx)
			return err
		})
		checker.Add("route policy", a.policy.HealthCheck)
		checker.Add("backend "+a.cfg.BackendURL, a.api.Ping)

		results := checker.Run(ctx)
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, r := range results {
			status := "ok"
			if !r.OK() {
				status = "FAIL: " + r.Err.Error()
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, status, r.Duration.Round(time.Millisecond))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if !health.Healthy(results) {
			return errors.New("one or more checks failed")
		}
		return nil
	})
	return cmd
}
