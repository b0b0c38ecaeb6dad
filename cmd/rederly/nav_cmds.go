package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"rederly/client/internal/guard"
)

func (c *cli) routesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the routes available to the signed-in role",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = c.run(func(ctx context.Context, a *app, out io.Writer) error {
		routes := a.guard.GuardedRoutes(ctx)
		if len(routes) == 0 {
			return guard.ErrNoSession
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, r := range routes {
			fmt.Fprintf(tw, "%s\t%s\n", r.Name, r.Template)
		}
		return tw.Flush()
	})
	return cmd
}

func (c *cli) menuCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Show the account menu",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = c.run(func(ctx context.Context, a *app, out io.Writer) error {
		entries := a.guard.Menu(ctx)
		if len(entries) == 0 {
			return guard.ErrNoSession
		}
		for _, e := range entries {
			if e.Logout {
				fmt.Fprintf(out, "%s\t(rederly logout)\n", e.Label)
				continue
			}
			fmt.Fprintf(out, "%s\t%s\n", e.Label, e.Path)
		}
		return nil
	})
	return cmd
}

func (c *cli) visitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visit <path>",
		Short: "Ask the route guard whether a page may be shown",
		Example: `  rederly visit /common/courses/42
  rederly visit "/common/courses/42/topic/7/grading?userId=3"`,
		Args: cobra.ExactArgs(1),
	}
	var path string
	cmd.PreRun = func(cmd *cobra.Command, args []string) { path = args[0] }
	cmd.RunE = c.run(func(ctx context.Context, a *app, out io.Writer) error {
		d := a.guard.Evaluate(ctx, path)
		switch {
		case d.State == guard.StateUnauthorized:
			fmt.Fprintf(out, "%s: redirect to %s\n", d.State, d.RedirectTo)
		case d.Found():
			fmt.Fprintf(out, "%s: %s%s\n", d.State, d.Match.Route.Name, formatVars(d.Match.Vars))
		default:
			fmt.Fprintf(out, "%s: page not found\n", d.State)
		}
		return nil
	})
	return cmd
}

func formatVars(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+vars[k])
	}
	return " " + strings.Join(parts, " ")
}
