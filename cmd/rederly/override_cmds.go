package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"rederly/client/internal/overrides"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func (c *cli) overrideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Show or extend a student's topic and question overrides",
	}
	cmd.AddCommand(c.overrideShowCmd(), c.overrideExtendCmd())
	return cmd
}

func (c *cli) overrideShowCmd() *cobra.Command {
	var userID int
	cmd := &cobra.Command{
		Use:     "show <topic|question> <id>",
		Short:   "Show the effective override values for a student",
		Example: `  rederly override show topic 5 --user 7`,
		Args:    cobra.ExactArgs(2),
	}
	var target overrides.Target
	cmd.PreRunE = func(cmd *cobra.Command, args []string) (err error) {
		target, err = parseTarget(args)
		return err
	}
	cmd.RunE = c.run(func(ctx context.Context, a *app, out io.Writer) error {
		if err := a.overrides.Load(ctx, target, userID); err != nil {
			return err
		}
		printView(out, a.overrides.View())
		return nil
	})
	cmd.Flags().IntVar(&userID, "user", 0, "student user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func (c *cli) overrideExtendCmd() *cobra.Command {
	var userID int
	cmd := &cobra.Command{
		Use:   "extend <topic|question> <id>",
		Short: "Extend a topic or question for a student",
		Long: `Loads the student's current values, applies the given flags and submits the override.
Topic dates accept RFC 3339, 2006-01-02T15:04 or 2006-01-02. Timed-assessment
flags apply only to topics with assessment info. -1 means unlimited.`,
		Example: `  rederly override extend topic 5 --user 7 --end 2024-02-01 --dead 2024-02-08
  rederly override extend question 12 --user 7 --max-attempts -1`,
		Args: cobra.ExactArgs(2),
	}
	f := cmd.Flags()
	f.IntVar(&userID, "user", 0, "student user id")
	f.String("start", "", "topic start date")
	f.String("end", "", "topic end date")
	f.String("dead", "", "topic dead date")
	f.Int("max-graded-attempts", 0, "graded attempts per version (timed topics)")
	f.Int("max-versions", 0, "versions (timed topics)")
	f.Int("version-delay", 0, "minutes between versions (timed topics)")
	f.Int("duration", 0, "minutes per version (timed topics)")
	f.Int("max-attempts", 0, "question attempts")
	_ = cmd.MarkFlagRequired("user")

	var target overrides.Target
	cmd.PreRunE = func(cmd *cobra.Command, args []string) (err error) {
		target, err = parseTarget(args)
		return err
	}
	cmd.RunE = c.run(func(ctx context.Context, a *app, out io.Writer) error {
		if err := a.overrides.Load(ctx, target, userID); err != nil {
			return err
		}
		v := a.overrides.View()
		form := v.Form
		if err := applyFlags(f, &form, v.Timed); err != nil {
			return err
		}

		err := a.overrides.Submit(ctx, form)
		var verr *overrides.ValidationError
		if errors.As(err, &verr) {
			for _, fe := range verr.Fields {
				fmt.Fprintf(out, "%s: %s\n", fe.Field, fe.Error)
			}
			return errors.New("override not submitted")
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Override saved.")
		printView(out, a.overrides.View())
		return nil
	})
	return cmd
}

func parseTarget(args []string) (overrides.Target, error) {
	id, err := strconv.Atoi(args[1])
	if err != nil || id <= 0 {
		return overrides.Target{}, fmt.Errorf("invalid id %q", args[1])
	}
	switch args[0] {
	case string(overrides.KindTopic):
		return overrides.TopicTarget(id), nil
	case string(overrides.KindQuestion):
		return overrides.QuestionTarget(id), nil
	}
	return overrides.Target{}, fmt.Errorf("unknown target kind %q, want topic or question", args[0])
}

// applyFlags copies the flags the user set onto the loaded form.
func applyFlags(f *pflag.FlagSet, form *overrides.Form, timed bool) error {
	if q := form.Question; q != nil {
		if f.Changed("max-attempts") {
			q.MaxAttempts, _ = f.GetInt("max-attempts")
		}
		return nil
	}
	t := form.Topic
	for name, dst := range map[string]**time.Time{"start": &t.StartDate, "end": &t.EndDate, "dead": &t.DeadDate} {
		if !f.Changed(name) {
			continue
		}
		raw, _ := f.GetString(name)
		d, err := parseDate(raw)
		if err != nil {
			return fmt.Errorf("--%s: %w", name, err)
		}
		*dst = &d
	}
	if !timed {
		return nil
	}
	if t.Assessment == nil {
		t.Assessment = &overrides.AssessmentForm{}
	}
	for name, dst := range map[string]*int{
		"max-graded-attempts": &t.Assessment.MaxGradedAttemptsPerVersion,
		"max-versions":        &t.Assessment.MaxVersions,
		"version-delay":       &t.Assessment.VersionDelay,
		"duration":            &t.Assessment.Duration,
	} {
		if f.Changed(name) {
			*dst, _ = f.GetInt(name)
		}
	}
	return nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

func printView(out io.Writer, v overrides.View) {
	fmt.Fprintf(out, "%s for user %d\n", v.Target, v.UserID)
	if q := v.Form.Question; q != nil {
		fmt.Fprintf(out, "  maxAttempts: %d\n", q.MaxAttempts)
		return
	}
	t := v.Form.Topic
	if t == nil {
		return
	}
	fmt.Fprintf(out, "  startDate: %s\n", formatDate(t.StartDate))
	fmt.Fprintf(out, "  endDate:   %s\n", formatDate(t.EndDate))
	fmt.Fprintf(out, "  deadDate:  %s\n", formatDate(t.DeadDate))
	if a := t.Assessment; v.Timed && a != nil {
		fmt.Fprintf(out, "  maxGradedAttemptsPerVersion: %d\n", a.MaxGradedAttemptsPerVersion)
		fmt.Fprintf(out, "  maxVersions: %d\n", a.MaxVersions)
		fmt.Fprintf(out, "  versionDelay: %d\n", a.VersionDelay)
		fmt.Fprintf(out, "  duration: %d\n", a.Duration)
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}
