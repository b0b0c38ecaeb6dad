package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"rederly/client/internal/auth"
	"rederly/client/internal/config"
	"rederly/client/internal/guard"
	"rederly/client/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// readPasswordFunc reads a password from a terminal without echo.
var readPasswordFunc = term.ReadPassword

type cli struct {
	in     io.Reader
	cfg    *config.Config
	logger *logrus.Logger

	verbose bool
}

func newRootCmd(in io.Reader) *cobra.Command {
	c := &cli{in: in}
	root := &cobra.Command{
		Use:   "rederly",
		Short: "Rederly course platform client",
		Long: `rederly - Rederly course platform client

Signs in against the Rederly backend, keeps the session between invocations,
shows the routes and menu available to the signed-in role and manages
per-student topic and question overrides.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if c.verbose {
				cfg.LogLevel = "debug"
			}
			c.cfg = cfg
			c.logger = logging.New(cfg.LogLevel, cfg.LogFormat)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.routesCmd(),
		c.menuCmd(),
		c.visitCmd(),
		c.overrideCmd(),
		c.doctorCmd(),
		versionCmd(),
	)
	return root
}

// run builds the client for one command and releases it afterwards. An error showing the
// session is no longer usable signs the user out.
func (c *cli) run(fn func(ctx context.Context, a *app, out io.Writer) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := newApp(ctx, c.cfg, c.logger)
		if err != nil {
			return err
		}
		defer a.close()
		err = fn(ctx, a, cmd.OutOrStdout())
		var lerr *auth.LoginError
		if !errors.As(err, &lerr) && a.guard.HandleError(ctx, "", err) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Session is no longer valid. Sign in again. Next: %s\n", guard.LoginPath)
		}
		return err
	}
}

// readPassword prompts on a terminal, otherwise reads one line from the command input.
func (c *cli) readPassword(out io.Writer) (string, error) {
	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, "Password: ")
		b, err := readPasswordFunc(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "rederly", version)
		},
	}
}
