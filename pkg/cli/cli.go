// Package cli provides the command-line interface for uixpath.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/uixpath/pkg/device"
	"github.com/devicelab-dev/uixpath/pkg/uiautomator2"
	"github.com/devicelab-dev/uixpath/pkg/uix"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "serial",
		Aliases: []string{"s"},
		Usage:   "Device serial to target (defaults to the first available device)",
		EnvVars: []string{"UIXPATH_SERIAL"},
	},
	&cli.IntFlag{
		Name:    "port",
		Usage:   "Local port forwarded to the on-device UIAutomator2 server (0 picks a free port)",
		EnvVars: []string{"UIXPATH_PORT"},
	},
	&cli.DurationFlag{
		Name:    "timeout",
		Aliases: []string{"t"},
		Usage:   "Default wait timeout for element lookups",
		EnvVars: []string{"UIXPATH_TIMEOUT"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"UIXPATH_VERBOSE"},
	},
}

// Execute runs the CLI.
func Execute() {
	app := &cli.App{
		Name:    "uixpath",
		Usage:   "Find and drive Android UI elements with shorthand XPath queries",
		Version: Version,
		Description: `uixpath resolves shorthand queries against the device UI hierarchy
and clicks, reads or screenshots the matched elements.

Query shorthands:
  //xpath        full XPath, used as-is
  @resource-id   element with that resource-id
  ^regex         element text matching a regular expression
  %text%         element text containing "text"
  text%          element text starting with "text"
  %text          element text ending with "text"
  text           element text or description equal to "text"

Examples:
  uixpath exists "Settings"
  uixpath click "@com.android.settings:id/search"
  uixpath text "^Batter.*"
  uixpath screenshot "Settings" -o settings.png
  uixpath watch --rules popups.yaml`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
			return nil
		},
		Commands: []*cli.Command{
			hierarchyCommand,
			existsCommand,
			clickCommand,
			textCommand,
			setTextCommand,
			infoCommand,
			screenshotCommand,
			watchCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newSession connects to the target device and opens an automation session.
// The returned cleanup ends the session.
func newSession(c *cli.Context) (*uix.Session, func(), error) {
	var (
		dev *device.AndroidDevice
		err error
	)
	if serial := c.String("serial"); serial != "" {
		dev, err = device.BySerial(serial)
	} else {
		dev, err = device.FirstAvailable()
	}
	if err != nil {
		return nil, nil, err
	}

	port := c.Int("port")
	if port == 0 {
		if port, err = device.FreePort(); err != nil {
			return nil, nil, err
		}
	}
	if err := dev.Forward(port); err != nil {
		return nil, nil, err
	}

	client := uiautomator2.NewClientTCP(port)
	if ready, err := client.Status(); err != nil || !ready {
		return nil, nil, fmt.Errorf("UIAutomator2 server not ready on %s (port %d)", dev.Serial, port)
	}
	if err := client.CreateSession(uiautomator2.Capabilities{}); err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	sess := uix.New(client)
	if t := c.Duration("timeout"); t > 0 {
		sess.ImplicitlyWait(t)
	}
	return sess, func() { client.Close() }, nil
}

// waitTimeout resolves the per-command wait from the global flag, falling
// back to the session default.
func waitTimeout(c *cli.Context, sess *uix.Session) time.Duration {
	if t := c.Duration("timeout"); t > 0 {
		return t
	}
	return sess.WaitTimeout()
}
