package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/uixpath/pkg/watcher"
)

var hierarchyCommand = &cli.Command{
	Name:  "hierarchy",
	Usage: "Dump the current UI hierarchy XML",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write to a file instead of stdout",
		},
	},
	Action: func(c *cli.Context) error {
		sess, cleanup, err := newSession(c)
		if err != nil {
			return err
		}
		defer cleanup()

		source, err := sess.DumpHierarchy()
		if err != nil {
			return err
		}
		if out := c.String("output"); out != "" {
			return writeFileAtomic(out, []byte(source))
		}
		fmt.Println(source)
		return nil
	},
}

var existsCommand = &cli.Command{
	Name:      "exists",
	Usage:     "Check whether a query matches any element",
	ArgsUsage: "<query>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("usage: exists <query>")
		}
		sess, cleanup, err := newSession(c)
		if err != nil {
			return err
		}
		defer cleanup()

		found, err := sess.Select(c.Args().First()).Exists()
		if err != nil {
			return err
		}
		fmt.Println(found)
		if !found {
			os.Exit(1)
		}
		return nil
	},
}

var clickCommand = &cli.Command{
	Name:      "click",
	Usage:     "Wait for a query to match and click the element",
	ArgsUsage: "<query>",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:  "pre-delay",
			Usage: "Sleep between matching and clicking",
		},
		&cli.BoolFlag{
			Name:  "no-wait",
			Usage: "Resolve once and click without retrying",
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("usage: click <query>")
		}
		sess, cleanup, err := newSession(c)
		if err != nil {
			return err
		}
		defer cleanup()

		sel := sess.Select(c.Args().First())
		if c.Bool("no-wait") {
			return sel.ClickNoWait()
		}
		return sel.Click(waitTimeout(c, sess), c.Duration("pre-delay"))
	},
}

var textCommand = &cli.Command{
	Name:      "text",
	Usage:     "Print the text of the first matching element",
	ArgsUsage: "<query>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("usage: text <query>")
		}
		sess, cleanup, err := newSession(c)
		if err != nil {
			return err
		}
		defer cleanup()

		text, err := sess.Select(c.Args().First()).GetText()
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

var setTextCommand = &cli.Command{
	Name:      "set-text",
	Usage:     "Focus the first matching element and type text into it",
	ArgsUsage: "<query> <text>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return fmt.Errorf("usage: set-text <query> <text>")
		}
		sess, cleanup, err := newSession(c)
		if err != nil {
			return err
		}
		defer cleanup()

		return sess.Select(c.Args().Get(0)).SetText(c.Args().Get(1))
	},
}

var infoCommand = &cli.Command{
	Name:      "info",
	Usage:     "Print attributes of the first matching element as JSON",
	ArgsUsage: "<query>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("usage: info <query>")
		}
		sess, cleanup, err := newSession(c)
		if err != nil {
			return err
		}
		defer cleanup()

		el, err := sess.Select(c.Args().First()).Get()
		if err != nil {
			return err
		}
		info, err := el.Info()
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var screenshotCommand = &cli.Command{
	Name:      "screenshot",
	Usage:     "Save a screenshot cropped to the first matching element",
	ArgsUsage: "<query>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output PNG path",
			Value:   "element.png",
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("usage: screenshot <query>")
		}
		sess, cleanup, err := newSession(c)
		if err != nil {
			return err
		}
		defer cleanup()

		img, err := sess.Select(c.Args().First()).Screenshot()
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return err
		}
		if err := writeFileAtomic(c.String("output"), buf.Bytes()); err != nil {
			return err
		}
		fmt.Printf("Saved %s\n", c.String("output"))
		return nil
	},
}

var watchCommand = &cli.Command{
	Name:  "watch",
	Usage: "Poll the UI and fire YAML-defined rules until interrupted",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "rules",
			Aliases:  []string{"r"},
			Usage:    "YAML rules file",
			Required: true,
		},
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "Poll interval",
			Value: 4 * time.Second,
		},
	},
	Action: func(c *cli.Context) error {
		data, err := os.ReadFile(c.String("rules"))
		if err != nil {
			return err
		}
		rules, err := watcher.ParseRules(data)
		if err != nil {
			return err
		}

		sess, cleanup, err := newSession(c)
		if err != nil {
			return err
		}
		defer cleanup()

		w := watcher.New(sess, rules)
		if err := w.Start(c.Duration("interval")); err != nil {
			return err
		}
		defer w.Stop()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		return nil
	},
}
