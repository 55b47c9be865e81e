// Package watcher applies "when this appears, do that" rules against the
// device UI, loaded from YAML and polled in the background. It stays outside
// the selector core and drives it only through the public session API.
package watcher

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dop251/goja"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/uixpath/pkg/uix"
)

// Rule pairs a shorthand query with an action. Then is either the literal
// "click" or a JavaScript body run when the query matches.
//
//	- when: "@com.example.app/popup_close"
//	  then: click
//	- when: "Continue"
//	  then: d.click(el.bounds.left + 10, el.bounds.top + 10)
type Rule struct {
	When string `yaml:"when"`
	Then string `yaml:"then"`
}

// ParseRules loads rules from YAML.
func ParseRules(data []byte) ([]Rule, error) {
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse watcher rules: %w", err)
	}
	for i, r := range rules {
		if r.When == "" {
			return nil, fmt.Errorf("rule %d: missing when", i)
		}
		if r.Then == "" {
			return nil, fmt.Errorf("rule %d: missing then", i)
		}
	}
	return rules, nil
}

// Watcher polls the hierarchy and fires rule actions on match.
type Watcher struct {
	sess   *uix.Session
	rules  []Rule
	logger *slog.Logger

	mu      sync.Mutex
	stop    chan struct{}
	running bool
}

// New creates a watcher over sess.
func New(sess *uix.Session, rules []Rule) *Watcher {
	return &Watcher{sess: sess, rules: rules, logger: slog.Default()}
}

// RunOnce captures one snapshot and fires every rule whose query matches it.
// Returns the number of rules triggered.
func (w *Watcher) RunOnce() (int, error) {
	source, err := w.sess.DumpHierarchy()
	if err != nil {
		return 0, err
	}

	triggered := 0
	for _, r := range w.rules {
		els, err := w.sess.Select(r.When).WithSource(source).All()
		if err != nil {
			return triggered, fmt.Errorf("rule %q: %w", r.When, err)
		}
		if len(els) == 0 {
			continue
		}
		w.logger.Info("watcher rule triggered", "when", r.When, "then", r.Then)
		if err := w.fire(r, els[0]); err != nil {
			return triggered, fmt.Errorf("rule %q: %w", r.When, err)
		}
		triggered++
	}
	return triggered, nil
}

func (w *Watcher) fire(r Rule, el *uix.Element) error {
	if r.Then == "click" {
		return el.Click()
	}
	return w.runScript(r.Then, el)
}

// runScript evaluates a JavaScript rule body. The script sees the matched
// element's info as "el" and a "d" object with click(x, y) and
// swipe(fromX, fromY, toX, toY).
func (w *Watcher) runScript(src string, el *uix.Element) error {
	info, err := el.Info()
	if err != nil {
		return err
	}

	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	if err := vm.Set("el", info); err != nil {
		return err
	}
	dispatch := map[string]any{
		"click": func(x, y int) error { return w.sess.SendClick(x, y) },
		"swipe": func(fromX, fromY, toX, toY int) error {
			return w.sess.SendSwipe(fromX, fromY, toX, toY)
		},
	}
	if err := vm.Set("d", dispatch); err != nil {
		return err
	}

	if _, err := vm.RunString(src); err != nil {
		return fmt.Errorf("watcher script: %w", err)
	}
	return nil
}

// Start polls in the background until Stop. Poll errors are logged and do
// not end the loop.
func (w *Watcher) Start(interval time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("watcher already running")
	}
	w.stop = make(chan struct{})
	w.running = true
	go w.loop(interval, w.stop)
	return nil
}

func (w *Watcher) loop(interval time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := w.RunOnce(); err != nil {
				w.logger.Warn("watcher poll failed", "error", err)
			}
		}
	}
}

// Stop halts background polling. Safe to call when not running.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	close(w.stop)
	w.running = false
}
