// Package uix locates elements in a device's UI hierarchy with shorthand
// XPath queries and drives clicks, swipes and screenshots from their
// geometry.
//
// The Session owns snapshot capture and interaction dispatch over a Device
// transport; selectors built with Session.Select resolve queries against
// captured snapshots and retry under a deadline.
package uix

import (
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/devicelab-dev/uixpath/pkg/query"
)

// Device is the capability surface a session needs from a device transport.
// Implemented by uiautomator2.Client.
type Device interface {
	Click(x, y int) error
	Swipe(fromX, fromY, toX, toY int, duration time.Duration) error
	WindowSize() (width, height int, err error)
	DumpHierarchy() (string, error)
	Screenshot() (image.Image, error)
	// SendText clears the focused input, then types text when non-empty.
	SendText(text string) error
	WaitTimeout() time.Duration
	SetWaitTimeout(time.Duration)
}

// ClickCallback observes click dispatch. Callbacks registered under
// EventSendClick run after the pre-click delay and before the physical
// click.
type ClickCallback func(x, y int)

// EventSendClick names the callback list invoked on click dispatch.
const EventSendClick = "send_click"

const (
	pollInterval  = 200 * time.Millisecond // Wait/WaitGone sampling
	clickInterval = 500 * time.Millisecond // Click retry recapture rate
	settleDelay   = 500 * time.Millisecond // sleep after a successful click
	swipeDuration = 500 * time.Millisecond
)

// Session owns snapshot capture, timeout policy and interaction dispatch for
// one device. Safe for sequential reuse across polling iterations; concurrent
// snapshot captures serialize on an internal lock.
type Session struct {
	dev    Device
	logger *slog.Logger

	clickBeforeDelay time.Duration
	clickAfterDelay  time.Duration
	alias            map[string]string
	aliasStrict      bool

	mu         sync.Mutex // serializes capture and guards lastSource
	lastSource string

	cbMu      sync.Mutex
	callbacks map[string][]ClickCallback
}

// Option configures a Session.
type Option func(*Session)

// WithLogger overrides the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New creates a session over dev.
func New(dev Device, opts ...Option) *Session {
	s := &Session{
		dev:       dev,
		logger:    slog.Default(),
		alias:     map[string]string{},
		callbacks: map[string][]ClickCallback{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set updates one global option by name. Valid keys: "timeout"
// (time.Duration), "alias" (map[string]string), "alias_strict" (bool),
// "click_after_delay" and "click_before_delay" (time.Duration). Any other
// key is an InvalidConfigKeyError.
func (s *Session) Set(key string, value any) error {
	switch key {
	case "timeout":
		d, err := asDuration(key, value)
		if err != nil {
			return err
		}
		s.ImplicitlyWait(d)
	case "alias":
		m, ok := value.(map[string]string)
		if !ok {
			return fmt.Errorf("config %q: want map[string]string, got %T", key, value)
		}
		s.alias = m
	case "alias_strict":
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("config %q: want bool, got %T", key, value)
		}
		s.aliasStrict = b
	case "click_after_delay":
		d, err := asDuration(key, value)
		if err != nil {
			return err
		}
		s.clickAfterDelay = d
	case "click_before_delay":
		d, err := asDuration(key, value)
		if err != nil {
			return err
		}
		s.clickBeforeDelay = d
	default:
		return &InvalidConfigKeyError{Key: key}
	}
	return nil
}

func asDuration(key string, value any) (time.Duration, error) {
	d, ok := value.(time.Duration)
	if !ok {
		return 0, fmt.Errorf("config %q: want time.Duration, got %T", key, value)
	}
	return d, nil
}

// ImplicitlyWait sets the default timeout used by Get/Click waits.
func (s *Session) ImplicitlyWait(d time.Duration) {
	s.dev.SetWaitTimeout(d)
}

// WaitTimeout returns the default wait timeout.
func (s *Session) WaitTimeout() time.Duration {
	return s.dev.WaitTimeout()
}

// DumpHierarchy captures a fresh snapshot and caches it as the last source.
func (s *Session) DumpHierarchy() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, err := s.dev.DumpHierarchy()
	if err != nil {
		return "", fmt.Errorf("dump hierarchy: %w", err)
	}
	s.lastSource = src
	return src, nil
}

// LastHierarchy returns the most recently captured snapshot, for diagnostics.
// Empty before the first capture.
func (s *Session) LastHierarchy() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSource
}

// AddEventListener registers a callback under an event name. Lists are
// append-only.
func (s *Session) AddEventListener(event string, cb ClickCallback) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.callbacks[event] = append(s.callbacks[event], cb)
}

// SendClick dispatches a click at (x, y), applying the configured pre/post
// delays and the send_click callbacks.
func (s *Session) SendClick(x, y int) error {
	if s.clickBeforeDelay > 0 {
		s.logger.Debug("click before delay", "delay", s.clickBeforeDelay)
		time.Sleep(s.clickBeforeDelay)
	}

	s.cbMu.Lock()
	cbs := append([]ClickCallback(nil), s.callbacks[EventSendClick]...)
	s.cbMu.Unlock()
	for _, cb := range cbs {
		cb(x, y)
	}

	if err := s.dev.Click(x, y); err != nil {
		return fmt.Errorf("click (%d,%d): %w", x, y, err)
	}

	if s.clickAfterDelay > 0 {
		s.logger.Debug("click after delay", "delay", s.clickAfterDelay)
		time.Sleep(s.clickAfterDelay)
	}
	return nil
}

// SendSwipe dispatches a swipe with the default gesture duration.
func (s *Session) SendSwipe(fromX, fromY, toX, toY int) error {
	if err := s.dev.Swipe(fromX, fromY, toX, toY, swipeDuration); err != nil {
		return fmt.Errorf("swipe (%d,%d)->(%d,%d): %w", fromX, fromY, toX, toY, err)
	}
	return nil
}

// SendText forwards keyboard input to the device. Empty text only clears the
// focused field.
func (s *Session) SendText(text string) error {
	return s.dev.SendText(text)
}

// TakeScreenshot captures the full device screen.
func (s *Session) TakeScreenshot() (image.Image, error) {
	return s.dev.Screenshot()
}

// Select builds a selector from a shorthand query. A leading "$" resolves
// through the alias table first.
func (s *Session) Select(shorthand string) *Selector {
	sel := &Selector{sess: s}
	resolved, err := s.resolveAlias(shorthand)
	if err != nil {
		sel.err = err
		return sel
	}
	sel.queries = []string{query.Translate(resolved)}
	return sel
}

// Match reports whether shorthand matches at least one element in source.
func (s *Session) Match(shorthand, source string) (bool, error) {
	return s.Select(shorthand).WithSource(source).Exists()
}

// Click waits for shorthand to match and clicks the first match. A
// non-positive timeout uses the default wait timeout; preDelay sleeps
// between matching and clicking.
func (s *Session) Click(shorthand string, timeout, preDelay time.Duration) error {
	return s.Select(shorthand).Click(timeout, preDelay)
}

// resolveAlias maps "$name" through the alias table. Without alias_strict an
// unknown name falls back to the name itself.
func (s *Session) resolveAlias(shorthand string) (string, error) {
	if !strings.HasPrefix(shorthand, "$") {
		return shorthand, nil
	}
	name := shorthand[1:]
	if v, ok := s.alias[name]; ok {
		return v, nil
	}
	if s.aliasStrict {
		return "", fmt.Errorf("alias not found: %q", name)
	}
	return name, nil
}
