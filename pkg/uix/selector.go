package uix

import (
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/devicelab-dev/uixpath/pkg/query"
)

// Selector holds an ordered sequence of translated XPath queries plus an
// optional frozen snapshot. Every query in the sequence must match the same
// node, so chaining narrows the result, never broadens it.
type Selector struct {
	sess    *Session
	queries []string
	source  string // frozen snapshot, used instead of capturing when set
	last    string // snapshot used by the most recent resolve
	err     error  // deferred construction error (strict alias miss)
}

// XPath translates shorthand and appends it to the query sequence, returning
// the same selector for chaining.
func (sel *Selector) XPath(shorthand string) *Selector {
	if sel.err != nil {
		return sel
	}
	resolved, err := sel.sess.resolveAlias(shorthand)
	if err != nil {
		sel.err = err
		return sel
	}
	sel.queries = append(sel.queries, query.Translate(resolved))
	return sel
}

// WithSource freezes the selector to an explicit snapshot. Resolution then
// never recaptures.
func (sel *Selector) WithSource(source string) *Selector {
	sel.source = source
	return sel
}

// Queries returns the translated query sequence.
func (sel *Selector) Queries() []string {
	return append([]string(nil), sel.queries...)
}

// All resolves the query sequence against the frozen snapshot, or a freshly
// captured one, and returns every element matching all queries.
func (sel *Selector) All() ([]*Element, error) {
	if sel.err != nil {
		return nil, sel.err
	}
	source := sel.source
	if source == "" {
		var err error
		source, err = sel.sess.DumpHierarchy()
		if err != nil {
			return nil, err
		}
	}
	return sel.resolve(source)
}

// resolve evaluates every query independently against source and intersects
// the per-query match sets by node identity. The result keeps the document
// order of the first query's matches, so resolving the same snapshot twice
// yields the same ordering.
func (sel *Selector) resolve(source string) ([]*Element, error) {
	sel.last = source

	doc, err := xmlquery.Parse(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("parse hierarchy: %w", err)
	}
	normalizeTags(doc)

	var matched []*xmlquery.Node
	for i, q := range sel.queries {
		expr, err := xpath.Compile(q)
		if err != nil {
			return nil, fmt.Errorf("compile xpath %q: %w", q, err)
		}
		nodes := xmlquery.QuerySelectorAll(doc, expr)
		if i == 0 {
			matched = nodes
			continue
		}
		set := make(map[*xmlquery.Node]struct{}, len(nodes))
		for _, n := range nodes {
			set[n] = struct{}{}
		}
		kept := matched[:0]
		for _, n := range matched {
			if _, ok := set[n]; ok {
				kept = append(kept, n)
			}
		}
		matched = kept
	}

	els := make([]*Element, 0, len(matched))
	for _, n := range matched {
		els = append(els, &Element{node: n, sess: sel.sess})
	}
	return els, nil
}

// normalizeTags renames every hierarchy node to its class attribute so
// class-based XPath steps work, consuming the class attribute in the
// process. Class names may carry characters an XML tag cannot (a literal $
// in inner classes), replaced with "-". Nodes without a class keep the
// generic "node" tag.
func normalizeTags(n *xmlquery.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == "node" {
			tag := "node"
			attrs := c.Attr[:0]
			for _, a := range c.Attr {
				if a.Name.Local == "class" {
					if s := safeTag(a.Value); s != "" {
						tag = s
					}
					continue
				}
				attrs = append(attrs, a)
			}
			c.Attr = attrs
			c.Data = tag
		}
		normalizeTags(c)
	}
}

func safeTag(s string) string {
	return strings.ReplaceAll(s, "$", "-")
}

// Exists reports whether at least one element currently matches.
func (sel *Selector) Exists() (bool, error) {
	els, err := sel.All()
	if err != nil {
		return false, err
	}
	return len(els) > 0, nil
}

// Get returns the first match, waiting up to the session's default timeout.
func (sel *Selector) Get() (*Element, error) {
	el, err := sel.Wait(sel.sess.WaitTimeout())
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, &NotFoundError{Queries: sel.queries, Timeout: sel.sess.WaitTimeout()}
	}
	return el, nil
}

// GetLastMatch returns the first match against the snapshot used by the most
// recent resolve, without recapturing. Before any resolve it behaves like
// All.
func (sel *Selector) GetLastMatch() (*Element, error) {
	if sel.err != nil {
		return nil, sel.err
	}
	var (
		els []*Element
		err error
	)
	if sel.last == "" {
		els, err = sel.All()
	} else {
		els, err = sel.resolve(sel.last)
	}
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, &NotFoundError{Queries: sel.queries}
	}
	return els[0], nil
}

// Wait polls until the selector matches or timeout elapses, returning the
// first match or nil when nothing appeared. A zero timeout performs exactly
// one resolve without sleeping; a negative timeout uses the session default.
func (sel *Selector) Wait(timeout time.Duration) (*Element, error) {
	if sel.err != nil {
		return nil, sel.err
	}
	if timeout < 0 {
		timeout = sel.sess.WaitTimeout()
	}
	deadline := time.Now().Add(timeout)
	for {
		els, err := sel.All()
		if err != nil {
			return nil, err
		}
		if len(els) > 0 {
			return els[0], nil
		}
		if !time.Now().Before(deadline) {
			return nil, nil
		}
		time.Sleep(pollInterval)
	}
}

// WaitGone polls until no element matches, reporting whether the element
// disappeared before timeout. Timeout semantics match Wait.
func (sel *Selector) WaitGone(timeout time.Duration) (bool, error) {
	if sel.err != nil {
		return false, sel.err
	}
	if timeout < 0 {
		timeout = sel.sess.WaitTimeout()
	}
	deadline := time.Now().Add(timeout)
	for {
		els, err := sel.All()
		if err != nil {
			return false, err
		}
		if len(els) == 0 {
			return true, nil
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}
		time.Sleep(pollInterval)
	}
}

// Click recaptures and resolves until a match appears or timeout elapses,
// then clicks the first match. A non-positive timeout uses the session
// default. preDelay sleeps between matching and clicking; after the click a
// short settle delay runs before returning.
func (sel *Selector) Click(timeout, preDelay time.Duration) error {
	if sel.err != nil {
		return sel.err
	}
	s := sel.sess
	if timeout <= 0 {
		timeout = s.WaitTimeout()
	}
	s.logger.Info("click", "timeout", timeout, "queries", sel.queries)

	deadline := time.Now().Add(timeout)
	for {
		source, err := s.DumpHierarchy()
		if err != nil {
			return err
		}
		els, err := sel.resolve(source)
		if err != nil {
			return err
		}
		if len(els) > 0 {
			if preDelay > 0 {
				s.logger.Debug("pre-delay before click", "delay", preDelay)
				time.Sleep(preDelay)
			}
			if err := els[0].Click(); err != nil {
				return err
			}
			time.Sleep(settleDelay)
			return nil
		}
		if time.Now().After(deadline) {
			break
		}
		time.Sleep(clickInterval)
	}
	return &NotFoundError{Queries: sel.queries, Timeout: timeout}
}

// ClickNoWait resolves immediately, with no retry, and clicks the first
// match's center.
func (sel *Selector) ClickNoWait() error {
	els, err := sel.All()
	if err != nil {
		return err
	}
	if len(els) == 0 {
		return &NotFoundError{Queries: sel.queries}
	}
	x, y, err := els[0].Center()
	if err != nil {
		return err
	}
	sel.sess.logger.Info("click", "x", x, "y", y)
	return sel.sess.SendClick(x, y)
}

// GetText returns the text attribute of the first match, waiting for it to
// appear.
func (sel *Selector) GetText() (string, error) {
	el, err := sel.Get()
	if err != nil {
		return "", err
	}
	return el.Text(), nil
}

// SetText waits for the first match, clears the focused input, clicks the
// element to focus it, then types text.
func (sel *Selector) SetText(text string) error {
	el, err := sel.Get()
	if err != nil {
		return err
	}
	if err := sel.sess.SendText(""); err != nil {
		return err
	}
	if err := el.Click(); err != nil {
		return err
	}
	return sel.sess.SendText(text)
}

// Screenshot waits for the first match and returns the screen cropped to its
// bounds.
func (sel *Selector) Screenshot() (image.Image, error) {
	el, err := sel.Get()
	if err != nil {
		return nil, err
	}
	return el.Screenshot()
}
