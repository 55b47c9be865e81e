package uix

import (
	"errors"
	"testing"
	"time"
)

func TestSelectExists(t *testing.T) {
	sess := New(newFakeDevice(settingsXML))

	found, err := sess.Select("Settings").Exists()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Error("expected Settings to exist")
	}

	found, err = sess.Select("No Such Element").Exists()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected no match")
	}
}

func TestSelectByContentDesc(t *testing.T) {
	sess := New(newFakeDevice(settingsXML))

	found, err := sess.Select("icon").Exists()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Error("expected content-desc match for icon")
	}
}

func TestSelectShorthandVariants(t *testing.T) {
	sess := New(newFakeDevice(settingsXML))

	tests := []struct {
		shorthand string
		want      int
	}{
		{"@com.android.settings:id/title", 2},
		{"^Batter.*", 1},
		{"%atter%", 1},
		{"Battery%", 1},
		{"%saver", 1},
		{"//android.widget.TextView", 2},
		{"//android.widget.ImageView-Round", 1}, // $ in class is normalized to -
	}
	for _, tt := range tests {
		els, err := sess.Select(tt.shorthand).All()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.shorthand, err)
		}
		if len(els) != tt.want {
			t.Errorf("%s: got %d matches, want %d", tt.shorthand, len(els), tt.want)
		}
	}
}

func TestGetCenter(t *testing.T) {
	sess := New(newFakeDevice(settingsXML))

	el, err := sess.Select("Settings").Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	x, y, err := el.Center()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if x != 100 || y != 25 {
		t.Errorf("center = (%d, %d), want (100, 25)", x, y)
	}
}

func TestIntersectionNarrows(t *testing.T) {
	sess := New(newFakeDevice(settingsXML))

	// Two queries resolve to the one node matching both.
	els, err := sess.Select("Settings").XPath("@com.android.settings:id/title").All()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(els) != 1 {
		t.Fatalf("got %d matches, want 1", len(els))
	}
	if els[0].Text() != "Settings" {
		t.Errorf("got text %q, want Settings", els[0].Text())
	}

	// A query matching a disjoint node empties the intersection.
	els, err = sess.Select("Settings").XPath("@com.android.settings:id/icon").All()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(els) != 0 {
		t.Errorf("got %d matches, want 0", len(els))
	}
}

func TestIntersectionLaw(t *testing.T) {
	sess := New(newFakeDevice(settingsXML))
	queries := []string{"@com.android.settings:id/title", "%atter%"}

	combined, err := sess.Select(queries[0]).XPath(queries[1]).WithSource(settingsXML).All()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Resolve each independently and intersect by info identity.
	seen := map[Info]int{}
	for _, q := range queries {
		els, err := sess.Select(q).WithSource(settingsXML).All()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, el := range els {
			info, err := el.Info()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			seen[info]++
		}
	}
	var both []Info
	for info, n := range seen {
		if n == len(queries) {
			both = append(both, info)
		}
	}

	if len(combined) != len(both) {
		t.Fatalf("combined resolve has %d elements, independent intersection %d", len(combined), len(both))
	}
	for _, el := range combined {
		info, _ := el.Info()
		if seen[info] != len(queries) {
			t.Errorf("element %+v not in independent intersection", info)
		}
	}
}

func TestResolveDeterministic(t *testing.T) {
	sess := New(newFakeDevice(settingsXML))
	sel := sess.Select("@com.android.settings:id/title").WithSource(settingsXML)

	first, err := sel.All()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := sel.All()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("resolve sizes differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Text() != second[i].Text() {
			t.Errorf("order changed at %d: %q vs %q", i, first[i].Text(), second[i].Text())
		}
	}
	// Document order puts Settings before Battery saver.
	if first[0].Text() != "Settings" {
		t.Errorf("first match %q, want Settings", first[0].Text())
	}
}

func TestFrozenSourceSkipsCapture(t *testing.T) {
	dev := newFakeDevice(settingsXML)
	sess := New(dev)

	if _, err := sess.Select("Settings").WithSource(settingsXML).All(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dev.dumpCount() != 0 {
		t.Errorf("frozen resolve captured %d snapshots, want 0", dev.dumpCount())
	}
}

func TestWaitZeroTimeoutSingleAttempt(t *testing.T) {
	dev := newFakeDevice(emptyXML)
	sess := New(dev)

	start := time.Now()
	el, err := sess.Select("Settings").Wait(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if el != nil {
		t.Error("expected no match")
	}
	if dev.dumpCount() != 1 {
		t.Errorf("Wait(0) captured %d snapshots, want exactly 1", dev.dumpCount())
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Wait(0) slept (%v), want immediate return", elapsed)
	}
}

func TestWaitFindsLateElement(t *testing.T) {
	dev := newFakeDevice(settingsXML)
	dev.sources = []string{emptyXML, emptyXML}
	sess := New(dev)

	el, err := sess.Select("Settings").Wait(2 * time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if el == nil {
		t.Fatal("expected a match once the element appeared")
	}
	if dev.dumpCount() < 3 {
		t.Errorf("captured %d snapshots, want at least 3", dev.dumpCount())
	}
}

func TestWaitGone(t *testing.T) {
	dev := newFakeDevice(emptyXML)
	dev.sources = []string{settingsXML, settingsXML}
	sess := New(dev)

	gone, err := sess.Select("Settings").WaitGone(2 * time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gone {
		t.Error("expected element to go away")
	}

	gone, err = sess.Select("Settings").WaitGone(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gone {
		t.Error("element still present, WaitGone should report false")
	}
}

func TestClickNoWait(t *testing.T) {
	dev := newFakeDevice(settingsXML)
	sess := New(dev)

	if err := sess.Select("Settings").ClickNoWait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	click, err := dev.lastClick()
	if err != nil {
		t.Fatal(err)
	}
	if click != [2]int{100, 25} {
		t.Errorf("clicked %v, want (100, 25)", click)
	}
}

func TestClickNoWaitNotFound(t *testing.T) {
	sess := New(newFakeDevice(emptyXML))

	err := sess.Select("Settings").ClickNoWait()
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}

func TestClickRetriesUntilDeadline(t *testing.T) {
	dev := newFakeDevice(emptyXML)
	sess := New(dev)

	err := sess.Select("Settings").Click(time.Nanosecond, 0)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
	if nf.Timeout != time.Nanosecond {
		t.Errorf("error timeout %v, want the wait that was given", nf.Timeout)
	}
	if len(nf.Queries) != 1 {
		t.Errorf("error carries %d queries, want 1", len(nf.Queries))
	}
}

func TestGetNotFoundNamesQueries(t *testing.T) {
	dev := newFakeDevice(emptyXML)
	dev.wait = time.Nanosecond
	sess := New(dev)

	_, err := sess.Select("Settings").XPath("@some:id/x").Get()
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
	if len(nf.Queries) != 2 {
		t.Errorf("error carries %d queries, want the full sequence of 2", len(nf.Queries))
	}
}

func TestGetText(t *testing.T) {
	sess := New(newFakeDevice(settingsXML))

	text, err := sess.Select("@com.android.settings:id/title").GetText()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Settings" {
		t.Errorf("got %q, want Settings", text)
	}
}

func TestSetText(t *testing.T) {
	dev := newFakeDevice(settingsXML)
	sess := New(dev)

	if err := sess.Select("Settings").SetText("hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Clear first, then type after the focusing click.
	if len(dev.texts) != 2 || dev.texts[0] != "" || dev.texts[1] != "hello" {
		t.Errorf("sent texts %v, want [\"\", \"hello\"]", dev.texts)
	}
	if len(dev.clicks) != 1 {
		t.Errorf("recorded %d clicks while focusing, want 1", len(dev.clicks))
	}
}

func TestGetLastMatchUsesCachedSnapshot(t *testing.T) {
	dev := newFakeDevice(settingsXML)
	sess := New(dev)
	sel := sess.Select("Settings")

	if _, err := sel.All(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	captured := dev.dumpCount()

	el, err := sel.GetLastMatch()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if el.Text() != "Settings" {
		t.Errorf("got %q, want Settings", el.Text())
	}
	if dev.dumpCount() != captured {
		t.Errorf("GetLastMatch recaptured (%d -> %d dumps)", captured, dev.dumpCount())
	}
}

func TestMalformedXMLSurfacesError(t *testing.T) {
	sess := New(newFakeDevice("<hierarchy><node"))

	if _, err := sess.Select("Settings").All(); err == nil {
		t.Error("expected parse error for truncated XML")
	}
}
