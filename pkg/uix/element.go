package uix

import (
	"fmt"
	"image"
	"regexp"
	"strconv"

	"github.com/antchfx/xmlquery"
	"github.com/disintegration/imaging"
)

var digitRun = regexp.MustCompile(`\d+`)

// Bounds is the pixel rectangle attributed to a hierarchy node.
type Bounds struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Rect is the same region expressed as origin plus size.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Element wraps one matched hierarchy node. All geometry operations are pure
// reads over the node's attributes; interactions dispatch through the owning
// session.
type Element struct {
	node *xmlquery.Node
	sess *Session
}

// Attr returns a raw node attribute, empty when absent.
func (el *Element) Attr(name string) string {
	return el.node.SelectAttr(name)
}

// Text returns the node's text attribute.
func (el *Element) Text() string {
	return el.Attr("text")
}

// ClassName returns the normalized tag derived from the node's class.
func (el *Element) ClassName() string {
	return el.node.Data
}

// Bounds parses the bounds attribute, normally "[l,t][r,b]". The scan is
// permissive: the first four digit runs are taken in order regardless of
// separators. Fewer than four runs, or an inverted rectangle, is an error.
func (el *Element) Bounds() (Bounds, error) {
	raw := el.Attr("bounds")
	runs := digitRun.FindAllString(raw, -1)
	if len(runs) < 4 {
		return Bounds{}, &MalformedBoundsError{Raw: raw}
	}
	vals := make([]int, 4)
	for i := range vals {
		v, err := strconv.Atoi(runs[i])
		if err != nil {
			return Bounds{}, &MalformedBoundsError{Raw: raw}
		}
		vals[i] = v
	}
	b := Bounds{Left: vals[0], Top: vals[1], Right: vals[2], Bottom: vals[3]}
	if b.Right < b.Left || b.Bottom < b.Top {
		return Bounds{}, &MalformedBoundsError{Raw: raw}
	}
	return b, nil
}

// Rect returns the bounds as origin and size.
func (el *Element) Rect() (Rect, error) {
	b, err := el.Bounds()
	if err != nil {
		return Rect{}, err
	}
	return Rect{X: b.Left, Y: b.Top, Width: b.Right - b.Left, Height: b.Bottom - b.Top}, nil
}

// Offset returns the point at (px, py) of the element's size measured from
// its top-left corner. Offset(0.5, 0.5) is the center.
func (el *Element) Offset(px, py float64) (x, y int, err error) {
	r, err := el.Rect()
	if err != nil {
		return 0, 0, err
	}
	return r.X + int(float64(r.Width)*px), r.Y + int(float64(r.Height)*py), nil
}

// Center returns the element's center point.
func (el *Element) Center() (x, y int, err error) {
	return el.Offset(0.5, 0.5)
}

// PercentSize returns the element's size as a fraction of the screen size.
func (el *Element) PercentSize() (w, h float64, err error) {
	ww, wh, err := el.sess.dev.WindowSize()
	if err != nil {
		return 0, 0, fmt.Errorf("window size: %w", err)
	}
	r, err := el.Rect()
	if err != nil {
		return 0, 0, err
	}
	return float64(r.Width) / float64(ww), float64(r.Height) / float64(wh), nil
}

// Click taps the element's center through the session.
func (el *Element) Click() error {
	x, y, err := el.Center()
	if err != nil {
		return err
	}
	return el.sess.SendClick(x, y)
}

type point struct{ x, y int }

// Swipe drags across the element in one of "left", "right", "up", "down".
// scale in (0, 1] trims the swipe path symmetrically inside the bounds, so
// scale 1 swipes edge to edge.
func (el *Element) Swipe(direction string, scale float64) error {
	if scale <= 0 || scale > 1 {
		return fmt.Errorf("swipe scale %v out of range (0, 1]", scale)
	}

	b, err := el.Bounds()
	if err != nil {
		return err
	}
	width, height := b.Right-b.Left, b.Bottom-b.Top
	hOffset := int(float64(width)*(1-scale)) / 2
	vOffset := int(float64(height)*(1-scale)) / 2

	left := point{b.Left + hOffset, b.Top + height/2}
	up := point{b.Left + width/2, b.Top + vOffset}
	right := point{b.Right - hOffset, b.Top + height/2}
	down := point{b.Left + width/2, b.Bottom - vOffset}

	var from, to point
	switch direction {
	case "left":
		from, to = right, left
	case "right":
		from, to = left, right
	case "up":
		from, to = down, up
	case "down":
		from, to = up, down
	default:
		return &InvalidDirectionError{Direction: direction}
	}
	return el.sess.SendSwipe(from.x, from.y, to.x, to.y)
}

// Screenshot captures the full screen and crops it to the element's bounds.
func (el *Element) Screenshot() (image.Image, error) {
	b, err := el.Bounds()
	if err != nil {
		return nil, err
	}
	img, err := el.sess.TakeScreenshot()
	if err != nil {
		return nil, err
	}
	return imaging.Crop(img, image.Rect(b.Left, b.Top, b.Right, b.Bottom)), nil
}

// Info is a fixed-key snapshot of an element's reportable attributes. Keys
// are always present; attributes the node lacks come through as empty
// strings.
type Info struct {
	Text               string `json:"text"`
	Focusable          string `json:"focusable"`
	Enabled            string `json:"enabled"`
	Focused            string `json:"focused"`
	Scrollable         string `json:"scrollable"`
	Selected           string `json:"selected"`
	ClassName          string `json:"className"`
	Bounds             Bounds `json:"bounds"`
	ContentDescription string `json:"contentDescription"`
	LongClickable      string `json:"longClickable"`
	PackageName        string `json:"packageName"`
}

// Info collects the element's reportable attributes.
func (el *Element) Info() (Info, error) {
	b, err := el.Bounds()
	if err != nil {
		return Info{}, err
	}
	return Info{
		Text:               el.Attr("text"),
		Focusable:          el.Attr("focusable"),
		Enabled:            el.Attr("enabled"),
		Focused:            el.Attr("focused"),
		Scrollable:         el.Attr("scrollable"),
		Selected:           el.Attr("selected"),
		ClassName:          el.node.Data,
		Bounds:             b,
		ContentDescription: el.Attr("content-desc"),
		LongClickable:      el.Attr("long-clickable"),
		PackageName:        el.Attr("package"),
	}, nil
}
