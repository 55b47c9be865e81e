package uiautomator2

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/devicelab-dev/uixpath/pkg/uix"
)

var _ uix.Device = (*Client)(nil)

// Click performs a tap at coordinates.
func (c *Client) Click(x, y int) error {
	req := ClickRequest{
		Offset: &PointModel{X: x, Y: y},
	}
	_, err := c.request("POST", c.sessionPath("/appium/gestures/click"), req)
	return err
}

// Swipe performs a pointer drag between two points over duration.
func (c *Client) Swipe(fromX, fromY, toX, toY int, duration time.Duration) error {
	seq := actionSequence{
		Type:       "pointer",
		ID:         "finger1",
		Parameters: map[string]string{"pointerType": "touch"},
		Actions: []actionStep{
			{Type: "pointerMove", X: fromX, Y: fromY, Origin: "viewport"},
			{Type: "pointerDown"},
			{Type: "pointerMove", Duration: int(duration.Milliseconds()), X: toX, Y: toY, Origin: "viewport"},
			{Type: "pointerUp"},
		},
	}
	_, err := c.request("POST", c.sessionPath("/actions"), actionsRequest{
		Actions: []actionSequence{seq},
	})
	return err
}

// WindowSize returns the device screen size in pixels.
func (c *Client) WindowSize() (width, height int, err error) {
	data, err := c.request("GET", c.sessionPath("/window/rect"), nil)
	if err != nil {
		return 0, 0, err
	}

	var resp struct {
		Value RectModel `json:"value"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, 0, err
	}

	return resp.Value.Width, resp.Value.Height, nil
}

// DumpHierarchy returns the UI hierarchy as XML.
func (c *Client) DumpHierarchy() (string, error) {
	data, err := c.request("GET", c.sessionPath("/source"), nil)
	if err != nil {
		return "", err
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}

	source, _ := resp.Value.(string)
	return source, nil
}

// Screenshot captures the screen and decodes it.
func (c *Client) Screenshot() (image.Image, error) {
	data, err := c.request("GET", c.sessionPath("/screenshot"), nil)
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}

	b64, ok := resp.Value.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected screenshot response")
	}

	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot image: %w", err)
	}
	return img, nil
}

// SendText clears the focused field and types text when non-empty.
func (c *Client) SendText(text string) error {
	if id, err := c.ActiveElement(); err == nil {
		if err := c.ClearElement(id); err != nil {
			return err
		}
	}
	if text == "" {
		return nil
	}
	_, err := c.request("POST", c.sessionPath("/keys"), KeysRequest{Text: text})
	return err
}

// ActiveElement returns the ID of the currently focused element.
func (c *Client) ActiveElement() (string, error) {
	data, err := c.request("GET", c.sessionPath("/element/active"), nil)
	if err != nil {
		return "", err
	}

	var resp struct {
		Value ElementModel `json:"value"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}

	if resp.Value.ELEMENT == "" {
		return "", fmt.Errorf("no active element")
	}
	return resp.Value.ELEMENT, nil
}

// ClearElement clears an editable element's text.
func (c *Client) ClearElement(id string) error {
	_, err := c.request("POST", c.sessionPath("/element/"+id+"/clear"), nil)
	return err
}

// WaitTimeout returns the default wait used by selector operations.
func (c *Client) WaitTimeout() time.Duration {
	if c.waitTimeout == 0 {
		return DefaultWaitTimeout
	}
	return c.waitTimeout
}

// SetWaitTimeout changes the default wait. The server is not involved;
// waiting is client-side polling.
func (c *Client) SetWaitTimeout(d time.Duration) {
	c.waitTimeout = d
}

// SetImplicitWait sets the server-side implicit wait, for callers finding
// elements through the server rather than hierarchy snapshots.
func (c *Client) SetImplicitWait(timeout time.Duration) error {
	req := TimeoutsRequest{Implicit: int(timeout.Milliseconds())}
	_, err := c.request("POST", c.sessionPath("/timeouts"), req)
	return err
}
