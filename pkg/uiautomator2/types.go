package uiautomator2

// Response is the generic response envelope returned by the server.
type Response struct {
	SessionID string `json:"sessionId,omitempty"`
	Value     any    `json:"value"`
}

// Capabilities configure session creation.
type Capabilities map[string]any

// SessionRequest wraps capabilities for POST /session.
type SessionRequest struct {
	Capabilities Capabilities `json:"capabilities"`
}

// PointModel is an (x, y) coordinate pair.
type PointModel struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ElementModel references a server-side element.
type ElementModel struct {
	ELEMENT string `json:"ELEMENT"`
}

// ClickRequest taps at an offset or on an element.
type ClickRequest struct {
	Offset *PointModel   `json:"offset,omitempty"`
	Origin *ElementModel `json:"origin,omitempty"`
}

// KeysRequest types text on the device keyboard.
type KeysRequest struct {
	Text string `json:"text"`
}

// RectModel is a window or element rectangle.
type RectModel struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TimeoutsRequest sets server-side timeouts (milliseconds).
type TimeoutsRequest struct {
	Implicit int `json:"implicit"`
}

// actionsRequest is a W3C actions payload, used for point-to-point swipes.
type actionsRequest struct {
	Actions []actionSequence `json:"actions"`
}

type actionSequence struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Actions    []actionStep      `json:"actions"`
}

type actionStep struct {
	Type     string `json:"type"`
	Duration int    `json:"duration"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Origin   string `json:"origin,omitempty"`
	Button   int    `json:"button"`
}
