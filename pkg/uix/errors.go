package uix

import (
	"fmt"
	"strings"
	"time"
)

// NotFoundError reports that no element matched a selector's query sequence
// before its deadline.
type NotFoundError struct {
	Queries []string
	Timeout time.Duration // how long the caller waited, zero for immediate resolves
}

func (e *NotFoundError) Error() string {
	queries := strings.Join(e.Queries, " & ")
	if e.Timeout > 0 {
		return fmt.Sprintf("element not found after %s: %s", e.Timeout, queries)
	}
	return fmt.Sprintf("element not found: %s", queries)
}

// MalformedBoundsError reports a bounds attribute without four numeric tokens
// or with an inverted rectangle.
type MalformedBoundsError struct {
	Raw string
}

func (e *MalformedBoundsError) Error() string {
	return fmt.Sprintf("malformed bounds attribute %q", e.Raw)
}

// InvalidDirectionError reports a swipe direction outside the four cardinal
// values.
type InvalidDirectionError struct {
	Direction string
}

func (e *InvalidDirectionError) Error() string {
	return fmt.Sprintf("unknown swipe direction %q", e.Direction)
}

// InvalidConfigKeyError reports a Set call with an unrecognized option name.
type InvalidConfigKeyError struct {
	Key string
}

func (e *InvalidConfigKeyError) Error() string {
	return fmt.Sprintf("invalid config key %q", e.Key)
}
