package query

import (
	"strings"
	"testing"
)

func TestTranslateRules(t *testing.T) {
	tests := []struct {
		name      string
		shorthand string
		expected  string
	}{
		{
			name:      "full xpath passthrough",
			shorthand: "//android.widget.TextView[@text='OK']",
			expected:  "//android.widget.TextView[@text='OK']",
		},
		{
			name:      "resource id",
			shorthand: "@com.example:id/login",
			expected:  `//*[@resource-id="com.example:id/login"]`,
		},
		{
			name:      "regex keeps caret",
			shorthand: "^Sign.?in",
			expected:  `//*[matches(@text, "^Sign.?in")]`,
		},
		{
			name:      "contains",
			shorthand: "%log%",
			expected:  `//*[contains(@text, "log")]`,
		},
		{
			name:      "ends with",
			shorthand: "%abc",
			expected:  `//*["abc" = substring(@text, string-length(@text) - 3 + 1)]`,
		},
		{
			name:      "starts with",
			shorthand: "abc%",
			expected:  `//*[starts-with(@text, "abc")]`,
		},
		{
			name:      "exact text or description",
			shorthand: "Settings",
			expected:  `//*[@text="Settings" or @content-desc="Settings"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Translate(tt.shorthand)
			if got != tt.expected {
				t.Errorf("Translate(%q) = %q, want %q", tt.shorthand, got, tt.expected)
			}
		})
	}
}

func TestTranslateSinglePercent(t *testing.T) {
	// A lone "%" is an empty suffix match, not an empty contains.
	got := Translate("%")
	want := `//*["" = substring(@text, string-length(@text) - 0 + 1)]`
	if got != want {
		t.Errorf("Translate(%%) = %q, want %q", got, want)
	}
}

func TestTranslateEndsWithCountsRunes(t *testing.T) {
	got := Translate("%继续")
	if !strings.Contains(got, "- 2 + 1") {
		t.Errorf("ends-with length should count runes, got %q", got)
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{`plain`, `"plain"`},
		{`it's`, `"it's"`},
		{`say "hi"`, `'say "hi"'`},
		{`a"b'c`, `concat("a", '"', "b'c")`},
		{`"`, `'"'`},
		{`'`, `"'"`},
	}
	for _, tt := range tests {
		if got := Quote(tt.in); got != tt.expected {
			t.Errorf("Quote(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}

func TestQuoteMixedQuotesUsesConcat(t *testing.T) {
	q := Quote(`mix"ed'quotes`)
	if !strings.HasPrefix(q, "concat(") || !strings.HasSuffix(q, ")") {
		t.Errorf("Quote with both quote kinds should emit concat(), got %q", q)
	}
	if got := Quote(`a"b'c`); got != `concat("a", '"', "b'c")` {
		t.Errorf("unexpected concat split: %q", got)
	}
}
