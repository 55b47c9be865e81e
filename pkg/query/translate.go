// Package query translates shorthand element queries into XPath expressions.
//
// A shorthand query selects its translation rule by sentinel characters:
//
//	//android.widget.TextView   full XPath, passed through
//	@com.app:id/login           resource-id exact match
//	^Sign.?in                   regular expression on element text
//	%log%                       text contains "log"
//	%in                         text ends with "in"
//	Sign%                       text starts with "Sign"
//	Sign in                     text or content-desc equals "Sign in"
package query

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Translate converts a shorthand query into a strict XPath expression.
// Every input is accepted; translation itself never fails. Rules are checked
// in order and the first match wins.
func Translate(shorthand string) string {
	var xp string
	switch {
	case strings.HasPrefix(shorthand, "//"):
		xp = shorthand
	case strings.HasPrefix(shorthand, "@"):
		xp = fmt.Sprintf("//*[@resource-id=%s]", Quote(shorthand[1:]))
	case strings.HasPrefix(shorthand, "^"):
		// The whole input is the regex source so the caret keeps anchoring.
		xp = fmt.Sprintf("//*[matches(@text, %s)]", Quote(shorthand))
	case len(shorthand) > 1 && strings.HasPrefix(shorthand, "%") && strings.HasSuffix(shorthand, "%"):
		xp = fmt.Sprintf("//*[contains(@text, %s)]", Quote(shorthand[1:len(shorthand)-1]))
	case strings.HasPrefix(shorthand, "%"):
		// XPath 1.0 has no ends-with; compare the length-N suffix instead.
		text := shorthand[1:]
		xp = fmt.Sprintf("//*[%s = substring(@text, string-length(@text) - %d + 1)]",
			Quote(text), utf8.RuneCountInString(text))
	case strings.HasSuffix(shorthand, "%"):
		xp = fmt.Sprintf("//*[starts-with(@text, %s)]", Quote(shorthand[:len(shorthand)-1]))
	default:
		q := Quote(shorthand)
		xp = fmt.Sprintf("//*[@text=%s or @content-desc=%s]", q, q)
	}
	slog.Debug("translate query", "shorthand", shorthand, "xpath", xp)
	return xp
}

// Quote returns s as an XPath string literal. XPath has no escape sequences,
// so a literal containing both quote kinds is split into a concat() of pieces
// that each need only one kind.
func Quote(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	pieces := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			pieces = append(pieces, `'"'`)
		}
		if p != "" {
			pieces = append(pieces, `"`+p+`"`)
		}
	}
	return "concat(" + strings.Join(pieces, ", ") + ")"
}
