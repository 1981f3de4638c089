package services

import (
	"fmt"
	"html"
	"strings"
	"unicode"
)

// MaxLabelRunes keeps grid buttons readable on narrow clients.
const MaxLabelRunes = 40

func EscapeHTML(text string) string {
	return html.EscapeString(text)
}

func FormatBold(text string) string {
	return fmt.Sprintf("<b>%s</b>", html.EscapeString(text))
}

func FormatItalic(text string) string {
	return fmt.Sprintf("<i>%s</i>", html.EscapeString(text))
}

func FormatLink(text, url string) string {
	return fmt.Sprintf("<a href=\"%s\">%s</a>", html.EscapeString(url), html.EscapeString(text))
}

// ButtonLabel renders display text for an inline button. Button captions are
// plain text on a single line, so control characters and line breaks are
// collapsed to spaces and long labels are cut with an ellipsis.
func ButtonLabel(text string) string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	})
	label := strings.Join(fields, " ")
	if label == "" {
		return "…"
	}
	return TruncateRunes(label, MaxLabelRunes)
}

func TruncateRunes(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-1]) + "…"
}
