package textutil

import "strings"

var markdownReplacer = strings.NewReplacer(
	"*", "\\*",
	"_", "\\_",
	"`", "\\`",
	"[", "\\[",
)

// EscapeMarkdown protects the characters Telegram's legacy Markdown parser
// treats as formatting.
func EscapeMarkdown(text string) string {
	return markdownReplacer.Replace(text)
}
