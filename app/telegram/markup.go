package telegram

import "strings"

// MarkdownV2 requires these characters to be escaped in regular text.
// https://core.telegram.org/bots/api#markdownv2-style
var markdownV2Escaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

func EscapeMarkdownV2(text string) string {
	return markdownV2Escaper.Replace(text)
}
