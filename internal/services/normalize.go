package services

import "strings"

// markupStripper deletes emphasis, inline code, heading, block quote and list
// markers. It is not a markdown parser: every occurrence is removed.
var markupStripper = strings.NewReplacer(
	"**", "",
	"*", "",
	"_", "",
	"`", "",
	"#", "",
	">", "",
	"-", "",
)

// CleanResponseText prepares model output for plain-text display.
func CleanResponseText(text string) string {
	return strings.TrimSpace(markupStripper.Replace(text))
}
