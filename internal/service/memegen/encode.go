package memegen

import "strings"

// textEscaper applies the gallery URL encoding rules. Literal
// underscores and dashes are escaped before spaces and newlines are
// converted, so the two cannot collide.
var textEscaper = strings.NewReplacer(
	"_", "__",
	"-", "--",
	"?", "~q",
	"&", "~a",
	"%", "~p",
	"#", "~h",
	"/", "~s",
	"\\", "~b",
	" ", "_",
	"\n", "~n",
)

// EncodeText encodes a caption line for use in a gallery image URL.
// Empty text encodes as a single underscore placeholder.
func EncodeText(text string) string {
	if text == "" {
		return "_"
	}
	return textEscaper.Replace(text)
}
