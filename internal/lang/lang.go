// ABOUTME: Supported language registry for the diagnostic assistant
// ABOUTME: Defines the closed set of language codes and their proper names

package lang

// Default is the system default language code. Prompts for the default
// language carry no explicit language-steering instruction.
const Default = "en"

// names maps every supported language code to its English proper name,
// used when steering the model toward a reply language.
var names = map[string]string{
	"en": "English",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
	"it": "Italian",
	"pl": "Polish",
}

// IsSupported reports whether code is one of the supported language codes.
func IsSupported(code string) bool {
	_, ok := names[code]
	return ok
}

// Name returns the English proper name for a supported language code,
// or the empty string for an unknown code.
func Name(code string) string {
	return names[code]
}

// Codes returns all supported language codes. Order is not guaranteed.
func Codes() []string {
	out := make([]string, 0, len(names))
	for code := range names {
		out = append(out, code)
	}
	return out
}
