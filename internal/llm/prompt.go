// ABOUTME: Prompt construction with language steering and localized terminology
// ABOUTME: Terminology packs are embedded TOML, one file per supported language

package llm

import (
	"embed"
	"fmt"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"

	"github.com/induserve/assist/internal/lang"
)

//go:embed terminology/*.toml
var terminologyFS embed.FS

// terminology holds the localized prompt fragments for one language.
type terminology struct {
	DiagnosticIntro string `toml:"diagnostic_intro"`
	AnalysisIntro   string `toml:"analysis_intro"`
	ModelLabel      string `toml:"model_label"`
	SerialLabel     string `toml:"serial_label"`
	Guidance        string `toml:"guidance"`
	FailureMessage  string `toml:"failure_message"`
}

var packs = mustLoadPacks()

// mustLoadPacks decodes every embedded terminology pack. A missing or broken
// pack for a supported language is a build defect, so this panics.
func mustLoadPacks() map[string]terminology {
	out := make(map[string]terminology)
	for _, code := range lang.Codes() {
		data, err := terminologyFS.ReadFile("terminology/" + code + ".toml")
		if err != nil {
			panic(fmt.Sprintf("terminology pack for %q missing: %v", code, err))
		}
		var t terminology
		if _, err := toml.Decode(string(data), &t); err != nil {
			panic(fmt.Sprintf("terminology pack for %q invalid: %v", code, err))
		}
		out[code] = t
	}
	return out
}

// pack returns the terminology for a language, falling back to the default.
func pack(language string) terminology {
	if t, ok := packs[language]; ok {
		return t
	}
	return packs[lang.Default]
}

// languageInstruction returns the system message steering the model toward
// the requested reply language. The default language needs no instruction.
func languageInstruction(language string) string {
	if language == lang.Default {
		return ""
	}
	return fmt.Sprintf(
		"You are a troubleshooting assistant for industrial machines made by Induserve. "+
			"Respond to the user in %s only.", lang.Name(language))
}

// BuildDiagnosticPrompt produces a localized system prompt for a machine
// described by a small key/value mapping. Recognized keys are "name", "model"
// and "serial_number"; present values are embedded verbatim.
func BuildDiagnosticPrompt(machineContext map[string]string, language string) string {
	t := pack(language)

	var b strings.Builder
	b.WriteString(t.DiagnosticIntro)

	if name := machineContext["name"]; name != "" {
		b.WriteString("\n")
		b.WriteString(name)
	}
	if model := machineContext["model"]; model != "" {
		fmt.Fprintf(&b, "\n%s: %s", t.ModelLabel, model)
	}
	if serial := machineContext["serial_number"]; serial != "" {
		fmt.Fprintf(&b, "\n%s: %s", t.SerialLabel, serial)
	}

	b.WriteString("\n\n")
	b.WriteString(t.Guidance)
	return b.String()
}

// failureMessage returns the user-safe fallback reply for a language.
func failureMessage(language string) string {
	return pack(language).FailureMessage
}

// sanitize strips control characters from free text before submission,
// keeping newlines and tabs. Other runes pass through untouched.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
