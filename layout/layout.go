// Package layout maps the active keyboard layout to a transcription
// language, so dictation follows whatever layout the user switched to.
package layout

import (
	"os"
	"os/exec"
	"strings"

	"github.com/jeandeaual/go-locale"
)

// layout code → ISO-639-1 language
var layoutLang = map[string]string{
	"us": "en",
	"gb": "en",
	"de": "de",
	"fr": "fr",
	"es": "es",
	"it": "it",
	"ru": "ru",
}

// DetectLanguage resolves the current keyboard layout to a language code.
// It tries xkb-switch, then the system keyboard configuration, then the
// process locale, and falls back to English.
func DetectLanguage() string {
	if lang, ok := fromXkbSwitch(); ok {
		return lang
	}
	if lang, ok := fromKeyboardConfig("/etc/default/keyboard"); ok {
		return lang
	}
	if lang, ok := fromLocale(); ok {
		return lang
	}
	return "en"
}

func fromXkbSwitch() (string, bool) {
	out, err := exec.Command("xkb-switch").Output()
	if err != nil {
		return "", false
	}
	return mapLayout(strings.TrimSpace(string(out)))
}

// fromKeyboardConfig parses XKBLAYOUT from a debian-style keyboard file.
func fromKeyboardConfig(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "XKBLAYOUT=") {
			continue
		}
		value := strings.Trim(strings.TrimPrefix(line, "XKBLAYOUT="), `"'`)
		// Multi-layout setups list the primary layout first.
		if i := strings.IndexByte(value, ','); i >= 0 {
			value = value[:i]
		}
		return mapLayout(value)
	}
	return "", false
}

func fromLocale() (string, bool) {
	loc, err := locale.GetLocale()
	if err != nil || loc == "" {
		return "", false
	}
	// "de-DE" or "de_DE" → "de"
	lang := strings.FieldsFunc(loc, func(r rune) bool { return r == '-' || r == '_' })[0]
	lang = strings.ToLower(lang)
	for _, known := range layoutLang {
		if lang == known {
			return lang, true
		}
	}
	return "", false
}

// mapLayout strips any variant suffix ("us(intl)", "de(nodeadkeys)") and
// looks the base layout up.
func mapLayout(layout string) (string, bool) {
	if i := strings.IndexByte(layout, '('); i >= 0 {
		layout = layout[:i]
	}
	layout = strings.ToLower(strings.TrimSpace(layout))
	lang, ok := layoutLang[layout]
	return lang, ok
}
