package trigger

import (
	"sort"
	"strings"

	"github.com/hovershell/core/internal/shared/types"
)

// Modifier aliases accepted in binding specs. cmd and ctrl collapse to one
// canonical modifier so a single config works across platforms.
var modifierAliases = map[string]string{
	"cmd":     "ctrl",
	"command": "ctrl",
	"ctrl":    "ctrl",
	"control": "ctrl",
	"alt":     "alt",
	"option":  "alt",
	"shift":   "shift",
	"meta":    "meta",
	"super":   "meta",
}

// NormalizeChord canonicalizes a hotkey chord spec: lowercase, modifiers
// sorted and deduplicated, exactly one non-modifier key, "+"-joined.
// Returns types.ErrValidation for empty or ambiguous specs.
func NormalizeChord(spec string) (string, error) {
	spec = strings.TrimSpace(strings.ToLower(spec))
	if spec == "" {
		return "", types.Validationf("empty hotkey chord")
	}

	parts := strings.Split(spec, "+")
	mods := make(map[string]bool)
	key := ""
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return "", types.Validationf("malformed hotkey chord %q", spec)
		}
		if mod, ok := modifierAliases[part]; ok {
			mods[mod] = true
			continue
		}
		if key != "" {
			return "", types.Validationf("hotkey chord %q has more than one key", spec)
		}
		key = part
	}
	if key == "" {
		return "", types.Validationf("hotkey chord %q has no key", spec)
	}

	sorted := make([]string, 0, len(mods))
	for mod := range mods {
		sorted = append(sorted, mod)
	}
	sort.Strings(sorted)

	return strings.Join(append(sorted, key), "+"), nil
}
