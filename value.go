package dynamodel

import (
	"fmt"
	"regexp"
	"strings"
)

// templatePattern matches ${field} references inside a value template.
var templatePattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// templateRefs returns the field names referenced by a value template, in
// order of appearance.
func templateRefs(template string) []string {
	matches := templatePattern.FindAllStringSubmatch(template, -1)
	refs := make([]string, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, m[1])
	}
	return refs
}

// renderTemplate substitutes ${field} references with the corresponding
// property values. Returns ok=false when any referenced property is absent,
// leaving the field unresolved rather than producing a partial key.
func renderTemplate(template string, props Item) (string, bool) {
	ok := true
	rendered := templatePattern.ReplaceAllStringFunc(template, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		value, present := props[name]
		if !present || value == nil {
			ok = false
			return match
		}
		return fmt.Sprintf("%v", value)
	})
	if !ok {
		return "", false
	}
	return rendered, true
}
