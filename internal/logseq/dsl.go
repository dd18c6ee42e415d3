package logseq

import (
	"fmt"
	"strings"
)

// PagePropertyQuery builds a page-property DSL expression. With a value
// it matches pages whose property equals that value; without one it
// matches pages where the property is present at all.
//
// Double quotes inside the value are escaped so the embedded literal
// stays well formed. No other characters are escaped; backslash
// handling is a known gap of the query language surface, not a safety
// guarantee of this function.
func PagePropertyQuery(name, value string) string {
	if value == "" {
		return fmt.Sprintf("(page-property %s)", name)
	}
	escaped := strings.ReplaceAll(value, `"`, `\"`)
	return fmt.Sprintf(`(page-property %s "%s")`, name, escaped)
}
