// Package results classifies and renders the heterogeneous records a
// Logseq DSL query returns. Shapes are not a formal schema: each item
// is tagged by field presence with a fixed precedence order and an
// explicit fallback, so unknown shapes render predictably instead of
// being dropped.
package results

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ergut/mcp-logseq/internal/constants"
	interrors "github.com/ergut/mcp-logseq/internal/errors"
)

// Kind tags one result item. Exactly one kind applies per item.
type Kind int

const (
	KindPage Kind = iota
	KindBlock
	KindOther
)

// Type filters a result set by item kind.
type Type string

const (
	TypeAll        Type = "all"
	TypePagesOnly  Type = "pages_only"
	TypeBlocksOnly Type = "blocks_only"
)

// ParseType validates a result_type selector, defaulting empty to all.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeAll, TypePagesOnly, TypeBlocksOnly:
		return Type(s), nil
	case "":
		return TypeAll, nil
	default:
		return "", fmt.Errorf("%q: %w", s, interrors.ErrInvalidResultType)
	}
}

// Classify tags an item, checking in precedence order: a non-empty
// display name field makes it a page, else non-empty content makes it
// a block, else it falls through to the raw fallback.
func Classify(item map[string]interface{}) Kind {
	if DisplayName(item) != "" {
		return KindPage
	}
	if content, _ := item["content"].(string); content != "" {
		return KindBlock
	}
	return KindOther
}

// DisplayName returns the page display name, preferring originalName
// over name.
func DisplayName(item map[string]interface{}) string {
	if name, _ := item["originalName"].(string); name != "" {
		return name
	}
	name, _ := item["name"].(string)
	return name
}

// Filter retains the items matching the selector, preserving order.
func Filter(items []map[string]interface{}, t Type) []map[string]interface{} {
	if t == TypeAll || t == "" {
		return items
	}
	want := KindPage
	if t == TypeBlocksOnly {
		want = KindBlock
	}
	filtered := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if Classify(item) == want {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// renderItem produces one display line for an item.
func renderItem(item map[string]interface{}) string {
	switch Classify(item) {
	case KindPage:
		line := "- " + DisplayName(item)
		if props := propertyPairs(item); props != "" {
			line += " (" + props + ")"
		}
		return line
	case KindBlock:
		content, _ := item["content"].(string)
		return "- [block] " + truncate(content, constants.BlockPreviewLength)
	default:
		// Unknown shape: render rather than drop
		raw, err := json.Marshal(item)
		if err != nil {
			return fmt.Sprintf("- %v", item)
		}
		return "- " + string(raw)
	}
}

// propertyPairs renders propertiesTextValues as a comma-joined
// "key: value" list, sorted for stable output.
func propertyPairs(item map[string]interface{}) string {
	props, _ := item["propertiesTextValues"].(map[string]interface{})
	if len(props) == 0 {
		return ""
	}
	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, fmt.Sprintf("%s: %v", key, props[key]))
	}
	return strings.Join(pairs, ", ")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// FormatQuery renders a DSL query result set. Filtering happens before
// the limit, so the limit bounds the filtered set. The footer reports
// the filtered (pre-limit) total: "Total: N results" when everything is
// shown, "Showing L of N results" after truncation.
func FormatQuery(query string, items []map[string]interface{}, resultType Type, limit int) string {
	filtered := Filter(items, resultType)
	if len(filtered) == 0 {
		return fmt.Sprintf("No results found for query: %s", query)
	}
	if limit <= 0 {
		limit = constants.DefaultQueryLimit
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Query Results\n\nQuery: %s\n\n", query)

	shown := filtered
	if len(shown) > limit {
		shown = shown[:limit]
	}
	for _, item := range shown {
		b.WriteString(renderItem(item))
		b.WriteString("\n")
	}

	if len(filtered) > len(shown) {
		fmt.Fprintf(&b, "\nShowing %d of %d results", len(shown), len(filtered))
	} else {
		fmt.Fprintf(&b, "\nTotal: %d results", len(filtered))
	}
	return b.String()
}

// FormatPropertySearch renders a property search result set. The value
// may be empty for presence-only searches.
func FormatPropertySearch(name, value string, items []map[string]interface{}, limit int) string {
	if len(items) == 0 {
		if value != "" {
			return fmt.Sprintf("No pages found with '%s = %s'", name, value)
		}
		return fmt.Sprintf("No pages found with property '%s'", name)
	}
	if limit <= 0 {
		limit = constants.DefaultQueryLimit
	}

	var b strings.Builder
	if value != "" {
		fmt.Fprintf(&b, "Pages with '%s = %s':\n\n", name, value)
	} else {
		fmt.Fprintf(&b, "Pages with property '%s':\n\n", name)
	}

	shown := items
	if len(shown) > limit {
		shown = shown[:limit]
	}
	for _, item := range shown {
		b.WriteString(renderItem(item))
		b.WriteString("\n")
	}

	if len(items) > len(shown) {
		fmt.Fprintf(&b, "\nShowing %d of %d pages", len(shown), len(items))
	} else {
		fmt.Fprintf(&b, "\nTotal: %d pages", len(items))
	}
	return b.String()
}
