package results

import (
	"errors"
	"strings"
	"testing"

	interrors "github.com/ergut/mcp-logseq/internal/errors"
)

func page(name string, props map[string]interface{}) map[string]interface{} {
	item := map[string]interface{}{"originalName": name}
	if props != nil {
		item["propertiesTextValues"] = props
	}
	return item
}

func block(content string) map[string]interface{} {
	return map[string]interface{}{"content": content}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		item     map[string]interface{}
		expected Kind
	}{
		{
			name:     "page via originalName",
			item:     map[string]interface{}{"originalName": "Page A"},
			expected: KindPage,
		},
		{
			name:     "page via name fallback",
			item:     map[string]interface{}{"name": "page a"},
			expected: KindPage,
		},
		{
			name:     "page wins over content",
			item:     map[string]interface{}{"originalName": "Page A", "content": "text"},
			expected: KindPage,
		},
		{
			name:     "block via content",
			item:     map[string]interface{}{"content": "a block"},
			expected: KindBlock,
		},
		{
			name:     "empty name does not make a page",
			item:     map[string]interface{}{"originalName": "", "content": "a block"},
			expected: KindBlock,
		},
		{
			name:     "unknown shape",
			item:     map[string]interface{}{"id": float64(42)},
			expected: KindOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.item); got != tt.expected {
				t.Errorf("Classify(%v) = %v, want %v", tt.item, got, tt.expected)
			}
		})
	}
}

func TestParseType(t *testing.T) {
	for _, valid := range []string{"all", "pages_only", "blocks_only", ""} {
		if _, err := ParseType(valid); err != nil {
			t.Errorf("ParseType(%q) returned error: %v", valid, err)
		}
	}

	_, err := ParseType("pages")
	if !errors.Is(err, interrors.ErrInvalidResultType) {
		t.Errorf("Expected ErrInvalidResultType, got %v", err)
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	items := []map[string]interface{}{
		page("A", nil),
		block("b1"),
		page("B", nil),
		block("b2"),
		{"id": float64(1)},
	}

	pages := Filter(items, TypePagesOnly)
	if len(pages) != 2 || DisplayName(pages[0]) != "A" || DisplayName(pages[1]) != "B" {
		t.Errorf("Unexpected pages filter result: %v", pages)
	}

	blocks := Filter(items, TypeBlocksOnly)
	if len(blocks) != 2 || blocks[0]["content"] != "b1" || blocks[1]["content"] != "b2" {
		t.Errorf("Unexpected blocks filter result: %v", blocks)
	}

	all := Filter(items, TypeAll)
	if len(all) != 5 {
		t.Errorf("Expected all 5 items, got %d", len(all))
	}
}

func TestFormatQueryMixedResults(t *testing.T) {
	items := []map[string]interface{}{
		page("Acme Corp", map[string]interface{}{"type": "customer", "status": "active"}),
		block("TODO follow up with Acme"),
		page("Beta LLC", nil),
	}

	out := FormatQuery("(page-property type customer)", items, TypeAll, 100)

	if !strings.HasPrefix(out, "# Query Results\n\nQuery: (page-property type customer)\n\n") {
		t.Errorf("Missing header:\n%s", out)
	}
	// Properties render sorted by key
	if !strings.Contains(out, "- Acme Corp (status: active, type: customer)") {
		t.Errorf("Missing page line with sorted properties:\n%s", out)
	}
	if !strings.Contains(out, "- [block] TODO follow up with Acme") {
		t.Errorf("Missing block line:\n%s", out)
	}
	if !strings.Contains(out, "- Beta LLC\n") {
		t.Errorf("Page without properties should render bare:\n%s", out)
	}
	if !strings.HasSuffix(out, "Total: 3 results") {
		t.Errorf("Missing total footer:\n%s", out)
	}
}

func TestFormatQueryFiltersBeforeLimit(t *testing.T) {
	// 3 pages interleaved with 2 blocks; pages_only with limit 2 must
	// count the 3 matching pages, not the 5 raw items
	items := []map[string]interface{}{
		page("A", nil),
		block("b1"),
		page("B", nil),
		block("b2"),
		page("C", nil),
	}

	out := FormatQuery("(all-pages)", items, TypePagesOnly, 2)

	if strings.Contains(out, "[block]") {
		t.Errorf("Filtered output should not contain blocks:\n%s", out)
	}
	if !strings.Contains(out, "- A\n") || !strings.Contains(out, "- B\n") {
		t.Errorf("Expected first two pages shown:\n%s", out)
	}
	if strings.Contains(out, "- C\n") {
		t.Errorf("Third page should be cut by the limit:\n%s", out)
	}
	if !strings.HasSuffix(out, "Showing 2 of 3 results") {
		t.Errorf("Footer should report the filtered total:\n%s", out)
	}
}

func TestFormatQueryLargeResultSet(t *testing.T) {
	items := make([]map[string]interface{}, 150)
	for i := range items {
		items[i] = block("item")
	}

	out := FormatQuery("(task TODO)", items, TypeAll, 100)
	if !strings.HasSuffix(out, "Showing 100 of 150 results") {
		t.Errorf("Expected truncation footer:\n%s", out)
	}
	if got := strings.Count(out, "- [block]"); got != 100 {
		t.Errorf("Expected 100 rendered items, got %d", got)
	}
}

func TestFormatQueryEmpty(t *testing.T) {
	out := FormatQuery("(task CANCELED)", nil, TypeAll, 100)
	if out != "No results found for query: (task CANCELED)" {
		t.Errorf("Unexpected empty output: %q", out)
	}

	// Filtering everything away is also empty
	out = FormatQuery("(task TODO)", []map[string]interface{}{block("b")}, TypePagesOnly, 100)
	if out != "No results found for query: (task TODO)" {
		t.Errorf("Unexpected filtered-empty output: %q", out)
	}
}

func TestFormatQueryBlockTruncation(t *testing.T) {
	long := strings.Repeat("x", 150)
	out := FormatQuery("(q)", []map[string]interface{}{block(long)}, TypeAll, 100)

	if !strings.Contains(out, "- [block] "+strings.Repeat("x", 100)+"...") {
		t.Errorf("Expected content truncated at 100 chars:\n%s", out)
	}
	if strings.Contains(out, strings.Repeat("x", 101)) {
		t.Errorf("Content not truncated:\n%s", out)
	}
}

func TestFormatQueryUnknownShape(t *testing.T) {
	items := []map[string]interface{}{{"id": float64(7)}}
	out := FormatQuery("(q)", items, TypeAll, 100)

	// Unknown shapes render as raw JSON instead of being dropped
	if !strings.Contains(out, `- {"id":7}`) {
		t.Errorf("Expected raw JSON fallback:\n%s", out)
	}
	if !strings.HasSuffix(out, "Total: 1 results") {
		t.Errorf("Unknown shape must still be counted:\n%s", out)
	}
}

func TestFormatPropertySearch(t *testing.T) {
	items := []map[string]interface{}{
		page("Acme Corp", map[string]interface{}{"type": "customer"}),
		page("Beta LLC", map[string]interface{}{"type": "customer"}),
	}

	out := FormatPropertySearch("type", "customer", items, 100)
	if !strings.HasPrefix(out, "Pages with 'type = customer':\n\n") {
		t.Errorf("Missing value header:\n%s", out)
	}
	if !strings.HasSuffix(out, "Total: 2 pages") {
		t.Errorf("Missing footer:\n%s", out)
	}

	out = FormatPropertySearch("type", "", items, 100)
	if !strings.HasPrefix(out, "Pages with property 'type':\n\n") {
		t.Errorf("Missing presence header:\n%s", out)
	}

	out = FormatPropertySearch("type", "vendor", nil, 100)
	if out != "No pages found with 'type = vendor'" {
		t.Errorf("Unexpected empty output: %q", out)
	}

	out = FormatPropertySearch("owner", "", nil, 100)
	if out != "No pages found with property 'owner'" {
		t.Errorf("Unexpected empty output: %q", out)
	}
}

func TestFormatPropertySearchLimit(t *testing.T) {
	items := make([]map[string]interface{}, 5)
	for i := range items {
		items[i] = page("Page", nil)
	}

	out := FormatPropertySearch("type", "customer", items, 3)
	if !strings.HasSuffix(out, "Showing 3 of 5 pages") {
		t.Errorf("Expected truncation footer:\n%s", out)
	}
}
