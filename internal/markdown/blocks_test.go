package markdown

import (
	"reflect"
	"testing"
)

func TestParseNestedBullets(t *testing.T) {
	content := `- First
  - Child
    - Grandchild
- Second`

	blocks, props := Parse(content)
	if props != nil {
		t.Errorf("Expected no properties, got %v", props)
	}
	if len(blocks) != 2 {
		t.Fatalf("Expected 2 root blocks, got %d", len(blocks))
	}
	if blocks[0].Content != "First" || blocks[1].Content != "Second" {
		t.Errorf("Unexpected root contents: %v", blocks)
	}
	if len(blocks[0].Children) != 1 || blocks[0].Children[0].Content != "Child" {
		t.Fatalf("Unexpected children of First: %v", blocks[0].Children)
	}
	grand := blocks[0].Children[0].Children
	if len(grand) != 1 || grand[0].Content != "Grandchild" {
		t.Errorf("Unexpected grandchildren: %v", grand)
	}
	if len(blocks[1].Children) != 0 {
		t.Errorf("Second should have no children: %v", blocks[1].Children)
	}
}

func TestParsePlainLines(t *testing.T) {
	blocks, _ := Parse("Hello world\n\nAnother paragraph")
	if len(blocks) != 2 {
		t.Fatalf("Expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Content != "Hello world" || blocks[1].Content != "Another paragraph" {
		t.Errorf("Unexpected blocks: %v", blocks)
	}
}

func TestParseEmptyContent(t *testing.T) {
	blocks, props := Parse("")
	if len(blocks) != 0 {
		t.Errorf("Expected no blocks, got %v", blocks)
	}
	if props != nil {
		t.Errorf("Expected no properties, got %v", props)
	}
}

func TestParseFrontmatter(t *testing.T) {
	content := `---
type: customer
status: "active"
tags: [crm, priority]
---
- First block`

	blocks, props := Parse(content)
	if len(blocks) != 1 || blocks[0].Content != "First block" {
		t.Fatalf("Unexpected blocks: %v", blocks)
	}

	if props["type"] != "customer" {
		t.Errorf("Expected type=customer, got %v", props["type"])
	}
	if props["status"] != "active" {
		t.Errorf("Quotes should be stripped, got %v", props["status"])
	}
	expected := []interface{}{"crm", "priority"}
	if !reflect.DeepEqual(props["tags"], expected) {
		t.Errorf("Expected tags %v, got %v", expected, props["tags"])
	}
}

func TestParseUnterminatedFrontmatter(t *testing.T) {
	content := `---
type: customer
- A block`

	blocks, props := Parse(content)
	if props != nil {
		t.Errorf("Unterminated frontmatter should not yield properties: %v", props)
	}
	// The whole content stays in the body, delimiter included
	if len(blocks) != 3 {
		t.Errorf("Expected 3 blocks, got %v", blocks)
	}
}

func TestParseIndentDeeperThanStack(t *testing.T) {
	// A jump deeper than one level clamps to the deepest open block
	content := "- Root\n        - Deep"
	blocks, _ := Parse(content)
	if len(blocks) != 1 {
		t.Fatalf("Expected 1 root, got %d", len(blocks))
	}
	if len(blocks[0].Children) != 1 || blocks[0].Children[0].Content != "Deep" {
		t.Errorf("Deep bullet should attach to Root: %v", blocks[0])
	}
}
