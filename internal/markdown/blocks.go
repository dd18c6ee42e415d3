// Package markdown turns tool-supplied markdown content into the block
// trees and page properties that the Logseq editor API expects.
package markdown

import "strings"

// Block is a parsed content block with its nested children.
type Block struct {
	Content  string
	Children []Block
}

type node struct {
	content  string
	children []*node
}

func (n *node) toBlock() Block {
	block := Block{Content: n.content}
	for _, child := range n.children {
		block.Children = append(block.Children, child.toBlock())
	}
	return block
}

// Parse splits markdown content into root blocks and page properties.
// Bullet lines nest by two-space indentation; any other non-empty line
// becomes a root block of its own. A leading frontmatter section
// delimited by "---" lines yields the properties.
func Parse(content string) ([]Block, map[string]interface{}) {
	body, properties := splitFrontmatter(content)

	var roots []*node
	var stack []*node // stack[i] is the last block seen at depth i

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if !strings.HasPrefix(trimmed, "- ") {
			n := &node{content: trimmed}
			roots = append(roots, n)
			stack = []*node{n}
			continue
		}

		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		depth := indent / 2
		if depth > len(stack) {
			depth = len(stack)
		}

		n := &node{content: strings.TrimPrefix(trimmed, "- ")}
		if depth == 0 {
			roots = append(roots, n)
		} else {
			parent := stack[depth-1]
			parent.children = append(parent.children, n)
		}
		stack = append(stack[:depth], n)
	}

	blocks := make([]Block, 0, len(roots))
	for _, root := range roots {
		blocks = append(blocks, root.toBlock())
	}
	return blocks, properties
}

// splitFrontmatter strips a leading YAML-style frontmatter section and
// parses it into properties. Only "key: value" pairs are understood;
// bracketed values become lists.
func splitFrontmatter(content string) (string, map[string]interface{}) {
	lines := strings.Split(content, "\n")

	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start >= len(lines) || strings.TrimSpace(lines[start]) != "---" {
		return content, nil
	}

	end := -1
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end < 0 {
		return content, nil
	}

	properties := map[string]interface{}{}
	for _, line := range lines[start+1 : end] {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		properties[key] = parseValue(strings.TrimSpace(value))
	}
	if len(properties) == 0 {
		properties = nil
	}

	return strings.Join(lines[end+1:], "\n"), properties
}

func parseValue(value string) interface{} {
	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		inner := strings.TrimSuffix(strings.TrimPrefix(value, "["), "]")
		var items []interface{}
		for _, item := range strings.Split(inner, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				items = append(items, trimmed)
			}
		}
		return items
	}
	return strings.Trim(value, `"'`)
}
