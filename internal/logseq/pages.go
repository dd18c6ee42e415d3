package logseq

import (
	"context"
	"fmt"

	interrors "github.com/ergut/mcp-logseq/internal/errors"
	"github.com/ergut/mcp-logseq/internal/markdown"
)

// pageExists checks a page list for a name, matching either display
// name field.
func pageExists(pages []map[string]interface{}, name string) bool {
	for _, page := range pages {
		if page["originalName"] == name || page["name"] == name {
			return true
		}
	}
	return false
}

// CreatePage creates a page with page-level properties and appends the
// given block tree. Properties go into the createPage call itself so
// Logseq stores them at the page entity level.
func (c *Client) CreatePage(ctx context.Context, title string, blocks []markdown.Block, properties map[string]interface{}) error {
	if properties == nil {
		properties = map[string]interface{}{}
	}
	opts := map[string]interface{}{"createFirstBlock": true}

	if err := c.call(ctx, nil, "logseq.Editor.createPage", title, properties, opts); err != nil {
		return err
	}

	for _, block := range blocks {
		if err := c.appendBlockTree(ctx, title, block, ""); err != nil {
			return err
		}
	}
	return nil
}

// appendBlockTree writes one block and its children. Root blocks append
// to the page; nested blocks insert under their parent's UUID.
func (c *Client) appendBlockTree(ctx context.Context, pageName string, block markdown.Block, parentUUID string) error {
	var created *Block
	var err error
	if parentUUID == "" {
		created, err = c.AppendBlockInPage(ctx, pageName, block.Content)
	} else {
		created, err = c.InsertBlock(ctx, parentUUID, block.Content, false, nil)
	}
	if err != nil {
		return err
	}

	for _, child := range block.Children {
		if err := c.appendBlockTree(ctx, pageName, child, created.UUID); err != nil {
			return err
		}
	}
	return nil
}

// UpdateMode selects how UpdatePage treats existing content.
type UpdateMode string

const (
	ModeAppend  UpdateMode = "append"
	ModeReplace UpdateMode = "replace"
)

// UpdatePage appends to or replaces the content of an existing page and
// optionally upserts properties on its first block. The page must
// already exist.
func (c *Client) UpdatePage(ctx context.Context, pageName string, blocks []markdown.Block, properties map[string]interface{}, mode UpdateMode) error {
	page, err := c.GetPage(ctx, pageName)
	if err != nil {
		return err
	}
	if page == nil {
		return fmt.Errorf("page %q: %w", pageName, interrors.ErrPageNotFound)
	}

	if mode == ModeReplace {
		existing, err := c.GetPageBlocksTree(ctx, pageName)
		if err != nil {
			return err
		}
		// Removing a root block removes its subtree with it
		for _, block := range existing {
			if err := c.RemoveBlock(ctx, block.UUID); err != nil {
				return err
			}
		}
	}

	for _, block := range blocks {
		if err := c.appendBlockTree(ctx, pageName, block, ""); err != nil {
			return err
		}
	}

	if len(properties) > 0 {
		if err := c.upsertPageProperties(ctx, pageName, properties); err != nil {
			return err
		}
	}
	return nil
}

// upsertPageProperties writes properties onto the page's first block,
// which is where Logseq keeps page properties.
func (c *Client) upsertPageProperties(ctx context.Context, pageName string, properties map[string]interface{}) error {
	tree, err := c.GetPageBlocksTree(ctx, pageName)
	if err != nil {
		return err
	}

	var firstUUID string
	if len(tree) > 0 {
		firstUUID = tree[0].UUID
	} else {
		block, err := c.AppendBlockInPage(ctx, pageName, "")
		if err != nil {
			return err
		}
		firstUUID = block.UUID
	}

	for key, value := range properties {
		if err := c.call(ctx, nil, "logseq.Editor.upsertBlockProperty", firstUUID, key, value); err != nil {
			return err
		}
	}
	return nil
}

// DeletePage removes a page after verifying it exists, since Logseq
// silently accepts deletes of unknown pages.
func (c *Client) DeletePage(ctx context.Context, name string) error {
	pages, err := c.ListPages(ctx)
	if err != nil {
		return err
	}
	if !pageExists(pages, name) {
		return fmt.Errorf("page %q: %w", name, interrors.ErrPageNotFound)
	}
	return c.call(ctx, nil, "logseq.Editor.deletePage", name)
}

// RenamePage renames a page. The source must exist and the target name
// must be free.
func (c *Client) RenamePage(ctx context.Context, oldName, newName string) error {
	pages, err := c.ListPages(ctx)
	if err != nil {
		return err
	}
	if !pageExists(pages, oldName) {
		return fmt.Errorf("page %q: %w", oldName, interrors.ErrPageNotFound)
	}
	if pageExists(pages, newName) {
		return fmt.Errorf("page %q: %w", newName, interrors.ErrPageExists)
	}
	return c.call(ctx, nil, "logseq.Editor.renamePage", oldName, newName)
}
