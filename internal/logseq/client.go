// Package logseq is a thin client for the Logseq HTTP API.
//
// The API is RPC over a single POST endpoint: the request body carries
// an editor method name and a positional argument list, the response is
// the method's JSON result. Only the handful of editor calls the sync
// needs are wrapped: page lookup and creation, block tree retrieval,
// block removal, and batch block insertion.
package logseq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yukimura/marginalia/internal/outline"
)

// DefaultURL is the local Logseq HTTP server's API endpoint.
const DefaultURL = "http://127.0.0.1:12315/api"

// Client calls the Logseq HTTP API. Construct with New; the zero value
// has no HTTP client.
type Client struct {
	url   string
	token string
	http  *http.Client
}

// New returns a client for the API at url, authorizing with token. An
// empty url falls back to DefaultURL. Calls time out after ten seconds.
func New(url, token string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url:   url,
		token: token,
		http:  &http.Client{Timeout: 10 * time.Second},
	}
}

// rpcRequest is the wire shape of one API call.
type rpcRequest struct {
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

// Call invokes an API method with positional arguments and decodes the
// JSON result into out. Pass a nil out to discard the result. A JSON
// "null" result decodes as the zero value, which callers use to detect
// missing pages.
func (c *Client) Call(ctx context.Context, out any, method string, args ...any) error {
	if args == nil {
		args = []any{}
	}
	body, err := json.Marshal(rpcRequest{Method: method, Args: args})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s call failed: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d: %s", method, resp.StatusCode, bytes.TrimSpace(data))
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	return nil
}

// Page is the subset of page metadata the sync needs.
type Page struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// Block is the subset of block metadata the sync needs when reading an
// existing page tree.
type Block struct {
	UUID string `json:"uuid"`
}

// Connected reports whether the API answers an app-info call.
func (c *Client) Connected(ctx context.Context) bool {
	var info map[string]any
	if err := c.Call(ctx, &info, "logseq.App.getInfo"); err != nil {
		return false
	}
	return info != nil
}

// GetPage looks up a page by name. A nil page with a nil error means
// the page does not exist.
func (c *Client) GetPage(ctx context.Context, name string) (*Page, error) {
	var page *Page
	if err := c.Call(ctx, &page, "logseq.Editor.getPage", name); err != nil {
		return nil, err
	}
	if page != nil && page.UUID == "" {
		return nil, nil
	}
	return page, nil
}

// CreatePage creates a page with the given properties and no first
// block, so the batch insert fully controls the content.
func (c *Client) CreatePage(ctx context.Context, name string, properties map[string]any) (*Page, error) {
	if properties == nil {
		properties = map[string]any{}
	}
	var page *Page
	err := c.Call(ctx, &page, "logseq.Editor.createPage", name, properties,
		map[string]any{"createFirstBlock": false})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// PageBlocks returns the top-level blocks of a page.
func (c *Client) PageBlocks(ctx context.Context, name string) ([]Block, error) {
	var blocks []Block
	if err := c.Call(ctx, &blocks, "logseq.Editor.getPageBlocksTree", name); err != nil {
		return nil, err
	}
	return blocks, nil
}

// RemoveBlock deletes a block by uuid.
func (c *Client) RemoveBlock(ctx context.Context, uuid string) error {
	return c.Call(ctx, nil, "logseq.Editor.removeBlock", uuid)
}

// InsertBatch inserts a block forest under the given parent uuid as
// siblings. The forest is exactly the shape outline.Parse produces.
func (c *Client) InsertBatch(ctx context.Context, parentUUID string, blocks []*outline.Node) error {
	return c.Call(ctx, nil, "logseq.Editor.insertBatchBlock", parentUUID, blocks,
		map[string]any{"sibling": true})
}

// ReplacePage overwrites a page with the given outline text. The page
// is created if missing, its existing top-level blocks are removed, and
// the parsed block tree is inserted in their place.
func (c *Client) ReplacePage(ctx context.Context, name, content string) error {
	page, err := c.GetPage(ctx, name)
	if err != nil {
		return err
	}
	if page == nil {
		page, err = c.CreatePage(ctx, name, nil)
		if err != nil {
			return err
		}
		if page == nil {
			return fmt.Errorf("unable to create page %q", name)
		}
	}

	blocks, err := c.PageBlocks(ctx, name)
	if err != nil {
		return err
	}
	for _, b := range blocks {
		if b.UUID == "" {
			continue
		}
		if err := c.RemoveBlock(ctx, b.UUID); err != nil {
			return err
		}
	}

	if tree := outline.Parse(content); len(tree) > 0 {
		return c.InsertBatch(ctx, page.UUID, tree)
	}
	return nil
}
