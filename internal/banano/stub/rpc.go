// Package stub provides an in-memory banano.Client for testing.
package stub

import (
	"context"

	"banano-chat-relay/internal/banano"
	"banano-chat-relay/internal/domain"
)

// Client implements banano.Client backed by a map of blocks.
type Client struct {
	Blocks map[string]*domain.Block

	// Err, when set, is returned for every call. Simulates transport failure.
	Err error
}

// NewClient creates a new stub RPC client.
func NewClient() *Client {
	return &Client{Blocks: make(map[string]*domain.Block)}
}

// BlockInfo retrieves a block by hash from the stub store.
func (c *Client) BlockInfo(_ context.Context, hash string) (*domain.Block, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	block, ok := c.Blocks[hash]
	if !ok {
		return nil, banano.ErrBlockNotFound
	}
	return block, nil
}

var _ banano.Client = (*Client)(nil)
