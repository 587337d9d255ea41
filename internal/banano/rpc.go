// Package banano provides the Banano node RPC client and the block-level
// primitives the relay needs: address decoding, state block hashing,
// ed25519-blake2b signature verification and link payload decoding.
package banano

import (
	"context"
	"errors"

	"banano-chat-relay/internal/domain"
)

// Client defines the node RPC surface the relay consumes.
type Client interface {
	// BlockInfo retrieves a settled block by hash.
	// Returns ErrBlockNotFound if the node does not know the hash.
	BlockInfo(ctx context.Context, hash string) (*domain.Block, error)
}

// ErrBlockNotFound is returned when the node has no block for a hash.
// Distinct from transport failures so callers can tell "invalid" from
// "retry later".
var ErrBlockNotFound = errors.New("block not found")
