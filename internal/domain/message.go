package domain

// Message represents an accepted chat message backed by a settled send block.
// Corresponds to the messages table in PostgreSQL.
type Message struct {
	ID        int64  // surrogate key, assigned by the store on insert
	Hash      string // block hash, UNIQUE, deduplication key
	Address   string // sender ban_ address
	Content   string // text decoded from the block
	Premium   bool   // amount matched the premium fee; decided once at validation
	Hidden    bool   // moderation flag; hidden messages stay counted
	CreatedAt int64  // insert timestamp in milliseconds (store clock)
}

// MessageEvent pairs an accepted message with the sender's running message
// count, as delivered to realtime subscribers.
type MessageEvent struct {
	Message      *Message
	AddressCount int
}
