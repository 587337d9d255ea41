package domain

// Block is a settled send block fetched from the node by hash.
// Transient: owned by a single ingest call, never cached.
type Block struct {
	Hash      string // block hash (uppercase hex)
	Account   string // sender ban_ address
	AmountRaw string // transferred amount in raw (integer minor units)
	Content   string // message text decoded from the link field
	Subtype   string // send | receive | change | epoch

	// State block contents, present when the node returns them.
	// Required for signature verification.
	Previous       string // hex
	Representative string // ban_ address
	BalanceRaw     string // balance after the block, in raw
	Link           string // hex, carries the message payload on chat sends
	Signature      string // hex
}
