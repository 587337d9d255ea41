package ingest

import (
	"banano-chat-relay/internal/banano"
	"banano-chat-relay/internal/domain"
	"banano-chat-relay/internal/fees"
)

// Draft is a validated, normalized message ready for insert.
type Draft struct {
	Hash    string
	Address string
	Content string
	Premium bool
}

// Validator decides whether a fetched block is a well-formed, fee-matching
// chat submission. Pure: its only input beyond the block is the fee
// schedule snapshot taken at call time.
type Validator struct {
	fees             *fees.Provider
	verifySignatures bool
}

// NewValidator creates a Validator.
// When verifySignatures is set, blocks carrying contents must also pass
// ed25519-blake2b signature verification against their sender account.
func NewValidator(provider *fees.Provider, verifySignatures bool) *Validator {
	return &Validator{fees: provider, verifySignatures: verifySignatures}
}

// Validate classifies a block. Returns a reject reason from this package
// on failure.
func (v *Validator) Validate(block *domain.Block) (*Draft, error) {
	if block == nil || block.Hash == "" {
		return nil, ErrMissingHash
	}
	if block.Subtype != "send" {
		return nil, ErrNotSend
	}
	if !banano.ValidAddress(block.Account) {
		return nil, ErrInvalidAddress
	}

	amount, err := fees.ParseAmount(block.AmountRaw)
	if err != nil {
		return nil, ErrAmountMismatch
	}

	schedule := v.fees.Current()
	tier := schedule.Classify(amount)
	if tier == fees.TierNone {
		return nil, ErrAmountMismatch
	}

	if v.verifySignatures && block.Signature != "" {
		if err := banano.VerifyBlock(block); err != nil {
			return nil, ErrInvalidSignature
		}
	}

	return &Draft{
		Hash:    block.Hash,
		Address: block.Account,
		Content: block.Content,
		Premium: tier == fees.TierPremium,
	}, nil
}
