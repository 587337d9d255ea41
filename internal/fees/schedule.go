// Package fees holds the configured chat fee schedule and classifies paid
// amounts against it. Amounts are exact raw integers (10^29 raw per BAN);
// no floating point is involved anywhere.
package fees

import (
	"fmt"
	"math/big"
	"sync/atomic"
)

// Tier classifies a paid amount against the schedule.
type Tier int

const (
	// TierNone means the amount matches neither configured fee.
	TierNone Tier = iota
	// TierStandard means the amount equals the base fee.
	TierStandard
	// TierPremium means the amount equals the premium fee.
	// Premium wins when both fees are configured to the same amount.
	TierPremium
)

// Schedule is an immutable snapshot of the two configured fees.
type Schedule struct {
	fee        *big.Int
	premiumFee *big.Int
}

// NewSchedule parses the two fee amounts from raw decimal strings.
func NewSchedule(feeRaw, premiumFeeRaw string) (*Schedule, error) {
	fee, err := parseRaw(feeRaw)
	if err != nil {
		return nil, fmt.Errorf("parse fee: %w", err)
	}
	premium, err := parseRaw(premiumFeeRaw)
	if err != nil {
		return nil, fmt.Errorf("parse premium fee: %w", err)
	}
	return &Schedule{fee: fee, premiumFee: premium}, nil
}

// Classify returns the tier matching the paid raw amount exactly.
func (s *Schedule) Classify(amountRaw *big.Int) Tier {
	if amountRaw == nil {
		return TierNone
	}
	if amountRaw.Cmp(s.premiumFee) == 0 {
		return TierPremium
	}
	if amountRaw.Cmp(s.fee) == 0 {
		return TierStandard
	}
	return TierNone
}

// FeeRaw returns the base fee as a raw decimal string.
func (s *Schedule) FeeRaw() string { return s.fee.String() }

// PremiumFeeRaw returns the premium fee as a raw decimal string.
func (s *Schedule) PremiumFeeRaw() string { return s.premiumFee.String() }

// parseRaw parses a non-negative raw amount from its decimal representation.
func parseRaw(raw string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("not a decimal integer: %q", raw)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("negative amount: %q", raw)
	}
	return n, nil
}

// ParseAmount parses a raw amount string from a block or notification.
func ParseAmount(raw string) (*big.Int, error) {
	return parseRaw(raw)
}

// Provider hands out consistent schedule snapshots and supports hot reload.
// Readers never observe a partially updated fee pair.
type Provider struct {
	current atomic.Pointer[Schedule]
}

// NewProvider creates a Provider seeded with the given schedule.
func NewProvider(s *Schedule) *Provider {
	p := &Provider{}
	p.current.Store(s)
	return p
}

// Current returns the current schedule snapshot.
func (p *Provider) Current() *Schedule { return p.current.Load() }

// Reload atomically swaps in a new schedule.
func (p *Provider) Reload(s *Schedule) { p.current.Store(s) }
