package ingest

import (
	"errors"
	"strings"
	"testing"

	"banano-chat-relay/internal/banano"
	"banano-chat-relay/internal/domain"
	"banano-chat-relay/internal/fees"
)

const (
	feeRaw        = "1000000000000000000000000000"  // 0.01 BAN
	premiumFeeRaw = "10000000000000000000000000000" // 0.1 BAN
)

func testProvider(t *testing.T) *fees.Provider {
	t.Helper()
	schedule, err := fees.NewSchedule(feeRaw, premiumFeeRaw)
	if err != nil {
		t.Fatalf("NewSchedule failed: %v", err)
	}
	return fees.NewProvider(schedule)
}

func testAddress(t *testing.T, fill byte) string {
	t.Helper()
	pub := make([]byte, 32)
	for i := range pub {
		pub[i] = fill ^ byte(i*3)
	}
	address, err := banano.EncodeAddress(pub)
	if err != nil {
		t.Fatalf("EncodeAddress failed: %v", err)
	}
	return address
}

func testBlock(t *testing.T, amountRaw string) *domain.Block {
	return &domain.Block{
		Hash:      strings.Repeat("AB", 32),
		Account:   testAddress(t, 0x10),
		AmountRaw: amountRaw,
		Content:   "hello",
		Subtype:   "send",
	}
}

func TestValidator_AcceptsStandardFee(t *testing.T) {
	v := NewValidator(testProvider(t), false)

	draft, err := v.Validate(testBlock(t, feeRaw))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if draft.Premium {
		t.Error("standard fee classified as premium")
	}
	if draft.Content != "hello" {
		t.Errorf("content = %q", draft.Content)
	}
	if draft.Hash != strings.Repeat("AB", 32) {
		t.Errorf("hash = %q", draft.Hash)
	}
}

func TestValidator_AcceptsPremiumFee(t *testing.T) {
	v := NewValidator(testProvider(t), false)

	draft, err := v.Validate(testBlock(t, premiumFeeRaw))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if !draft.Premium {
		t.Error("premium fee not classified as premium")
	}
}

func TestValidator_Rejects(t *testing.T) {
	v := NewValidator(testProvider(t), false)

	missingHash := testBlock(t, feeRaw)
	missingHash.Hash = ""

	badAddress := testBlock(t, feeRaw)
	badAddress.Account = "ban_notavalidaddress"

	receive := testBlock(t, feeRaw)
	receive.Subtype = "receive"

	noSubtype := testBlock(t, feeRaw)
	noSubtype.Subtype = ""

	tests := []struct {
		name  string
		block *domain.Block
		want  error
	}{
		{"nil block", nil, ErrMissingHash},
		{"missing hash", missingHash, ErrMissingHash},
		{"receive block", receive, ErrNotSend},
		{"missing subtype", noSubtype, ErrNotSend},
		{"bad address", badAddress, ErrInvalidAddress},
		{"zero amount", testBlock(t, "0"), ErrAmountMismatch},
		{"near miss", testBlock(t, "1000000000000000000000000001"), ErrAmountMismatch},
		{"unparseable amount", testBlock(t, "0.01"), ErrAmountMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.block)
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidator_SignatureChecking(t *testing.T) {
	block := testBlock(t, feeRaw)
	block.Signature = strings.Repeat("00", 64) // cannot possibly verify
	block.Previous = strings.Repeat("0", 64)
	block.Representative = block.Account
	block.BalanceRaw = "1"
	block.Link = strings.Repeat("00", 32)

	strict := NewValidator(testProvider(t), true)
	if _, err := strict.Validate(block); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}

	lax := NewValidator(testProvider(t), false)
	if _, err := lax.Validate(block); err != nil {
		t.Errorf("lax validator rejected block: %v", err)
	}

	// Blocks without contents skip verification even in strict mode.
	noContents := testBlock(t, feeRaw)
	if _, err := strict.Validate(noContents); err != nil {
		t.Errorf("strict validator rejected contents-free block: %v", err)
	}
}

func TestValidator_UsesCurrentSnapshot(t *testing.T) {
	provider := testProvider(t)
	v := NewValidator(provider, false)

	block := testBlock(t, "42")
	if _, err := v.Validate(block); !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("expected ErrAmountMismatch before reload, got %v", err)
	}

	reloaded, err := fees.NewSchedule("42", premiumFeeRaw)
	if err != nil {
		t.Fatalf("NewSchedule failed: %v", err)
	}
	provider.Reload(reloaded)

	draft, err := v.Validate(block)
	if err != nil {
		t.Fatalf("Validate after reload failed: %v", err)
	}
	if draft.Premium {
		t.Error("base fee classified as premium after reload")
	}
}
