package domain

// IngestEvent records one webhook processing outcome for offline analysis.
// Corresponds to the ingest_events table in ClickHouse.
type IngestEvent struct {
	Hash       string
	Outcome    Outcome
	Reason     string // reject reason or error class, empty otherwise
	Address    string
	AmountRaw  string
	DurationMs int64
	Timestamp  int64 // Unix timestamp in milliseconds
}

// Outcome classifies how a notification terminated.
type Outcome string

const (
	OutcomeAccepted  Outcome = "accepted"  // new message stored and broadcast
	OutcomeDuplicate Outcome = "duplicate" // replayed hash, no visible effect
	OutcomeIgnored   Outcome = "ignored"   // not a send, acknowledged as no-op
	OutcomeRejected  Outcome = "rejected"  // invalid submission
	OutcomeError     Outcome = "error"     // transient failure, caller should retry
)
