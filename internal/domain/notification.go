package domain

import "bytes"

// Notification is the webhook payload the node posts when a block settles.
// Untrusted input: only Hash is required, and only sends are processed.
type Notification struct {
	Hash      string   `json:"hash"`
	IsSend    FlexBool `json:"is_send"`
	Account   string   `json:"account"`
	AmountRaw string   `json:"amount"`
}

// FlexBool accepts JSON booleans as well as the node's stringified
// "true"/"false" values.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	*b = FlexBool(string(data) == "true")
	return nil
}

func (b FlexBool) Bool() bool { return bool(b) }
