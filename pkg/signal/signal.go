// Package signal implements the paste-based signaling codec: session
// descriptions travel between peers as base64-encoded JSON, copied by the
// operator from one terminal to the other.
package signal

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Encode serializes v to JSON and wraps it in standard base64 so it can be
// printed as a single line and pasted into the remote peer.
func Encode(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal signal payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Decode is the inverse of Encode: base64 decode, then JSON unmarshal into v.
func Decode(in string, v interface{}) error {
	b, err := base64.StdEncoding.DecodeString(in)
	if err != nil {
		return fmt.Errorf("failed to decode base64 signal payload: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("failed to unmarshal signal payload: %w", err)
	}
	return nil
}
