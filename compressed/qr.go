// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package compressed

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EncodeQR renders a compressed tally as URL-safe text for a QR code.
func EncodeQR(ct Tally) (string, error) {
	data, err := json.Marshal(ct)
	if err != nil {
		return "", fmt.Errorf("failed to marshal compressed tally: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeQR reverses EncodeQR. The rows are not checked against an election;
// pass the result to Decode for that.
func DecodeQR(s string) (Tally, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode QR payload: %w", err)
	}
	var ct Tally
	if err := json.Unmarshal(data, &ct); err != nil {
		return nil, fmt.Errorf("failed to unmarshal compressed tally: %w", err)
	}
	return ct, nil
}
